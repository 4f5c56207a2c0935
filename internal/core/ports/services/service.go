package services

// ServiceContainer holds instances of all the application services.
// Handlers and background workers reach every capability through it.
type ServiceContainer struct {
	Ingestion   IngestionService
	Aggregation AggregationService
	Audit       AuditService
	Reconciler  OutcomeReconciler
}
