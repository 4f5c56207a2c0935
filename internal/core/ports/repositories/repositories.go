package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	ReceiptRepo  ReceiptRepositoryFacade
	JournalRepo  JournalRepositoryFacade
	ReportRepo   DailyReportRepositoryFacade
	AuditJobRepo AuditJobRepositoryFacade
	AnomalyRepo  AnomalyWriter
	SeedRepo     SeedWriter
	Blobs        BlobStore
}
