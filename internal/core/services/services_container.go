package services

import (
	"log/slog"

	"github.com/luminapos/corrispettivi/internal/core/ports/clients"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/luminapos/corrispettivi/pkg/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, authority clients.AuthorityClient, logger *slog.Logger) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The reconciler comes first: aggregation hands it every report
	// whose verdict the authority defers.
	container.Reconciler = NewOutcomeReconciler(
		authority,
		repos.ReportRepo,
		cfg.OutcomePollInterval,
		cfg.OutcomeMaxRetries,
		logger,
	)

	container.Aggregation = NewAggregationService(
		repos.ReceiptRepo,
		repos.ReportRepo,
		authority,
		container.Reconciler,
		logger,
	)

	container.Ingestion = NewIngestionService(
		repos.ReceiptRepo,
		repos.JournalRepo,
		repos.AnomalyRepo,
		repos.SeedRepo,
		container.Aggregation,
		logger,
	)

	container.Audit = NewAuditService(
		repos.AuditJobRepo,
		repos.JournalRepo,
		repos.ReceiptRepo,
		repos.Blobs,
		cfg.AuditRetention,
		logger,
	)

	return container
}
