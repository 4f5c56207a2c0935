package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql-backed repository. The blob
// store backs audit artifacts and lives outside the database, so it is
// constructed by the caller and passed through.
func NewRepositoryProvider(dbPool *pgxpool.Pool, blobs portsrepo.BlobStore) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ReceiptRepo:  newPgxReceiptRepository(dbPool),
		JournalRepo:  newPgxJournalRepository(dbPool),
		ReportRepo:   newPgxDailyReportRepository(dbPool),
		AuditJobRepo: newPgxAuditJobRepository(dbPool),
		AnomalyRepo:  newPgxAnomalyRepository(dbPool),
		SeedRepo:     newPgxSeedRepository(dbPool),
		Blobs:        blobs,
	}
}
