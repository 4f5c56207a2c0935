package repositories

import (
	"context"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// JournalReader defines read operations over ingested journals.
type JournalReader interface {
	// FindJournal retrieves the journal persisted for one natural key.
	FindJournal(ctx context.Context, vatNumber, deviceID string, referenceDate time.Time) (*domain.Journal, error)

	// ListJournalsByDeviceAndRange retrieves journals for a device whose
	// reference date falls within [from, to], ordered by date.
	ListJournalsByDeviceAndRange(ctx context.Context, deviceID string, from, to time.Time) ([]domain.Journal, error)
}

// JournalWriter defines write operations over ingested journals.
type JournalWriter interface {
	// SaveJournal persists the received journal keyed by
	// (vatNumber, deviceID, referenceDate). Re-ingestion replaces the
	// stored copy; anomalous journals are persisted too, flagged by
	// their status.
	SaveJournal(ctx context.Context, j domain.Journal) error
}

// JournalRepositoryFacade combines all journal repository capabilities.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
