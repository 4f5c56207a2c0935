package repositories

import (
	"context"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// DailyReportReader defines read operations over daily reports.
type DailyReportReader interface {
	// FindReport retrieves the report for one natural key, or
	// apperrors.ErrNotFound.
	FindReport(ctx context.Context, key domain.ReportKey) (*domain.DailyReport, error)
}

// DailyReportWriter defines write operations over daily reports.
type DailyReportWriter interface {
	// UpsertReport persists the report with at-most-once semantics per
	// natural key: a concurrent or repeated upsert for the same key
	// must leave exactly one row, atomically.
	UpsertReport(ctx context.Context, r domain.DailyReport) error

	// UpdateOutcome attaches a (possibly delayed) transmission outcome
	// to the report identified by key.
	UpdateOutcome(ctx context.Context, key domain.ReportKey, outcome domain.ReportOutcome, detail string, recordedAt time.Time) error
}

// DailyReportRepositoryFacade combines all daily report capabilities.
type DailyReportRepositoryFacade interface {
	DailyReportReader
	DailyReportWriter
}
