package services

import (
	"context"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// AggregationService turns a sealed, ingested journal into a daily tax
// report and hands it to the authority transmission collaborator.
type AggregationService interface {
	// AggregateJournal fetches the session's receipts, groups their VAT
	// summaries, upserts the report idempotently on its natural key and
	// transmits it. Returns (nil, nil) for an empty session: no report
	// is produced.
	AggregateJournal(ctx context.Context, j domain.Journal) (*domain.DailyReport, error)
}
