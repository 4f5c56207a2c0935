package services

import (
	"context"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// OutcomeReconciler tracks daily reports whose transmission outcome
// did not arrive synchronously and polls for it on a fixed interval.
type OutcomeReconciler interface {
	// Register adds a report key to the pending set.
	Register(key domain.ReportKey)

	// Tick runs one polling pass over the pending set: resolved keys
	// are recorded and removed, unresolved ones have their retry
	// counter bumped and are dropped (surfaced as UNRESOLVED) once the
	// retry budget is exhausted.
	Tick(ctx context.Context)

	// Run blocks, invoking Tick on the configured interval until the
	// context is cancelled.
	Run(ctx context.Context)

	// PendingCount reports the current pending-set size.
	PendingCount() int
}
