package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/core/ports/clients"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
)

type outcomeReconciler struct {
	authority  clients.AuthorityClient
	reports    portsrepo.DailyReportWriter
	interval   time.Duration
	maxRetries int
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[domain.ReportKey]int
}

// NewOutcomeReconciler creates the background poller that resolves
// deferred transmission verdicts. A report dropped after maxRetries
// polls is recorded as UNRESOLVED so the gap is visible to operators
// instead of silently pending forever.
func NewOutcomeReconciler(
	authority clients.AuthorityClient,
	reports portsrepo.DailyReportWriter,
	interval time.Duration,
	maxRetries int,
	logger *slog.Logger,
) portssvc.OutcomeReconciler {
	return &outcomeReconciler{
		authority:  authority,
		reports:    reports,
		interval:   interval,
		maxRetries: maxRetries,
		logger:     logger,
		pending:    make(map[domain.ReportKey]int),
	}
}

var _ portssvc.OutcomeReconciler = (*outcomeReconciler)(nil)

// Register adds a report key to the pending set. Re-registering an
// already pending key resets its retry counter.
func (r *outcomeReconciler) Register(key domain.ReportKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[key] = 0
}

// PendingCount reports how many reports still await a verdict.
func (r *outcomeReconciler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Tick runs one polling pass over a snapshot of the pending set.
func (r *outcomeReconciler) Tick(ctx context.Context) {
	r.mu.Lock()
	keys := make([]domain.ReportKey, 0, len(r.pending))
	for key := range r.pending {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	for _, key := range keys {
		r.poll(ctx, key)
	}
}

func (r *outcomeReconciler) poll(ctx context.Context, key domain.ReportKey) {
	outcome, err := r.authority.QueryOutcome(ctx, key)
	if err == nil && outcome != nil {
		if updateErr := r.reports.UpdateOutcome(ctx, key, outcome.Outcome, outcome.Detail, outcome.RecordedAt); updateErr != nil {
			// Keep the key pending, the next tick retries the write.
			r.logger.Error("Failed to record reconciled outcome",
				slog.String("report_key", key.String()),
				slog.String("error", updateErr.Error()))
			return
		}
		r.remove(key)
		r.logger.Info("Transmission outcome reconciled",
			slog.String("report_key", key.String()),
			slog.String("outcome", string(outcome.Outcome)))
		return
	}

	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		r.logger.Warn("Outcome poll failed",
			slog.String("report_key", key.String()),
			slog.String("error", err.Error()))
	}

	r.mu.Lock()
	r.pending[key]++
	exhausted := r.pending[key] > r.maxRetries
	if exhausted {
		delete(r.pending, key)
	}
	r.mu.Unlock()

	if exhausted {
		now := time.Now().UTC()
		if updateErr := r.reports.UpdateOutcome(ctx, key, domain.OutcomeUnresolved,
			"retry budget exhausted without an authority verdict", now); updateErr != nil {
			r.logger.Error("Failed to flag report as unresolved",
				slog.String("report_key", key.String()),
				slog.String("error", updateErr.Error()))
		}
		r.logger.Error("Transmission outcome unresolved, dropping from reconciliation",
			slog.String("report_key", key.String()),
			slog.Int("retries", r.maxRetries))
	}
}

func (r *outcomeReconciler) remove(key domain.ReportKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)
}

// Run polls on the configured interval until the context is cancelled.
func (r *outcomeReconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}
