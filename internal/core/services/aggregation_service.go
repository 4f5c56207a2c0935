package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/core/ports/clients"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type aggregationService struct {
	receipts   portsrepo.ReceiptReader
	reports    portsrepo.DailyReportRepositoryFacade
	authority  clients.AuthorityClient
	reconciler portssvc.OutcomeReconciler
	logger     *slog.Logger
}

// NewAggregationService creates the engine that turns a sealed journal
// into a daily tax report.
func NewAggregationService(
	receipts portsrepo.ReceiptReader,
	reports portsrepo.DailyReportRepositoryFacade,
	authority clients.AuthorityClient,
	reconciler portssvc.OutcomeReconciler,
	logger *slog.Logger,
) portssvc.AggregationService {
	return &aggregationService{
		receipts:   receipts,
		reports:    reports,
		authority:  authority,
		reconciler: reconciler,
		logger:     logger,
	}
}

var _ portssvc.AggregationService = (*aggregationService)(nil)

// AggregateJournal derives the daily report for a sealed, verified
// journal and hands it to the authority. The upsert is idempotent on
// the report's natural key, so re-ingesting the same journal never
// duplicates a report.
func (s *aggregationService) AggregateJournal(ctx context.Context, j domain.Journal) (*domain.DailyReport, error) {
	receipts, err := s.receipts.FindReceiptsByDeviceAndDate(ctx, j.DeviceID, j.ReferenceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load session receipts: %w", err)
	}
	if len(receipts) == 0 {
		// An empty session produces no report.
		s.logger.Info("Skipping aggregation for empty session",
			slog.String("device_id", j.DeviceID),
			slog.String("reference_date", j.ReferenceDate.UTC().Format("2006-01-02")))
		return nil, nil
	}

	report := buildDailyReport(j, receipts)
	if err := s.reports.UpsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to upsert daily report %s: %w", report.Key(), err)
	}

	outcome, sendErr := s.authority.SendReport(ctx, report)
	if sendErr != nil {
		// Transmission failed outright: the outcome is unknown, leave
		// it to reconciliation.
		s.logger.Warn("Report transmission failed, outcome left to reconciliation",
			slog.String("report_key", report.Key().String()),
			slog.String("error", sendErr.Error()))
		s.reconciler.Register(report.Key())
		return &report, nil
	}

	now := time.Now().UTC()
	report.TransmittedAt = &now
	if err := s.reports.UpsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to record transmission time for %s: %w", report.Key(), err)
	}

	if outcome != nil {
		if err := s.reports.UpdateOutcome(ctx, report.Key(), outcome.Outcome, outcome.Detail, outcome.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to record synchronous outcome for %s: %w", report.Key(), err)
		}
		report.Outcome = outcome.Outcome
		report.OutcomeDetail = outcome.Detail
	} else {
		// Accepted with deferred verdict.
		s.reconciler.Register(report.Key())
	}

	s.logger.Info("Daily report aggregated",
		slog.String("report_key", report.Key().String()),
		slog.Int64("document_count", report.DocumentCount),
		slog.String("total_amount", report.TotalAmount.StringFixed(2)))
	return &report, nil
}

// buildDailyReport groups the session's receipts by VAT treatment
// across the whole day and totals them. The VAT split is re-derived
// from each group's summed gross, not by adding the per-receipt
// rounded figures: rounding once at day scale keeps the breakdown
// consistent with a scorporo of the day's gross. Deterministic: the
// same journal and receipts always yield the same report.
func buildDailyReport(j domain.Journal, receipts []domain.Receipt) domain.DailyReport {
	type groupKey struct {
		rate   string
		nature string
	}
	gross := make(map[groupKey]decimal.Decimal)
	keys := make([]groupKey, 0, 4)

	total := decimal.Zero
	for _, r := range receipts {
		total = total.Add(r.TotalAmount)
		for _, g := range r.VATSummary {
			key := groupKey{rate: g.VATRate.String(), nature: g.ExemptionNature}
			if _, seen := gross[key]; !seen {
				keys = append(keys, key)
			}
			gross[key] = gross[key].Add(g.Taxable).Add(g.Tax)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		ri := decimal.RequireFromString(keys[i].rate)
		rj := decimal.RequireFromString(keys[j].rate)
		if !ri.Equal(rj) {
			return ri.LessThan(rj)
		}
		return keys[i].nature < keys[j].nature
	})

	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	breakdown := make([]domain.VATBreakdown, 0, len(keys))
	for _, key := range keys {
		rate := decimal.RequireFromString(key.rate)
		groupGross := gross[key]
		var taxable, tax decimal.Decimal
		if key.nature != "" || rate.IsZero() {
			taxable = groupGross.Round(2)
			tax = decimal.Zero
		} else {
			divisor := one.Add(rate.Div(hundred))
			taxable = groupGross.DivRound(divisor, 2)
			tax = groupGross.Round(2).Sub(taxable)
		}
		breakdown = append(breakdown, domain.VATBreakdown{
			VATRate:         rate,
			ExemptionNature: key.nature,
			Taxable:         taxable,
			Tax:             tax,
		})
	}

	return domain.DailyReport{
		VATNumber:     j.VATNumber,
		DeviceID:      j.DeviceID,
		ReferenceDate: j.ReferenceDate,
		DocumentCount: int64(len(receipts)),
		TotalAmount:   total.Round(2),
		VATBreakdown:  breakdown,
	}
}
