package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	"github.com/luminapos/corrispettivi/internal/models"
	"github.com/luminapos/corrispettivi/internal/utils/mapping"
)

type PgxDailyReportRepository struct {
	BaseRepository
}

// newPgxDailyReportRepository creates a new repository for daily reports.
func newPgxDailyReportRepository(pool *pgxpool.Pool) portsrepo.DailyReportRepositoryFacade {
	return &PgxDailyReportRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.DailyReportRepositoryFacade = (*PgxDailyReportRepository)(nil)

// UpsertReport persists the report atomically on its natural key. The
// ON CONFLICT clause is what gives concurrent re-ingestion of the same
// journal at-most-one-report semantics: both writers land on one row.
func (r *PgxDailyReportRepository) UpsertReport(ctx context.Context, report domain.DailyReport) error {
	m, err := mapping.ToModelDailyReport(report)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO daily_reports (vat_number, device_id, reference_date, document_count, total_amount, vat_breakdown, outcome, outcome_detail, transmitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (vat_number, device_id, reference_date) DO UPDATE SET
			document_count = EXCLUDED.document_count,
			total_amount = EXCLUDED.total_amount,
			vat_breakdown = EXCLUDED.vat_breakdown,
			transmitted_at = COALESCE(EXCLUDED.transmitted_at, daily_reports.transmitted_at);
	`

	_, err = r.Pool.Exec(ctx, query,
		m.VATNumber,
		m.DeviceID,
		m.ReferenceDate,
		m.DocumentCount,
		m.TotalAmount,
		m.VATBreakdown,
		m.Outcome,
		m.OutcomeDetail,
		m.TransmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily report %s: %w", report.Key(), err)
	}
	return nil
}

// UpdateOutcome attaches a transmission outcome to an existing report.
func (r *PgxDailyReportRepository) UpdateOutcome(ctx context.Context, key domain.ReportKey, outcome domain.ReportOutcome, detail string, recordedAt time.Time) error {
	query := `
		UPDATE daily_reports
		SET outcome = $4, outcome_detail = $5, outcome_recorded_at = $6
		WHERE vat_number = $1 AND device_id = $2 AND reference_date = $3;
	`
	tag, err := r.Pool.Exec(ctx, query,
		key.VATNumber,
		key.DeviceID,
		key.ReferenceDate,
		string(outcome),
		detail,
		recordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update outcome for %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no daily report for %s", apperrors.ErrNotFound, key)
	}
	return nil
}

// FindReport retrieves the report stored for one natural key.
func (r *PgxDailyReportRepository) FindReport(ctx context.Context, key domain.ReportKey) (*domain.DailyReport, error) {
	query := `
		SELECT vat_number, device_id, reference_date, document_count, total_amount, vat_breakdown, outcome, outcome_detail, transmitted_at
		FROM daily_reports
		WHERE vat_number = $1 AND device_id = $2 AND reference_date = $3;
	`
	var m models.DailyReport
	err := r.Pool.QueryRow(ctx, query, key.VATNumber, key.DeviceID, key.ReferenceDate).Scan(
		&m.VATNumber,
		&m.DeviceID,
		&m.ReferenceDate,
		&m.DocumentCount,
		&m.TotalAmount,
		&m.VATBreakdown,
		&m.Outcome,
		&m.OutcomeDetail,
		&m.TransmittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find daily report %s: %w", key, err)
	}

	d, err := mapping.ToDomainDailyReport(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
