package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	"github.com/luminapos/corrispettivi/internal/models"
	"github.com/luminapos/corrispettivi/internal/utils/mapping"
)

type PgxReceiptRepository struct {
	BaseRepository
}

// newPgxReceiptRepository creates a new repository for ingested receipts.
func newPgxReceiptRepository(pool *pgxpool.Pool) portsrepo.ReceiptRepositoryFacade {
	return &PgxReceiptRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ReceiptRepositoryFacade = (*PgxReceiptRepository)(nil)

const receiptColumns = `device_id, reference_date, document_number, issued_at, lines, vat_summary, total_amount, content_hash`

// SaveReceipt inserts a receipt; re-ingestion of the same natural key
// replaces the stored copy.
func (r *PgxReceiptRepository) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	m, err := mapping.ToModelReceipt(receipt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO receipts (device_id, reference_date, document_number, issued_at, lines, vat_summary, total_amount, content_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (device_id, reference_date, document_number) DO UPDATE SET
			issued_at = EXCLUDED.issued_at,
			lines = EXCLUDED.lines,
			vat_summary = EXCLUDED.vat_summary,
			total_amount = EXCLUDED.total_amount,
			content_hash = EXCLUDED.content_hash;
	`

	_, err = r.Pool.Exec(ctx, query,
		m.DeviceID,
		m.ReferenceDate,
		m.DocumentNumber,
		m.IssuedAt,
		m.Lines,
		m.VATSummary,
		m.TotalAmount,
		m.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt %s/%d: %w", m.DeviceID, m.DocumentNumber, err)
	}
	return nil
}

// FindReceiptsByDeviceAndDate retrieves every receipt of one session,
// ordered by document number.
func (r *PgxReceiptRepository) FindReceiptsByDeviceAndDate(ctx context.Context, deviceID string, referenceDate time.Time) ([]domain.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE device_id = $1 AND reference_date = $2
		ORDER BY document_number;
	`
	rows, err := r.Pool.Query(ctx, query, deviceID, referenceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts for %s: %w", deviceID, err)
	}
	defer rows.Close()

	return collectReceipts(rows)
}

// FindReceiptsByContentHashes resolves receipts by exact content hash.
func (r *PgxReceiptRepository) FindReceiptsByContentHashes(ctx context.Context, hashes []string) ([]domain.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE content_hash = ANY($1)
		ORDER BY device_id, document_number;
	`
	rows, err := r.Pool.Query(ctx, query, hashes)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts by content hash: %w", err)
	}
	defer rows.Close()

	return collectReceipts(rows)
}

// FindReceiptsByDateRange retrieves a device's receipts across a date range.
func (r *PgxReceiptRepository) FindReceiptsByDateRange(ctx context.Context, deviceID string, from, to time.Time) ([]domain.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE device_id = $1 AND reference_date BETWEEN $2 AND $3
		ORDER BY reference_date, document_number;
	`
	rows, err := r.Pool.Query(ctx, query, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts for %s in range: %w", deviceID, err)
	}
	defer rows.Close()

	return collectReceipts(rows)
}

func collectReceipts(rows pgx.Rows) ([]domain.Receipt, error) {
	modelReceipts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Receipt, error) {
		var m models.Receipt
		err := row.Scan(
			&m.DeviceID,
			&m.ReferenceDate,
			&m.DocumentNumber,
			&m.IssuedAt,
			&m.Lines,
			&m.VATSummary,
			&m.TotalAmount,
			&m.ContentHash,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan receipt rows: %w", err)
	}

	receipts := make([]domain.Receipt, 0, len(modelReceipts))
	for _, m := range modelReceipts {
		d, err := mapping.ToDomainReceipt(m)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, d)
	}
	return receipts, nil
}
