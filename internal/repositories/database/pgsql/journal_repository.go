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

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for ingested journals.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalColumns = `vat_number, device_id, reference_date, session_id, entries, total_documents, total_amount, status, received_at`

// SaveJournal persists a journal; re-ingestion of the same natural key
// replaces the stored copy, anomalous or not.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, j domain.Journal) error {
	m, err := mapping.ToModelJournal(j)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO journals (vat_number, device_id, reference_date, session_id, entries, total_documents, total_amount, status, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (vat_number, device_id, reference_date) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			entries = EXCLUDED.entries,
			total_documents = EXCLUDED.total_documents,
			total_amount = EXCLUDED.total_amount,
			status = EXCLUDED.status,
			received_at = EXCLUDED.received_at;
	`

	_, err = r.Pool.Exec(ctx, query,
		m.VATNumber,
		m.DeviceID,
		m.ReferenceDate,
		m.SessionID,
		m.Entries,
		m.TotalDocuments,
		m.TotalAmount,
		m.Status,
		m.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save journal %s/%s: %w", m.VATNumber, m.DeviceID, err)
	}
	return nil
}

// FindJournal retrieves the journal stored for one natural key.
func (r *PgxJournalRepository) FindJournal(ctx context.Context, vatNumber, deviceID string, referenceDate time.Time) (*domain.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals
		WHERE vat_number = $1 AND device_id = $2 AND reference_date = $3;
	`
	var m models.Journal
	err := r.Pool.QueryRow(ctx, query, vatNumber, deviceID, referenceDate).Scan(
		&m.VATNumber,
		&m.DeviceID,
		&m.ReferenceDate,
		&m.SessionID,
		&m.Entries,
		&m.TotalDocuments,
		&m.TotalAmount,
		&m.Status,
		&m.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal %s/%s: %w", vatNumber, deviceID, err)
	}

	d, err := mapping.ToDomainJournal(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListJournalsByDeviceAndRange retrieves a device's journals across a
// date range, ordered by reference date.
func (r *PgxJournalRepository) ListJournalsByDeviceAndRange(ctx context.Context, deviceID string, from, to time.Time) ([]domain.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals
		WHERE device_id = $1 AND reference_date BETWEEN $2 AND $3
		ORDER BY reference_date;
	`
	rows, err := r.Pool.Query(ctx, query, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals for %s: %w", deviceID, err)
	}
	defer rows.Close()

	modelJournals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Journal, error) {
		var m models.Journal
		err := row.Scan(
			&m.VATNumber,
			&m.DeviceID,
			&m.ReferenceDate,
			&m.SessionID,
			&m.Entries,
			&m.TotalDocuments,
			&m.TotalAmount,
			&m.Status,
			&m.ReceivedAt,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal rows: %w", err)
	}

	journals := make([]domain.Journal, 0, len(modelJournals))
	for _, m := range modelJournals {
		d, err := mapping.ToDomainJournal(m)
		if err != nil {
			return nil, err
		}
		journals = append(journals, d)
	}
	return journals, nil
}
