package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	"github.com/luminapos/corrispettivi/internal/utils/mapping"
)

type PgxAnomalyRepository struct {
	BaseRepository
}

// newPgxAnomalyRepository creates a new repository for anomaly records.
func newPgxAnomalyRepository(pool *pgxpool.Pool) portsrepo.AnomalyWriter {
	return &PgxAnomalyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.AnomalyWriter = (*PgxAnomalyRepository)(nil)

// SaveAnomaly persists one anomaly record. Append-only: anomalies are
// never updated or deleted.
func (r *PgxAnomalyRepository) SaveAnomaly(ctx context.Context, a domain.Anomaly) error {
	m := mapping.ToModelAnomaly(a)

	query := `
		INSERT INTO anomalies (anomaly_id, device_id, kind, detail, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.AnomalyID,
		m.DeviceID,
		m.Kind,
		m.Detail,
		m.Payload,
		m.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save anomaly %s: %w", m.AnomalyID, err)
	}
	return nil
}
