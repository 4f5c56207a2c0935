package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	"github.com/luminapos/corrispettivi/internal/utils/mapping"
)

type PgxSeedRepository struct {
	BaseRepository
}

// newPgxSeedRepository creates a new repository for issued session seeds.
func newPgxSeedRepository(pool *pgxpool.Pool) portsrepo.SeedWriter {
	return &PgxSeedRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.SeedWriter = (*PgxSeedRepository)(nil)

// SaveSeed persists an issued session seed.
func (r *PgxSeedRepository) SaveSeed(ctx context.Context, seed domain.SessionSeed) error {
	m := mapping.ToModelSessionSeed(seed)

	query := `
		INSERT INTO session_seeds (session_id, seed, issued_at)
		VALUES ($1, $2, $3);
	`
	_, err := r.Pool.Exec(ctx, query, m.SessionID, m.Seed, m.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: session seed %s already issued", apperrors.ErrDuplicate, m.SessionID)
		}
		return fmt.Errorf("failed to save session seed %s: %w", m.SessionID, err)
	}
	return nil
}
