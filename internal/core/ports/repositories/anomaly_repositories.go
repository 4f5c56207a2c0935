package repositories

import (
	"context"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// AnomalyWriter records anomaly envelopes, both device-reported and
// the ones ingestion detects itself.
type AnomalyWriter interface {
	SaveAnomaly(ctx context.Context, a domain.Anomaly) error
}

// SeedWriter persists issued session seeds.
type SeedWriter interface {
	SaveSeed(ctx context.Context, s domain.SessionSeed) error
}
