package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/models"
)

// ToModelAuditJob converts a domain AuditJob to a model AuditJob.
func ToModelAuditJob(d domain.AuditJob) (models.AuditJob, error) {
	query, err := json.Marshal(d.Query)
	if err != nil {
		return models.AuditJob{}, fmt.Errorf("failed to encode audit query: %w", err)
	}
	return models.AuditJob{
		JobID:         d.JobID,
		Kind:          string(d.Kind),
		Status:        string(d.Status),
		Query:         query,
		ArtifactNames: d.ArtifactNames,
		CreatedAt:     d.CreatedAt,
		CompletedAt:   d.CompletedAt,
	}, nil
}

// ToDomainAuditJob converts a model AuditJob to a domain AuditJob.
func ToDomainAuditJob(m models.AuditJob) (domain.AuditJob, error) {
	var query domain.AuditQuery
	if err := json.Unmarshal(m.Query, &query); err != nil {
		return domain.AuditJob{}, fmt.Errorf("failed to decode audit query: %w", err)
	}
	return domain.AuditJob{
		JobID:         m.JobID,
		Kind:          domain.AuditJobKind(m.Kind),
		Status:        domain.AuditJobStatus(m.Status),
		Query:         query,
		ArtifactNames: m.ArtifactNames,
		CreatedAt:     m.CreatedAt,
		CompletedAt:   m.CompletedAt,
	}, nil
}

// ToModelAnomaly converts a domain Anomaly to a model Anomaly.
func ToModelAnomaly(d domain.Anomaly) models.Anomaly {
	return models.Anomaly{
		AnomalyID:  d.AnomalyID,
		DeviceID:   d.DeviceID,
		Kind:       string(d.Kind),
		Detail:     d.Detail,
		Payload:    d.Payload,
		RecordedAt: d.RecordedAt,
	}
}

// ToModelSessionSeed converts a domain SessionSeed to a model SessionSeed.
func ToModelSessionSeed(d domain.SessionSeed) models.SessionSeed {
	return models.SessionSeed{
		SessionID: d.SessionID,
		Seed:      d.Seed,
		IssuedAt:  d.IssuedAt,
	}
}
