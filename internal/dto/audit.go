package dto

import (
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// JournalAuditRequest is the body of POST /audit/journal.
type JournalAuditRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
	DateFrom string `json:"dateFrom" binding:"required,datetime=2006-01-02"`
	DateTo   string `json:"dateTo" binding:"required,datetime=2006-01-02"`
}

// ToQuery maps the request into audit query criteria.
func (r JournalAuditRequest) ToQuery() (domain.AuditQuery, error) {
	from, err := time.Parse(dateLayout, r.DateFrom)
	if err != nil {
		return domain.AuditQuery{}, err
	}
	to, err := time.Parse(dateLayout, r.DateTo)
	if err != nil {
		return domain.AuditQuery{}, err
	}
	return domain.AuditQuery{DeviceID: r.DeviceID, DateFrom: from.UTC(), DateTo: to.UTC()}, nil
}

// DocumentAuditRequest is the body of POST /audit/document: either a
// list of exact content hashes, or device/date-range criteria.
type DocumentAuditRequest struct {
	Hashes   []string `json:"hashes,omitempty"`
	DeviceID string   `json:"deviceId,omitempty"`
	DateFrom string   `json:"dateFrom,omitempty" binding:"omitempty,datetime=2006-01-02"`
	DateTo   string   `json:"dateTo,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// ToQuery maps the request into audit query criteria.
func (r DocumentAuditRequest) ToQuery() (domain.AuditQuery, error) {
	q := domain.AuditQuery{Hashes: r.Hashes, DeviceID: r.DeviceID}
	if r.DateFrom != "" {
		from, err := time.Parse(dateLayout, r.DateFrom)
		if err != nil {
			return domain.AuditQuery{}, err
		}
		q.DateFrom = from.UTC()
	}
	if r.DateTo != "" {
		to, err := time.Parse(dateLayout, r.DateTo)
		if err != nil {
			return domain.AuditQuery{}, err
		}
		q.DateTo = to.UTC()
	}
	return q, nil
}

// AuditJobResponse returns the ID of a freshly created audit job.
type AuditJobResponse struct {
	JobID string `json:"jobId"`
}

// AuditStatusResponse is the body of the job status endpoint.
type AuditStatusResponse struct {
	Status domain.AuditJobStatus `json:"status"`
}

// AuditFilesResponse lists the artifacts of a READY job.
type AuditFilesResponse struct {
	Files []string `json:"files"`
}
