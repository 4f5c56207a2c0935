// Package clients declares the outbound collaborator contracts the
// PEL core consumes. Transport specifics (SOAP envelopes, SFTP) live
// entirely behind these interfaces.
package clients

import (
	"context"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// AuthorityClient is the outbound tax-authority transmission channel.
type AuthorityClient interface {
	// SendReport transmits a daily report. A nil outcome with nil error
	// means the authority accepted the submission but deferred the
	// verdict; reconciliation picks it up later. Transport failures
	// wrap apperrors.ErrTransport.
	SendReport(ctx context.Context, report domain.DailyReport) (*domain.TransmissionOutcome, error)

	// QueryOutcome polls for the delayed outcome of a submitted report.
	// apperrors.ErrNotFound means no outcome has been recorded yet.
	QueryOutcome(ctx context.Context, key domain.ReportKey) (*domain.TransmissionOutcome, error)
}
