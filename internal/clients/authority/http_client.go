// Package authority is the HTTP implementation of the outbound
// tax-authority channel. The real service fronts a SOAP/SFTP pipeline;
// this client only speaks its JSON submission gateway and treats
// everything behind it as opaque.
package authority

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/core/ports/clients"
)

// outcomeResponse is the gateway's verdict envelope.
type outcomeResponse struct {
	Esito        string    `json:"esito"`
	Dettaglio    string    `json:"dettaglio,omitempty"`
	RegistratoIl time.Time `json:"registratoIl"`
}

// HTTPClient submits daily reports to the authority gateway.
type HTTPClient struct {
	http *resty.Client
}

var _ clients.AuthorityClient = (*HTTPClient)(nil)

// New creates a client for the given gateway base URL with a
// per-request timeout.
func New(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// SendReport transmits a daily report. A 200 with a verdict body is a
// synchronous outcome; a 202 means the verdict is deferred and will be
// available through QueryOutcome later.
func (c *HTTPClient) SendReport(ctx context.Context, report domain.DailyReport) (*domain.TransmissionOutcome, error) {
	var out outcomeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(report).
		SetResult(&out).
		Post("/api/v1/corrispettivi")
	if err != nil {
		return nil, fmt.Errorf("%w: report submission: %v", apperrors.ErrTransport, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &domain.TransmissionOutcome{
			Key:        report.Key(),
			Outcome:    domain.ReportOutcome(out.Esito),
			Detail:     out.Dettaglio,
			RecordedAt: out.RegistratoIl,
		}, nil
	case http.StatusAccepted:
		// Accepted, verdict deferred.
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: report submission returned %d", apperrors.ErrTransport, resp.StatusCode())
	}
}

// QueryOutcome polls for the delayed verdict of a submitted report.
func (c *HTTPClient) QueryOutcome(ctx context.Context, key domain.ReportKey) (*domain.TransmissionOutcome, error) {
	var out outcomeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"partitaIVA":      key.VATNumber,
			"dispositivo":     key.DeviceID,
			"dataRiferimento": key.ReferenceDate.UTC().Format("2006-01-02"),
		}).
		SetResult(&out).
		Get("/api/v1/corrispettivi/esito")
	if err != nil {
		return nil, fmt.Errorf("%w: outcome query: %v", apperrors.ErrTransport, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &domain.TransmissionOutcome{
			Key:        key,
			Outcome:    domain.ReportOutcome(out.Esito),
			Detail:     out.Dettaglio,
			RecordedAt: out.RegistratoIl,
		}, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: no outcome yet for %s", apperrors.ErrNotFound, key)
	default:
		return nil, fmt.Errorf("%w: outcome query returned %d", apperrors.ErrTransport, resp.StatusCode())
	}
}
