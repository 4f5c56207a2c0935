// Package client is the HTTP implementation of the PEM→PEL
// transmission channel. Every call fails fast on its configured
// timeout; a timed-out push is indistinguishable from a failed one for
// the caller.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/dto"
	"github.com/luminapos/corrispettivi/internal/pem"
)

// HTTPClient talks to the PEL ingestion surface over HTTP.
type HTTPClient struct {
	http *resty.Client
}

var _ pem.TransmissionClient = (*HTTPClient)(nil)

// New creates a client for the given PEL base URL with a per-request
// timeout.
func New(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// FetchSeed requests a session seed.
func (c *HTTPClient) FetchSeed(ctx context.Context) (domain.SessionSeed, error) {
	var out dto.SeedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/v1/session-seed")
	if err != nil {
		return domain.SessionSeed{}, fmt.Errorf("%w: seed fetch: %v", apperrors.ErrTransport, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.SessionSeed{}, fmt.Errorf("%w: seed fetch returned %d", apperrors.ErrTransport, resp.StatusCode())
	}
	return domain.SessionSeed{SessionID: out.SessionID, Seed: out.Seed}, nil
}

// PushReceipt transmits one receipt in real time.
func (c *HTTPClient) PushReceipt(ctx context.Context, r domain.Receipt) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(dto.ReceiptRequestFromDomain(r)).
		Post("/api/v1/document")
	if err != nil {
		return fmt.Errorf("%w: receipt push: %v", apperrors.ErrTransport, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusBadRequest:
		return fmt.Errorf("%w: receipt rejected: %s", apperrors.ErrValidation, resp.String())
	default:
		return fmt.Errorf("%w: receipt push returned %d", apperrors.ErrTransport, resp.StatusCode())
	}
}

// PushJournal transmits the sealed journal.
func (c *HTTPClient) PushJournal(ctx context.Context, j domain.Journal) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(dto.JournalRequestFromDomain(j)).
		Post("/api/v1/journal")
	if err != nil {
		return fmt.Errorf("%w: journal push: %v", apperrors.ErrTransport, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return fmt.Errorf("%w: journal rejected: %s", apperrors.ErrValidation, resp.String())
	default:
		return fmt.Errorf("%w: journal push returned %d", apperrors.ErrTransport, resp.StatusCode())
	}
}

// PushAnomaly transmits an opaque anomaly record.
func (c *HTTPClient) PushAnomaly(ctx context.Context, a domain.Anomaly) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(dto.AnomalyRequest{
			Dispositivo: a.DeviceID,
			Dettaglio:   a.Detail,
			Payload:     a.Payload,
		}).
		Post("/api/v1/anomaly")
	if err != nil {
		return fmt.Errorf("%w: anomaly push: %v", apperrors.ErrTransport, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: anomaly push returned %d", apperrors.ErrTransport, resp.StatusCode())
	}
	return nil
}
