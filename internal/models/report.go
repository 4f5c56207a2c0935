package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport is the database row shape of an aggregated tax
// submission. The natural key (vat_number, device_id, reference_date)
// carries a unique constraint; upserts target it.
type DailyReport struct {
	VATNumber     string          `json:"vatNumber"`
	DeviceID      string          `json:"deviceId"`
	ReferenceDate time.Time       `json:"referenceDate"`
	DocumentCount int64           `json:"documentCount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	VATBreakdown  json.RawMessage `json:"vatBreakdown"`
	Outcome       *string         `json:"outcome,omitempty"`
	OutcomeDetail *string         `json:"outcomeDetail,omitempty"`
	TransmittedAt *time.Time      `json:"transmittedAt,omitempty"`
}
