package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the database row shape of a commercial document. Line
// items and the VAT summary are stored as JSONB: they are read and
// written as a whole, never queried field by field.
type Receipt struct {
	DeviceID       string          `json:"deviceId"`
	ReferenceDate  time.Time       `json:"referenceDate"`
	DocumentNumber int64           `json:"documentNumber"`
	IssuedAt       time.Time       `json:"issuedAt"`
	Lines          json.RawMessage `json:"lines"`
	VATSummary     json.RawMessage `json:"vatSummary"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	ContentHash    string          `json:"contentHash"`
}
