package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the integrity assessment of a stored journal.
type JournalStatus string

const (
	JournalVerified  JournalStatus = "VERIFIED"
	JournalAnomalous JournalStatus = "ANOMALOUS"
)

// Journal is the database row shape of an ingested device journal.
// The hash-chained entries are stored as JSONB exactly as received;
// re-verification always re-reads the full sequence.
type Journal struct {
	VATNumber      string          `json:"vatNumber"`
	DeviceID       string          `json:"deviceId"`
	ReferenceDate  time.Time       `json:"referenceDate"`
	SessionID      string          `json:"sessionId"`
	Entries        json.RawMessage `json:"entries"`
	TotalDocuments int64           `json:"totalDocuments"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         JournalStatus   `json:"status"`
	ReceivedAt     time.Time       `json:"receivedAt"`
}
