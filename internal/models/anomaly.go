package models

import (
	"encoding/json"
	"time"
)

// Anomaly is the database row shape of an anomaly record. The payload
// is stored verbatim.
type Anomaly struct {
	AnomalyID  string          `json:"anomalyId"`
	DeviceID   string          `json:"deviceId"`
	Kind       string          `json:"kind"`
	Detail     string          `json:"detail"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// SessionSeed is the database row shape of an issued session seed.
type SessionSeed struct {
	SessionID string    `json:"sessionId"`
	Seed      string    `json:"seed"`
	IssuedAt  time.Time `json:"issuedAt"`
}
