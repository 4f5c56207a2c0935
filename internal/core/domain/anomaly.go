package domain

import (
	"encoding/json"
	"time"
)

// AnomalyKind distinguishes device-reported anomalies from ones PEL
// detected itself during ingestion.
type AnomalyKind string

const (
	AnomalyDeviceReported AnomalyKind = "DEVICE_REPORTED"
	AnomalyIntegrity      AnomalyKind = "INTEGRITY"
)

// Anomaly is an opaque anomaly record. The payload is stored as
// received; only the envelope is interpreted.
type Anomaly struct {
	AnomalyID  string          `json:"anomalyId"`
	DeviceID   string          `json:"dispositivo"`
	Kind       AnomalyKind     `json:"kind"`
	Detail     string          `json:"detail,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RecordedAt time.Time       `json:"recordedAt"`
}

// SessionSeed is a random per-session token issued to a PEM before it
// opens a journal. Opening degrades to offline mode when PEL is
// unreachable, so the seed is best-effort.
type SessionSeed struct {
	SessionID string    `json:"sessionId"`
	Seed      string    `json:"seed"`
	IssuedAt  time.Time `json:"issuedAt"`
}
