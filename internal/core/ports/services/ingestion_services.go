package services

import (
	"context"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// ReceiptAck acknowledges an ingested receipt.
type ReceiptAck struct {
	MessageID  string
	ReceivedAt time.Time
}

// JournalAckStatus tells the device how its journal was classified.
type JournalAckStatus string

const (
	JournalAckVerified  JournalAckStatus = "VERIFIED"
	JournalAckAnomalous JournalAckStatus = "ANOMALOUS"
)

// JournalAck acknowledges an ingested journal. An anomalous journal is
// still acknowledged: it was persisted for forensic purposes.
type JournalAck struct {
	MessageID string
	Status    JournalAckStatus
}

// IngestionService is the PEL-side endpoint receiving data from many
// emission devices.
type IngestionService interface {
	// IssueSeed generates, persists and returns a random session seed.
	IssueSeed(ctx context.Context) (domain.SessionSeed, error)

	// IngestReceipt validates required fields, persists the receipt and
	// logs its transmission latency.
	IngestReceipt(ctx context.Context, r domain.Receipt) (ReceiptAck, error)

	// IngestJournal validates required fields, re-verifies chain
	// integrity over the received entries, persists the journal either
	// way (flagging anomalies), and triggers aggregation asynchronously.
	IngestJournal(ctx context.Context, j domain.Journal) (JournalAck, error)

	// RecordAnomaly stores a device-reported anomaly as-is.
	RecordAnomaly(ctx context.Context, a domain.Anomaly) error
}
