package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus reflects the PEL-side integrity assessment of an
// ingested journal. An anomalous journal is still persisted for
// forensic purposes, it is only flagged.
type JournalStatus string

const (
	JournalVerified  JournalStatus = "VERIFIED"
	JournalAnomalous JournalStatus = "ANOMALOUS"
)

// Journal is the sealed, exported hash-chained log of one emission
// device's session. PEM produces it; PEL persists a copy keyed by
// (vatNumber, deviceID, referenceDate).
type Journal struct {
	VATNumber      string          `json:"partitaIVA"`
	DeviceID       string          `json:"dispositivo"`
	ReferenceDate  time.Time       `json:"dataRiferimento"`
	SessionID      string          `json:"sessione,omitempty"`
	Entries        []JournalEntry  `json:"registrazioni"`
	TotalDocuments int64           `json:"numeroDocumentiGiornata"`
	TotalAmount    decimal.Decimal `json:"importoTotaleGiornata"`
	Status         JournalStatus   `json:"stato,omitempty"`
	ReceivedAt     time.Time       `json:"ricevutoIl,omitempty"`
}

// SumEntryAmounts totals the amounts carried by the journal's DOCUMENT
// entries. Used by ingestion to cross-check the declared session total.
func (j Journal) SumEntryAmounts() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range j.Entries {
		sum = sum.Add(e.Amount())
	}
	return sum
}
