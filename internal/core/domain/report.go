package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportOutcome is the authority's verdict on a transmitted daily
// report. Empty until an outcome is recorded.
type ReportOutcome string

const (
	OutcomeAccepted   ReportOutcome = "ACCEPTED"
	OutcomeRejected   ReportOutcome = "REJECTED"
	OutcomeUnresolved ReportOutcome = "UNRESOLVED" // polling gave up; surfaced, not discarded
)

// VATBreakdown is one VAT-rate (or exemption-nature) group aggregated
// across every receipt of a sealed journal's session.
type VATBreakdown struct {
	VATRate         decimal.Decimal `json:"aliquotaIVA"`
	ExemptionNature string          `json:"natura,omitempty"`
	Taxable         decimal.Decimal `json:"imponibile"`
	Tax             decimal.Decimal `json:"imposta"`
}

// ReportKey is the natural key of a daily report: at most one report
// may exist per key, no matter how often its journal is re-ingested.
type ReportKey struct {
	VATNumber     string
	DeviceID      string
	ReferenceDate time.Time
}

func (k ReportKey) String() string {
	return k.VATNumber + "/" + k.DeviceID + "/" + k.ReferenceDate.UTC().Format("2006-01-02")
}

// DailyReport is the aggregated tax submission derived from all
// receipts belonging to one sealed journal.
type DailyReport struct {
	VATNumber     string          `json:"partitaIVA"`
	DeviceID      string          `json:"dispositivo"`
	ReferenceDate time.Time       `json:"dataRiferimento"`
	DocumentCount int64           `json:"numeroDocumenti"`
	TotalAmount   decimal.Decimal `json:"importoTotale"`
	VATBreakdown  []VATBreakdown  `json:"riepilogoIVA"`
	Outcome       ReportOutcome   `json:"esito,omitempty"`
	OutcomeDetail string          `json:"esitoDettaglio,omitempty"`
	TransmittedAt *time.Time      `json:"trasmessoIl,omitempty"`
}

// Key returns the report's natural key.
func (r DailyReport) Key() ReportKey {
	return ReportKey{VATNumber: r.VATNumber, DeviceID: r.DeviceID, ReferenceDate: r.ReferenceDate}
}

// TransmissionOutcome is a delayed authority outcome as recorded
// against a previously submitted daily report.
type TransmissionOutcome struct {
	Key        ReportKey
	Outcome    ReportOutcome
	Detail     string
	RecordedAt time.Time
}
