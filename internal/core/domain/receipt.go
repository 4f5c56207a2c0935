package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLine is a single sale line of a commercial document. Prices
// are VAT-inclusive; the VAT scorporo happens at the summary level.
type ReceiptLine struct {
	Description     string          `json:"descrizione"`
	Quantity        decimal.Decimal `json:"quantita"`
	UnitPrice       decimal.Decimal `json:"prezzoUnitario"`
	VATRate         decimal.Decimal `json:"aliquotaIVA"`
	ExemptionNature string          `json:"natura,omitempty"` // set instead of a rate for exempt lines (N1..N6)
	LineTotal       decimal.Decimal `json:"importo"`
}

// VATSummary is one (vatRate, exemptionNature) group of a receipt,
// with taxable and tax rounded to 2 decimals at the group level.
type VATSummary struct {
	VATRate         decimal.Decimal `json:"aliquotaIVA"`
	ExemptionNature string          `json:"natura,omitempty"`
	Taxable         decimal.Decimal `json:"imponibile"`
	Tax             decimal.Decimal `json:"imposta"`
}

// Receipt is a commercial document emitted by one PEM session.
// Immutable once issued; PEL keeps its own copy after ingestion.
type Receipt struct {
	DeviceID       string          `json:"dispositivo"`
	ReferenceDate  time.Time       `json:"dataRiferimento"`
	DocumentNumber int64           `json:"numeroDocumento"`
	IssuedAt       time.Time       `json:"dataOraEmissione"`
	Lines          []ReceiptLine   `json:"righe"`
	VATSummary     []VATSummary    `json:"riepilogoIVA"`
	TotalAmount    decimal.Decimal `json:"importoTotale"`
	ContentHash    string          `json:"hashContenuto"`
}
