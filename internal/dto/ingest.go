package dto

import (
	"encoding/json"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// SeedResponse is the body of GET /session-seed.
type SeedResponse struct {
	SessionID string `json:"sessionId"`
	Seed      string `json:"seed"`
}

// ReceiptLineRequest is one sale line on the wire.
type ReceiptLineRequest struct {
	Descrizione    string          `json:"descrizione" binding:"required"`
	Quantita       decimal.Decimal `json:"quantita" binding:"required"`
	PrezzoUnitario decimal.Decimal `json:"prezzoUnitario"`
	AliquotaIVA    decimal.Decimal `json:"aliquotaIVA"`
	Natura         string          `json:"natura,omitempty"`
	Importo        decimal.Decimal `json:"importo"`
}

// VATSummaryRequest is one VAT group on the wire.
type VATSummaryRequest struct {
	AliquotaIVA decimal.Decimal `json:"aliquotaIVA"`
	Natura      string          `json:"natura,omitempty"`
	Imponibile  decimal.Decimal `json:"imponibile"`
	Imposta     decimal.Decimal `json:"imposta"`
}

// ReceiptRequest is the body of POST /document.
type ReceiptRequest struct {
	Dispositivo      string               `json:"dispositivo" binding:"required"`
	DataRiferimento  string               `json:"dataRiferimento" binding:"required,datetime=2006-01-02"`
	NumeroDocumento  int64                `json:"numeroDocumento" binding:"required,gt=0"`
	DataOraEmissione time.Time            `json:"dataOraEmissione" binding:"required"`
	Righe            []ReceiptLineRequest `json:"righe" binding:"required,min=1,dive"`
	RiepilogoIVA     []VATSummaryRequest  `json:"riepilogoIVA" binding:"required,min=1,dive"`
	ImportoTotale    decimal.Decimal      `json:"importoTotale" binding:"required"`
	HashContenuto    string               `json:"hashContenuto" binding:"required"`
}

// ToDomain maps the wire receipt into the domain model.
func (r ReceiptRequest) ToDomain() (domain.Receipt, error) {
	refDate, err := time.Parse(dateLayout, r.DataRiferimento)
	if err != nil {
		return domain.Receipt{}, err
	}
	lines := make([]domain.ReceiptLine, len(r.Righe))
	for i, l := range r.Righe {
		lines[i] = domain.ReceiptLine{
			Description:     l.Descrizione,
			Quantity:        l.Quantita,
			UnitPrice:       l.PrezzoUnitario,
			VATRate:         l.AliquotaIVA,
			ExemptionNature: l.Natura,
			LineTotal:       l.Importo,
		}
	}
	summary := make([]domain.VATSummary, len(r.RiepilogoIVA))
	for i, g := range r.RiepilogoIVA {
		summary[i] = domain.VATSummary{
			VATRate:         g.AliquotaIVA,
			ExemptionNature: g.Natura,
			Taxable:         g.Imponibile,
			Tax:             g.Imposta,
		}
	}
	return domain.Receipt{
		DeviceID:       r.Dispositivo,
		ReferenceDate:  refDate.UTC(),
		DocumentNumber: r.NumeroDocumento,
		IssuedAt:       r.DataOraEmissione,
		Lines:          lines,
		VATSummary:     summary,
		TotalAmount:    r.ImportoTotale,
		ContentHash:    r.HashContenuto,
	}, nil
}

// ReceiptRequestFromDomain maps a domain receipt onto the wire shape
// (used by the PEM-side transmission client).
func ReceiptRequestFromDomain(r domain.Receipt) ReceiptRequest {
	lines := make([]ReceiptLineRequest, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = ReceiptLineRequest{
			Descrizione:    l.Description,
			Quantita:       l.Quantity,
			PrezzoUnitario: l.UnitPrice,
			AliquotaIVA:    l.VATRate,
			Natura:         l.ExemptionNature,
			Importo:        l.LineTotal,
		}
	}
	summary := make([]VATSummaryRequest, len(r.VATSummary))
	for i, g := range r.VATSummary {
		summary[i] = VATSummaryRequest{
			AliquotaIVA: g.VATRate,
			Natura:      g.ExemptionNature,
			Imponibile:  g.Taxable,
			Imposta:     g.Tax,
		}
	}
	return ReceiptRequest{
		Dispositivo:      r.DeviceID,
		DataRiferimento:  r.ReferenceDate.UTC().Format(dateLayout),
		NumeroDocumento:  r.DocumentNumber,
		DataOraEmissione: r.IssuedAt,
		Righe:            lines,
		RiepilogoIVA:     summary,
		ImportoTotale:    r.TotalAmount,
		HashContenuto:    r.ContentHash,
	}
}

// ReceiptResponse is the body returned for an accepted receipt.
type ReceiptResponse struct {
	MessageID  string    `json:"messageId"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// JournalRequest is the body of POST /journal. Entries keep their own
// wire envelope (see domain.JournalEntry).
type JournalRequest struct {
	PartitaIVA              string                `json:"partitaIVA" binding:"required"`
	Dispositivo             string                `json:"dispositivo" binding:"required"`
	DataRiferimento         string                `json:"dataRiferimento" binding:"required,datetime=2006-01-02"`
	Sessione                string                `json:"sessione,omitempty"`
	Registrazioni           []domain.JournalEntry `json:"registrazioni" binding:"required,min=1"`
	NumeroDocumentiGiornata int64                 `json:"numeroDocumentiGiornata"`
	ImportoTotaleGiornata   decimal.Decimal       `json:"importoTotaleGiornata"`
}

// ToDomain maps the wire journal into the domain model.
func (j JournalRequest) ToDomain() (domain.Journal, error) {
	refDate, err := time.Parse(dateLayout, j.DataRiferimento)
	if err != nil {
		return domain.Journal{}, err
	}
	return domain.Journal{
		VATNumber:      j.PartitaIVA,
		DeviceID:       j.Dispositivo,
		ReferenceDate:  refDate.UTC(),
		SessionID:      j.Sessione,
		Entries:        j.Registrazioni,
		TotalDocuments: j.NumeroDocumentiGiornata,
		TotalAmount:    j.ImportoTotaleGiornata,
	}, nil
}

// JournalRequestFromDomain maps a sealed domain journal onto the wire.
func JournalRequestFromDomain(j domain.Journal) JournalRequest {
	return JournalRequest{
		PartitaIVA:              j.VATNumber,
		Dispositivo:             j.DeviceID,
		DataRiferimento:         j.ReferenceDate.UTC().Format(dateLayout),
		Sessione:                j.SessionID,
		Registrazioni:           j.Entries,
		NumeroDocumentiGiornata: j.TotalDocuments,
		ImportoTotaleGiornata:   j.TotalAmount,
	}
}

// JournalResponse is the body returned for an ingested journal.
type JournalResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// AnomalyRequest is the body of POST /anomaly; the payload is opaque.
type AnomalyRequest struct {
	Dispositivo string          `json:"dispositivo" binding:"required"`
	Dettaglio   string          `json:"dettaglio,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// AnomalyResponse acknowledges a recorded anomaly.
type AnomalyResponse struct {
	Status string `json:"status"`
}
