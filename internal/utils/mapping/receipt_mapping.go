package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/models"
)

// ToModelReceipt converts a domain Receipt to a model Receipt.
func ToModelReceipt(d domain.Receipt) (models.Receipt, error) {
	lines, err := json.Marshal(d.Lines)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to encode receipt lines: %w", err)
	}
	summary, err := json.Marshal(d.VATSummary)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("failed to encode receipt VAT summary: %w", err)
	}
	return models.Receipt{
		DeviceID:       d.DeviceID,
		ReferenceDate:  d.ReferenceDate,
		DocumentNumber: d.DocumentNumber,
		IssuedAt:       d.IssuedAt,
		Lines:          lines,
		VATSummary:     summary,
		TotalAmount:    d.TotalAmount,
		ContentHash:    d.ContentHash,
	}, nil
}

// ToDomainReceipt converts a model Receipt to a domain Receipt.
func ToDomainReceipt(m models.Receipt) (domain.Receipt, error) {
	var lines []domain.ReceiptLine
	if err := json.Unmarshal(m.Lines, &lines); err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to decode receipt lines: %w", err)
	}
	var summary []domain.VATSummary
	if err := json.Unmarshal(m.VATSummary, &summary); err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to decode receipt VAT summary: %w", err)
	}
	return domain.Receipt{
		DeviceID:       m.DeviceID,
		ReferenceDate:  m.ReferenceDate,
		DocumentNumber: m.DocumentNumber,
		IssuedAt:       m.IssuedAt,
		Lines:          lines,
		VATSummary:     summary,
		TotalAmount:    m.TotalAmount,
		ContentHash:    m.ContentHash,
	}, nil
}
