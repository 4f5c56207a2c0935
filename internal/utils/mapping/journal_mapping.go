package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/models"
)

// ToModelJournal converts a domain Journal to a model Journal.
func ToModelJournal(d domain.Journal) (models.Journal, error) {
	entries, err := json.Marshal(d.Entries)
	if err != nil {
		return models.Journal{}, fmt.Errorf("failed to encode journal entries: %w", err)
	}
	return models.Journal{
		VATNumber:      d.VATNumber,
		DeviceID:       d.DeviceID,
		ReferenceDate:  d.ReferenceDate,
		SessionID:      d.SessionID,
		Entries:        entries,
		TotalDocuments: d.TotalDocuments,
		TotalAmount:    d.TotalAmount,
		Status:         models.JournalStatus(d.Status),
		ReceivedAt:     d.ReceivedAt,
	}, nil
}

// ToDomainJournal converts a model Journal to a domain Journal.
func ToDomainJournal(m models.Journal) (domain.Journal, error) {
	var entries []domain.JournalEntry
	if err := json.Unmarshal(m.Entries, &entries); err != nil {
		return domain.Journal{}, fmt.Errorf("failed to decode journal entries: %w", err)
	}
	return domain.Journal{
		VATNumber:      m.VATNumber,
		DeviceID:       m.DeviceID,
		ReferenceDate:  m.ReferenceDate,
		SessionID:      m.SessionID,
		Entries:        entries,
		TotalDocuments: m.TotalDocuments,
		TotalAmount:    m.TotalAmount,
		Status:         domain.JournalStatus(m.Status),
		ReceivedAt:     m.ReceivedAt,
	}, nil
}
