package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/models"
)

// ToModelDailyReport converts a domain DailyReport to a model DailyReport.
func ToModelDailyReport(d domain.DailyReport) (models.DailyReport, error) {
	breakdown, err := json.Marshal(d.VATBreakdown)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("failed to encode VAT breakdown: %w", err)
	}
	m := models.DailyReport{
		VATNumber:     d.VATNumber,
		DeviceID:      d.DeviceID,
		ReferenceDate: d.ReferenceDate,
		DocumentCount: d.DocumentCount,
		TotalAmount:   d.TotalAmount,
		VATBreakdown:  breakdown,
		TransmittedAt: d.TransmittedAt,
	}
	if d.Outcome != "" {
		outcome := string(d.Outcome)
		m.Outcome = &outcome
	}
	if d.OutcomeDetail != "" {
		detail := d.OutcomeDetail
		m.OutcomeDetail = &detail
	}
	return m, nil
}

// ToDomainDailyReport converts a model DailyReport to a domain DailyReport.
func ToDomainDailyReport(m models.DailyReport) (domain.DailyReport, error) {
	var breakdown []domain.VATBreakdown
	if err := json.Unmarshal(m.VATBreakdown, &breakdown); err != nil {
		return domain.DailyReport{}, fmt.Errorf("failed to decode VAT breakdown: %w", err)
	}
	d := domain.DailyReport{
		VATNumber:     m.VATNumber,
		DeviceID:      m.DeviceID,
		ReferenceDate: m.ReferenceDate,
		DocumentCount: m.DocumentCount,
		TotalAmount:   m.TotalAmount,
		VATBreakdown:  breakdown,
		TransmittedAt: m.TransmittedAt,
	}
	if m.Outcome != nil {
		d.Outcome = domain.ReportOutcome(*m.Outcome)
	}
	if m.OutcomeDetail != nil {
		d.OutcomeDetail = *m.OutcomeDetail
	}
	return d, nil
}
