// Package receipt builds commercial documents from raw sale lines,
// performing the VAT scorporo and per-group rounding required for the
// fiscal summary.
package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Builder assembles receipts for one PEM session. It owns the
// progressive document number; callers never supply one. Not safe for
// concurrent use, the session serializes emissions.
type Builder struct {
	deviceID      string
	referenceDate time.Time
	next          int64
}

// NewBuilder creates a builder whose first document number is 1.
func NewBuilder(deviceID string, referenceDate time.Time) *Builder {
	return &Builder{
		deviceID:      deviceID,
		referenceDate: referenceDate.UTC().Truncate(24 * time.Hour),
		next:          1,
	}
}

// NextDocumentNumber returns the number the next built receipt will get.
func (b *Builder) NextDocumentNumber() int64 { return b.next }

// Build validates the lines, computes per-line totals, groups them by
// (vatRate, exemptionNature) with 2-decimal rounding at the group
// level, and returns the immutable receipt. The document number is
// consumed only on success.
func (b *Builder) Build(lines []domain.ReceiptLine) (domain.Receipt, error) {
	if len(lines) == 0 {
		return domain.Receipt{}, fmt.Errorf("%w: receipt requires at least one line", apperrors.ErrValidation)
	}

	total := decimal.Zero
	type groupKey struct {
		rate   string
		nature string
	}
	gross := make(map[groupKey]decimal.Decimal)
	keys := make([]groupKey, 0, 4)

	built := make([]domain.ReceiptLine, len(lines))
	for i, line := range lines {
		if line.UnitPrice.IsNegative() {
			return domain.Receipt{}, fmt.Errorf("%w: line %d has negative unit price", apperrors.ErrValidation, i+1)
		}
		if !line.Quantity.IsPositive() {
			return domain.Receipt{}, fmt.Errorf("%w: line %d has non-positive quantity", apperrors.ErrValidation, i+1)
		}
		if line.VATRate.IsNegative() {
			return domain.Receipt{}, fmt.Errorf("%w: line %d has negative VAT rate", apperrors.ErrValidation, i+1)
		}
		if line.VATRate.IsZero() && line.ExemptionNature == "" {
			return domain.Receipt{}, fmt.Errorf("%w: line %d has zero VAT rate and no exemption nature", apperrors.ErrValidation, i+1)
		}

		line.LineTotal = line.Quantity.Mul(line.UnitPrice)
		built[i] = line
		total = total.Add(line.LineTotal)

		key := groupKey{rate: line.VATRate.String(), nature: line.ExemptionNature}
		if _, seen := gross[key]; !seen {
			keys = append(keys, key)
		}
		gross[key] = gross[key].Add(line.LineTotal)
	}

	// Stable summary order: ascending rate, then nature.
	sort.Slice(keys, func(i, j int) bool {
		ri := decimal.RequireFromString(keys[i].rate)
		rj := decimal.RequireFromString(keys[j].rate)
		if !ri.Equal(rj) {
			return ri.LessThan(rj)
		}
		return keys[i].nature < keys[j].nature
	})

	summary := make([]domain.VATSummary, 0, len(keys))
	for _, key := range keys {
		rate := decimal.RequireFromString(key.rate)
		groupGross := gross[key].Round(2)

		var taxable, tax decimal.Decimal
		if key.nature != "" {
			// Exempt group: the whole gross is taxable, no tax due.
			taxable = groupGross
			tax = decimal.Zero
		} else {
			// Scorporo: gross is VAT-inclusive. Rounding once at the
			// group level avoids cumulative per-line drift.
			divisor := decimal.NewFromInt(1).Add(rate.Div(oneHundred))
			taxable = gross[key].DivRound(divisor, 2)
			tax = groupGross.Sub(taxable)
		}
		summary = append(summary, domain.VATSummary{
			VATRate:         rate,
			ExemptionNature: key.nature,
			Taxable:         taxable,
			Tax:             tax,
		})
	}

	r := domain.Receipt{
		DeviceID:       b.deviceID,
		ReferenceDate:  b.referenceDate,
		DocumentNumber: b.next,
		IssuedAt:       time.Now().UTC(),
		Lines:          built,
		VATSummary:     summary,
		TotalAmount:    total.Round(2),
	}
	hash, err := ContentHash(r)
	if err != nil {
		return domain.Receipt{}, err
	}
	r.ContentHash = hash

	b.next++
	return r, nil
}

// ContentHash computes the SHA-256 digest of a receipt's canonical
// JSON form, with the hash field itself blanked. Document audits
// resolve receipts by this value.
func ContentHash(r domain.Receipt) (string, error) {
	r.ContentHash = ""
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize receipt: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
