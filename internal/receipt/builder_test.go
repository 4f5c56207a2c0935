package receipt

import (
	"testing"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestBuilder() *Builder {
	return NewBuilder("DEV-001", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
}

func TestBuildAssignsMonotonicDocumentNumbers(t *testing.T) {
	b := newTestBuilder()
	lines := []domain.ReceiptLine{
		{Description: "caffè", Quantity: dec("1"), UnitPrice: dec("1.10"), VATRate: dec("10")},
	}

	first, err := b.Build(lines)
	require.NoError(t, err)
	second, err := b.Build(lines)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.DocumentNumber)
	assert.Equal(t, int64(2), second.DocumentNumber)
	assert.Equal(t, int64(3), b.NextDocumentNumber())
}

func TestBuildVATScorporo(t *testing.T) {
	// 2×€2.50 at 10%: gross 5.00, taxable 4.55, tax 0.45.
	b := newTestBuilder()
	r, err := b.Build([]domain.ReceiptLine{
		{Description: "brioche", Quantity: dec("2"), UnitPrice: dec("2.50"), VATRate: dec("10")},
	})
	require.NoError(t, err)

	assert.True(t, r.TotalAmount.Equal(dec("5.00")), "total is %s", r.TotalAmount)
	require.Len(t, r.VATSummary, 1)
	assert.True(t, r.VATSummary[0].Taxable.Equal(dec("4.55")), "taxable is %s", r.VATSummary[0].Taxable)
	assert.True(t, r.VATSummary[0].Tax.Equal(dec("0.45")), "tax is %s", r.VATSummary[0].Tax)
	assert.NotEmpty(t, r.ContentHash)
}

func TestBuildGroupLevelRounding(t *testing.T) {
	// Three lines of €0.37 at 22%: per-line scorporo would accumulate
	// drift; grouping first must reconcile exactly with the total.
	b := newTestBuilder()
	line := domain.ReceiptLine{Description: "x", Quantity: dec("1"), UnitPrice: dec("0.37"), VATRate: dec("22")}
	r, err := b.Build([]domain.ReceiptLine{line, line, line})
	require.NoError(t, err)

	require.Len(t, r.VATSummary, 1)
	sum := r.VATSummary[0].Taxable.Add(r.VATSummary[0].Tax)
	assert.True(t, sum.Equal(r.TotalAmount), "taxable+tax %s != total %s", sum, r.TotalAmount)
}

func TestBuildGroupsByRateAndNature(t *testing.T) {
	b := newTestBuilder()
	r, err := b.Build([]domain.ReceiptLine{
		{Description: "pane", Quantity: dec("1"), UnitPrice: dec("4.40"), VATRate: dec("4")},
		{Description: "vino", Quantity: dec("1"), UnitPrice: dec("12.20"), VATRate: dec("22")},
		{Description: "grissini", Quantity: dec("2"), UnitPrice: dec("2.20"), VATRate: dec("4")},
		{Description: "francobolli", Quantity: dec("1"), UnitPrice: dec("2.40"), VATRate: dec("0"), ExemptionNature: "N2"},
	})
	require.NoError(t, err)

	require.Len(t, r.VATSummary, 3)
	// Sorted ascending by rate, exempt group first.
	assert.Equal(t, "N2", r.VATSummary[0].ExemptionNature)
	assert.True(t, r.VATSummary[0].Tax.IsZero())
	assert.True(t, r.VATSummary[0].Taxable.Equal(dec("2.40")))
	assert.True(t, r.VATSummary[1].VATRate.Equal(dec("4")))
	assert.True(t, r.VATSummary[2].VATRate.Equal(dec("22")))

	// Invariant: totalAmount == Σ(taxable+tax) within a cent.
	reconciled := decimal.Zero
	for _, g := range r.VATSummary {
		reconciled = reconciled.Add(g.Taxable).Add(g.Tax)
	}
	assert.True(t, reconciled.Sub(r.TotalAmount).Abs().LessThanOrEqual(dec("0.01")),
		"reconciled %s vs total %s", reconciled, r.TotalAmount)
}

func TestBuildValidation(t *testing.T) {
	b := newTestBuilder()

	_, err := b.Build(nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = b.Build([]domain.ReceiptLine{
		{Description: "reso", Quantity: dec("1"), UnitPrice: dec("-2.00"), VATRate: dec("22")},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = b.Build([]domain.ReceiptLine{
		{Description: "niente", Quantity: dec("0"), UnitPrice: dec("2.00"), VATRate: dec("22")},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// A failed build must not consume the document number.
	assert.Equal(t, int64(1), b.NextDocumentNumber())
}

func TestContentHashIsStableAndExcludesItself(t *testing.T) {
	b := newTestBuilder()
	r, err := b.Build([]domain.ReceiptLine{
		{Description: "caffè", Quantity: dec("1"), UnitPrice: dec("1.10"), VATRate: dec("10")},
	})
	require.NoError(t, err)

	again, err := ContentHash(r)
	require.NoError(t, err)
	assert.Equal(t, r.ContentHash, again)

	tampered := r
	tampered.TotalAmount = dec("99.00")
	changed, err := ContentHash(tampered)
	require.NoError(t, err)
	assert.NotEqual(t, r.ContentHash, changed)
}
