// Command pemsim drives a simulated Point of Emission against a
// running PEL instance: it opens a session, emits a configurable
// number of receipts and seals the journal, exercising the whole
// device-side flow including offline degradation.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/pem"
	"github.com/luminapos/corrispettivi/internal/pem/client"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		pelURL   = flag.String("pel", "http://localhost:8080", "base URL of the PEL ingestion API")
		vat      = flag.String("vat", "IT01234567890", "VAT number of the merchant")
		deviceID = flag.String("device", "PEM-SIM-001", "device identifier")
		count    = flag.Int("receipts", 5, "number of receipts to emit")
		timeout  = flag.Duration("timeout", 5*time.Second, "per-request timeout towards PEL")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()

	session := pem.NewSession(pem.Config{
		VATNumber:     *vat,
		DeviceID:      *deviceID,
		ReferenceDate: time.Now().UTC(),
	}, pem.NewMemoryReceiptStore(), client.New(*pelURL, *timeout), logger)

	if err := session.Open(ctx); err != nil {
		logger.Error("Failed to open session", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if session.Offline() {
		logger.Warn("Session opened in offline mode, PEL unreachable")
	}

	for i := 0; i < *count; i++ {
		lines := sampleLines(i)
		r, err := session.EmitReceipt(ctx, lines)
		if err != nil {
			logger.Error("Failed to emit receipt", slog.Int("index", i), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Receipt emitted",
			slog.Int64("document_number", r.DocumentNumber),
			slog.String("total", r.TotalAmount.StringFixed(2)))
	}

	summary, err := session.CloseSession(ctx)
	if err != nil {
		logger.Error("Failed to close session", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Simulation finished",
		slog.Int64("total_documents", summary.TotalDocuments),
		slog.String("total_amount", summary.TotalAmount.StringFixed(2)),
		slog.Bool("journal_synced", summary.JournalSynced),
		slog.Int("unsynced_count", summary.UnsyncedCount))

	if !summary.JournalSynced || summary.UnsyncedCount > 0 {
		os.Exit(1)
	}
}

// sampleLines rotates over a few realistic line mixes so consecutive
// receipts do not all land in the same VAT group.
func sampleLines(i int) []domain.ReceiptLine {
	switch i % 3 {
	case 0:
		return []domain.ReceiptLine{
			{Description: "Caffè", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("1.20"), VATRate: decimal.NewFromInt(10)},
			{Description: "Cornetto", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("1.50"), VATRate: decimal.NewFromInt(10)},
		}
	case 1:
		return []domain.ReceiptLine{
			{Description: "Quotidiano", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("2.00"), ExemptionNature: "N2"},
			{Description: "Acqua", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("0.80"), VATRate: decimal.NewFromInt(22)},
		}
	default:
		return []domain.ReceiptLine{
			{Description: "Pranzo", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("12.50"), VATRate: decimal.NewFromInt(10)},
		}
	}
}
