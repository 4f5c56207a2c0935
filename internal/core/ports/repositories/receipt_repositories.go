package repositories

import (
	"context"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// ReceiptReader defines read operations over ingested receipts.
type ReceiptReader interface {
	// FindReceiptsByDeviceAndDate retrieves every receipt persisted for one
	// (deviceID, referenceDate) session, ordered by document number.
	FindReceiptsByDeviceAndDate(ctx context.Context, deviceID string, referenceDate time.Time) ([]domain.Receipt, error)

	// FindReceiptsByContentHashes resolves receipts by exact content hash.
	// Unknown hashes are simply absent from the result.
	FindReceiptsByContentHashes(ctx context.Context, hashes []string) ([]domain.Receipt, error)

	// FindReceiptsByDateRange retrieves receipts for a device across a date
	// range, for document audits expressed as criteria.
	FindReceiptsByDateRange(ctx context.Context, deviceID string, from, to time.Time) ([]domain.Receipt, error)
}

// ReceiptWriter defines write operations over ingested receipts.
type ReceiptWriter interface {
	// SaveReceipt persists one receipt. Re-ingestion of the same
	// (deviceID, referenceDate, documentNumber) is an idempotent upsert.
	SaveReceipt(ctx context.Context, r domain.Receipt) error
}

// ReceiptRepositoryFacade combines all receipt repository capabilities.
type ReceiptRepositoryFacade interface {
	ReceiptReader
	ReceiptWriter
}
