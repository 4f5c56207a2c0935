package pem

import (
	"context"
	"sort"
	"sync"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// TransmissionClient is the PEM→PEL request/response channel. Every
// call carries an explicit timeout through its context; transport
// failures wrap apperrors.ErrTransport and are never fatal to
// emission.
type TransmissionClient interface {
	FetchSeed(ctx context.Context) (domain.SessionSeed, error)
	PushReceipt(ctx context.Context, r domain.Receipt) error
	PushJournal(ctx context.Context, j domain.Journal) error
	PushAnomaly(ctx context.Context, a domain.Anomaly) error
}

// ReceiptStore is the device-local receipt persistence. A receipt that
// cannot be stored locally must not be reported as emitted, so store
// failures propagate out of EmitReceipt.
type ReceiptStore interface {
	SaveReceipt(ctx context.Context, r domain.Receipt) error
	ListReceipts(ctx context.Context) ([]domain.Receipt, error)
}

// MemoryReceiptStore is an in-memory ReceiptStore keyed by document
// number.
type MemoryReceiptStore struct {
	mu       sync.Mutex
	receipts map[int64]domain.Receipt
}

// NewMemoryReceiptStore creates an empty in-memory store.
func NewMemoryReceiptStore() *MemoryReceiptStore {
	return &MemoryReceiptStore{receipts: make(map[int64]domain.Receipt)}
}

var _ ReceiptStore = (*MemoryReceiptStore)(nil)

func (s *MemoryReceiptStore) SaveReceipt(_ context.Context, r domain.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[r.DocumentNumber] = r
	return nil
}

func (s *MemoryReceiptStore) ListReceipts(_ context.Context) ([]domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentNumber < out[j].DocumentNumber })
	return out, nil
}
