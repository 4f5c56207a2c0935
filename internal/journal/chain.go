// Package journal implements the append-only hash chain that makes a
// PEM session's fiscal log tamper-evident. Every entry is chained off
// the previous entry's hash, so deleting, reordering or altering any
// event invalidates every hash that follows it.
package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GenesisHash is the previousHash of the first entry of every chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// CloseResult summarizes a sealed session.
type CloseResult struct {
	Hash           string
	TotalDocuments int64
	TotalAmount    decimal.Decimal
}

// Chain is the mutable, strictly sequential hash chain of one session
// of one emission device. Entries are owned exclusively by the chain
// and exposed only as copies. Callers serialize access; a Chain is not
// safe for concurrent use.
type Chain struct {
	deviceID      string
	referenceDate time.Time
	sessionID     string

	entries  []domain.JournalEntry
	headHash string
	open     bool
	sealed   bool
}

// New creates an empty chain for one device session. The session ID
// is the PEL-issued seed session identifier, empty in offline mode.
func New(deviceID string, referenceDate time.Time, sessionID string) *Chain {
	return &Chain{
		deviceID:      deviceID,
		referenceDate: referenceDate.UTC().Truncate(24 * time.Hour),
		sessionID:     sessionID,
		headHash:      GenesisHash,
	}
}

// Open appends the OPEN entry and returns its hash. It fails with
// ErrState when the session is already open or already sealed.
func (c *Chain) Open() (string, error) {
	if c.open {
		return "", fmt.Errorf("%w: session already open", apperrors.ErrState)
	}
	if c.sealed {
		return "", fmt.Errorf("%w: session already closed", apperrors.ErrState)
	}
	entry := c.append(domain.OpeningPayload{
		DeviceID:      c.deviceID,
		ReferenceDate: c.referenceDate,
		SessionID:     c.sessionID,
	})
	c.open = true
	return entry.Hash, nil
}

// Append chains a DOCUMENT entry off the current head and returns its
// hash. It fails with ErrState when the session is not open.
func (c *Chain) Append(payload domain.DocumentPayload) (string, error) {
	if !c.open {
		return "", fmt.Errorf("%w: cannot append, session not open", apperrors.ErrState)
	}
	entry := c.append(payload)
	return entry.Hash, nil
}

// Close computes the session aggregates over all DOCUMENT entries,
// appends the CLOSE entry and seals the chain. It fails with ErrState
// when the session is not open.
func (c *Chain) Close() (CloseResult, error) {
	if !c.open {
		return CloseResult{}, fmt.Errorf("%w: cannot close, session not open", apperrors.ErrState)
	}

	var totalDocs int64
	total := decimal.Zero
	for _, e := range c.entries {
		if e.Type == domain.EntryDocument {
			totalDocs++
			total = total.Add(e.Amount())
		}
	}

	entry := c.append(domain.ClosingPayload{
		TotalDocuments: totalDocs,
		TotalAmount:    total,
	})
	c.open = false
	c.sealed = true

	return CloseResult{Hash: entry.Hash, TotalDocuments: totalDocs, TotalAmount: total}, nil
}

// Verify walks the chain from genesis, recomputing every hash and
// checking the linkage. It returns nil only for an intact chain.
func (c *Chain) Verify() error {
	return VerifyEntries(c.entries)
}

// Sealed reports whether the chain has been closed.
func (c *Chain) Sealed() bool { return c.sealed }

// Head returns the current head hash.
func (c *Chain) Head() string { return c.headHash }

// Entries returns a copy of the chain's entries.
func (c *Chain) Entries() []domain.JournalEntry {
	out := make([]domain.JournalEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Export assembles the sealed journal for transmission to PEL. It
// fails with ErrState when the chain has not been sealed yet.
func (c *Chain) Export(vatNumber string) (domain.Journal, error) {
	if !c.sealed {
		return domain.Journal{}, fmt.Errorf("%w: journal not sealed", apperrors.ErrState)
	}
	closing := c.entries[len(c.entries)-1].Payload.(domain.ClosingPayload)
	return domain.Journal{
		VATNumber:      vatNumber,
		DeviceID:       c.deviceID,
		ReferenceDate:  c.referenceDate,
		SessionID:      c.sessionID,
		Entries:        c.Entries(),
		TotalDocuments: closing.TotalDocuments,
		TotalAmount:    closing.TotalAmount,
	}, nil
}

func (c *Chain) append(payload domain.EntryPayload) domain.JournalEntry {
	entry := domain.JournalEntry{
		Progressive:  len(c.entries) + 1,
		Type:         payload.EntryType(),
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
		PreviousHash: c.headHash,
	}
	entry.Hash = EntryHash(entry)
	c.entries = append(c.entries, entry)
	c.headHash = entry.Hash
	return entry
}

// EntryHash computes the SHA-256 digest of an entry over
// (type, timestamp, payload, previousHash). The entry's own Hash field
// is deliberately excluded from the input.
func EntryHash(e domain.JournalEntry) string {
	input := strings.Join([]string{
		string(e.Type),
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Payload.Canonical(),
		e.PreviousHash,
	}, "\n")
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// VerifyEntries is the pure fold shared by PEM-side Verify and
// PEL-side ingestion: it recomputes every entry hash and checks that
// each previousHash equals the preceding entry's hash (genesis for the
// first). It also enforces the chain shape — OPEN first, OPEN only
// first, nothing after CLOSE — so a chain rebuilt from scratch with
// valid linkage but the wrong structure still fails. A chain that has
// not been sealed yet (no CLOSE) passes; sealing is checked by the
// callers that require it. Any violation yields ErrIntegrity.
func VerifyEntries(entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty chain", apperrors.ErrIntegrity)
	}
	if entries[0].Type != domain.EntryOpen {
		return fmt.Errorf("%w: chain does not start with an OPEN entry", apperrors.ErrIntegrity)
	}
	prev := GenesisHash
	sealed := false
	for i, e := range entries {
		if sealed {
			return fmt.Errorf("%w: entry %d follows the CLOSE entry", apperrors.ErrIntegrity, i+1)
		}
		if i > 0 && e.Type == domain.EntryOpen {
			return fmt.Errorf("%w: entry %d is a second OPEN entry", apperrors.ErrIntegrity, i+1)
		}
		if e.PreviousHash != prev {
			return fmt.Errorf("%w: entry %d previousHash broken, want %s got %s",
				apperrors.ErrIntegrity, i+1, prev, e.PreviousHash)
		}
		if recomputed := EntryHash(e); recomputed != e.Hash {
			return fmt.Errorf("%w: entry %d hash mismatch", apperrors.ErrIntegrity, i+1)
		}
		if e.Type == domain.EntryClose {
			sealed = true
		}
		prev = e.Hash
	}
	return nil
}
