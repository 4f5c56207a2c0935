package journal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChain(t *testing.T) *Chain {
	t.Helper()
	return New("DEV-001", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), "sess-1")
}

func docPayload(num int64, amount string) domain.DocumentPayload {
	return domain.DocumentPayload{
		DocumentNumber: num,
		Amount:         decimal.RequireFromString(amount),
		ContentHash:    "abc",
	}
}

func TestChainLifecycle(t *testing.T) {
	c := newTestChain(t)

	openHash, err := c.Open()
	require.NoError(t, err)
	assert.NotEmpty(t, openHash)

	h1, err := c.Append(docPayload(1, "5.00"))
	require.NoError(t, err)
	h2, err := c.Append(docPayload(2, "5.00"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	res, err := c.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalDocuments)
	assert.True(t, res.TotalAmount.Equal(decimal.RequireFromString("10.00")), "total is %s", res.TotalAmount)
	assert.True(t, c.Sealed())

	assert.NoError(t, c.Verify())

	entries := c.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, domain.EntryOpen, entries[0].Type)
	assert.Equal(t, GenesisHash, entries[0].PreviousHash)
	assert.Equal(t, domain.EntryClose, entries[3].Type)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, entries[i-1].Hash, entries[i].PreviousHash, "entry %d linkage", i+1)
	}
}

func TestChainStateErrors(t *testing.T) {
	c := newTestChain(t)

	// Append and Close before Open must fail.
	_, err := c.Append(docPayload(1, "1.00"))
	assert.ErrorIs(t, err, apperrors.ErrState)
	_, err = c.Close()
	assert.ErrorIs(t, err, apperrors.ErrState)

	_, err = c.Open()
	require.NoError(t, err)

	// Double open must fail.
	_, err = c.Open()
	assert.ErrorIs(t, err, apperrors.ErrState)

	_, err = c.Close()
	require.NoError(t, err)

	// The sealed chain rejects everything.
	_, err = c.Append(docPayload(1, "1.00"))
	assert.ErrorIs(t, err, apperrors.ErrState)
	_, err = c.Close()
	assert.ErrorIs(t, err, apperrors.ErrState)
	_, err = c.Open()
	assert.ErrorIs(t, err, apperrors.ErrState)
}

func TestVerifyDetectsTampering(t *testing.T) {
	build := func(t *testing.T) []domain.JournalEntry {
		c := newTestChain(t)
		_, err := c.Open()
		require.NoError(t, err)
		_, err = c.Append(docPayload(1, "2.50"))
		require.NoError(t, err)
		_, err = c.Append(docPayload(2, "7.50"))
		require.NoError(t, err)
		_, err = c.Close()
		require.NoError(t, err)
		return c.Entries()
	}

	t.Run("intact chain verifies", func(t *testing.T) {
		assert.NoError(t, VerifyEntries(build(t)))
	})

	t.Run("mutated payload breaks verification", func(t *testing.T) {
		entries := build(t)
		p := entries[1].Payload.(domain.DocumentPayload)
		p.Amount = decimal.RequireFromString("999.00")
		entries[1].Payload = p
		assert.ErrorIs(t, VerifyEntries(entries), apperrors.ErrIntegrity)
	})

	t.Run("mutated timestamp breaks verification", func(t *testing.T) {
		entries := build(t)
		entries[2].Timestamp = entries[2].Timestamp.Add(time.Second)
		assert.ErrorIs(t, VerifyEntries(entries), apperrors.ErrIntegrity)
	})

	t.Run("dropped entry breaks linkage", func(t *testing.T) {
		entries := build(t)
		tampered := append(entries[:1:1], entries[2:]...)
		assert.ErrorIs(t, VerifyEntries(tampered), apperrors.ErrIntegrity)
	})

	t.Run("empty chain is invalid", func(t *testing.T) {
		assert.ErrorIs(t, VerifyEntries(nil), apperrors.ErrIntegrity)
	})
}

// relink rewrites every previousHash and hash from genesis, producing a
// chain with valid linkage regardless of its structure. Verification
// must still reject it when the shape is wrong.
func relink(entries []domain.JournalEntry) []domain.JournalEntry {
	prev := GenesisHash
	out := make([]domain.JournalEntry, len(entries))
	for i, e := range entries {
		e.Progressive = i + 1
		e.PreviousHash = prev
		e.Hash = EntryHash(e)
		prev = e.Hash
		out[i] = e
	}
	return out
}

func TestVerifyEnforcesChainShape(t *testing.T) {
	build := func(t *testing.T) []domain.JournalEntry {
		c := newTestChain(t)
		_, err := c.Open()
		require.NoError(t, err)
		_, err = c.Append(docPayload(1, "2.50"))
		require.NoError(t, err)
		_, err = c.Close()
		require.NoError(t, err)
		return c.Entries()
	}

	t.Run("relinked chain without OPEN is invalid", func(t *testing.T) {
		entries := relink(build(t)[1:])
		assert.ErrorIs(t, VerifyEntries(entries), apperrors.ErrIntegrity)
	})

	t.Run("relinked entry after CLOSE is invalid", func(t *testing.T) {
		entries := build(t)
		extra := domain.JournalEntry{
			Type:      domain.EntryDocument,
			Timestamp: time.Now().UTC(),
			Payload:   docPayload(2, "1.00"),
		}
		entries = relink(append(entries, extra))
		assert.ErrorIs(t, VerifyEntries(entries), apperrors.ErrIntegrity)
	})

	t.Run("relinked second OPEN is invalid", func(t *testing.T) {
		entries := build(t)
		entries = relink([]domain.JournalEntry{entries[0], entries[0], entries[1], entries[2]})
		assert.ErrorIs(t, VerifyEntries(entries), apperrors.ErrIntegrity)
	})

	t.Run("chain still in progress verifies", func(t *testing.T) {
		c := newTestChain(t)
		_, err := c.Open()
		require.NoError(t, err)
		_, err = c.Append(docPayload(1, "2.50"))
		require.NoError(t, err)
		assert.NoError(t, c.Verify())
	})
}

func TestEntriesSurviveJSONRoundTrip(t *testing.T) {
	c := newTestChain(t)
	_, err := c.Open()
	require.NoError(t, err)
	_, err = c.Append(docPayload(1, "5.00"))
	require.NoError(t, err)
	_, err = c.Close()
	require.NoError(t, err)

	// PEL re-verifies the chain against the *received* entries, so the
	// wire envelope must preserve everything the hash covers.
	raw, err := json.Marshal(c.Entries())
	require.NoError(t, err)

	var decoded []domain.JournalEntry
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NoError(t, VerifyEntries(decoded))
}

func TestExportRequiresSealedChain(t *testing.T) {
	c := newTestChain(t)
	_, err := c.Open()
	require.NoError(t, err)

	_, err = c.Export("IT01234567890")
	assert.ErrorIs(t, err, apperrors.ErrState)

	_, err = c.Append(docPayload(1, "3.00"))
	require.NoError(t, err)
	_, err = c.Close()
	require.NoError(t, err)

	j, err := c.Export("IT01234567890")
	require.NoError(t, err)
	assert.Equal(t, "IT01234567890", j.VATNumber)
	assert.Equal(t, "DEV-001", j.DeviceID)
	assert.Equal(t, int64(1), j.TotalDocuments)
	assert.True(t, j.TotalAmount.Equal(decimal.RequireFromString("3.00")))
	assert.Len(t, j.Entries, 3)
}
