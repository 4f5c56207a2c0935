package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType identifies the kind of event a journal entry records.
type EntryType string

const (
	EntryOpen     EntryType = "OPEN"
	EntryDocument EntryType = "DOCUMENT"
	EntryClose    EntryType = "CLOSE"
)

// EntryPayload is the tagged union over the known journal entry kinds.
// Every implementation must produce a deterministic canonical string,
// since that string is folded into the entry hash.
type EntryPayload interface {
	EntryType() EntryType
	Canonical() string
}

// OpeningPayload is carried by the OPEN entry that starts a session.
type OpeningPayload struct {
	DeviceID      string    `json:"dispositivo"`
	ReferenceDate time.Time `json:"dataRiferimento"`
	SessionID     string    `json:"sessione,omitempty"`
}

func (p OpeningPayload) EntryType() EntryType { return EntryOpen }

func (p OpeningPayload) Canonical() string {
	return strings.Join([]string{p.DeviceID, p.ReferenceDate.UTC().Format("2006-01-02"), p.SessionID}, "|")
}

// DocumentPayload is carried by each DOCUMENT entry, one per emitted receipt.
type DocumentPayload struct {
	DocumentNumber int64           `json:"numeroDocumento"`
	Amount         decimal.Decimal `json:"importo"`
	ContentHash    string          `json:"hashContenuto"`
}

func (p DocumentPayload) EntryType() EntryType { return EntryDocument }

func (p DocumentPayload) Canonical() string {
	return strings.Join([]string{strconv.FormatInt(p.DocumentNumber, 10), p.Amount.StringFixed(2), p.ContentHash}, "|")
}

// ClosingPayload seals the session and records its aggregates.
type ClosingPayload struct {
	TotalDocuments int64           `json:"totaleDocumenti"`
	TotalAmount    decimal.Decimal `json:"importoTotale"`
}

func (p ClosingPayload) EntryType() EntryType { return EntryClose }

func (p ClosingPayload) Canonical() string {
	return strconv.FormatInt(p.TotalDocuments, 10) + "|" + p.TotalAmount.StringFixed(2)
}

// JournalEntry is one immutable link of the session hash chain.
// PreviousHash is stored by value, never as a live reference, so that
// verification is a pure fold over the entry sequence.
type JournalEntry struct {
	Progressive  int          // 1-based position within the chain
	Type         EntryType    //
	Timestamp    time.Time    //
	Payload      EntryPayload //
	PreviousHash string       // hash of the preceding entry, or the genesis constant
	Hash         string       // hash over (type, timestamp, payload, previousHash); excluded from its own input
}

// entryJSON is the flat wire/storage envelope for a JournalEntry. The
// payload fields are pointers so only the ones for the tagged kind are
// emitted.
type entryJSON struct {
	Progressive  int       `json:"numeroProgressivo"`
	Type         EntryType `json:"tipo"`
	Timestamp    time.Time `json:"dataOra"`
	PreviousHash string    `json:"hashPrecedente"`
	Hash         string    `json:"hash"`

	Opening  *OpeningPayload  `json:"apertura,omitempty"`
	Document *DocumentPayload `json:"documento,omitempty"`
	Closing  *ClosingPayload  `json:"chiusura,omitempty"`
}

// MarshalJSON flattens the tagged payload into the wire envelope.
func (e JournalEntry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		Progressive:  e.Progressive,
		Type:         e.Type,
		Timestamp:    e.Timestamp,
		PreviousHash: e.PreviousHash,
		Hash:         e.Hash,
	}
	switch p := e.Payload.(type) {
	case OpeningPayload:
		out.Opening = &p
	case DocumentPayload:
		out.Document = &p
	case ClosingPayload:
		out.Closing = &p
	case nil:
		return nil, fmt.Errorf("journal entry %d has no payload", e.Progressive)
	default:
		return nil, fmt.Errorf("unknown journal entry payload type %T", e.Payload)
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the tagged payload from the wire envelope.
func (e *JournalEntry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	e.Progressive = in.Progressive
	e.Type = in.Type
	e.Timestamp = in.Timestamp
	e.PreviousHash = in.PreviousHash
	e.Hash = in.Hash
	switch in.Type {
	case EntryOpen:
		if in.Opening == nil {
			return fmt.Errorf("entry %d: OPEN entry without apertura payload", in.Progressive)
		}
		e.Payload = *in.Opening
	case EntryDocument:
		if in.Document == nil {
			return fmt.Errorf("entry %d: DOCUMENT entry without documento payload", in.Progressive)
		}
		e.Payload = *in.Document
	case EntryClose:
		if in.Closing == nil {
			return fmt.Errorf("entry %d: CLOSE entry without chiusura payload", in.Progressive)
		}
		e.Payload = *in.Closing
	default:
		return fmt.Errorf("entry %d: unknown entry type %q", in.Progressive, in.Type)
	}
	return nil
}

// Amount returns the monetary amount an entry contributes to the
// session total. Only DOCUMENT entries carry one.
func (e JournalEntry) Amount() decimal.Decimal {
	if p, ok := e.Payload.(DocumentPayload); ok {
		return p.Amount
	}
	return decimal.Zero
}
