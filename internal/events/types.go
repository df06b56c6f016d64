// Package events defines the canonical records published downstream.
//
// Every host notification shape converges on one of these two types, so
// consumers never see version-specific fields.
package events

// Event type constants
const (
	EventTypeTransaction = "io.kafgeyser.transaction"
	EventTypeEntry       = "io.kafgeyser.entry"

	// DefaultSource is the CloudEvents source attribute used when none is configured
	DefaultSource = "kafgeyser"

	// ContentTypeJSON is the content type of every published payload
	ContentTypeJSON = "application/json"
)

// Kind labels used in logs and metrics.
const (
	KindTransaction = "transaction"
	KindEntry       = "entry"
)

// Event is a canonical record ready for publishing.
type Event interface {
	// Type returns the CloudEvents type of the record.
	Type() string
	// Kind returns the short label used in logs and metrics.
	Kind() string
	// SlotNumber returns the slot the record belongs to.
	SlotNumber() uint64
}

// TransactionEvent represents one replicated transaction
type TransactionEvent struct {
	Slot      uint64 `json:"slot"`
	Signature string `json:"signature"`
	IsVote    bool   `json:"is_vote"`
}

func (TransactionEvent) Type() string { return EventTypeTransaction }

func (TransactionEvent) Kind() string { return KindTransaction }

func (e TransactionEvent) SlotNumber() uint64 { return e.Slot }

// EntryEvent represents one replicated entry
type EntryEvent struct {
	Slot            uint64 `json:"slot"`
	Index           uint64 `json:"idx"`
	NumHashes       uint64 `json:"num_hashes"`
	ExecutedTxCount uint64 `json:"executed_tx_count"`
}

func (EntryEvent) Type() string { return EventTypeEntry }

func (EntryEvent) Kind() string { return KindEntry }

func (e EntryEvent) SlotNumber() uint64 { return e.Slot }
