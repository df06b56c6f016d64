package events

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func TestNewPartitionKey(t *testing.T) {
	tests := []struct {
		name string
		slot uint64
		want []byte
	}{
		{name: "zero", slot: 0, want: []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{name: "slot 42", slot: 42, want: []byte{0, 0, 0, 0, 0, 0, 0, 0x2a}},
		{name: "slot 100", slot: 100, want: []byte{0, 0, 0, 0, 0, 0, 0, 0x64}},
		{name: "multi byte", slot: 0x0102030405060708, want: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "max", slot: math.MaxUint64, want: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewPartitionKey(tt.slot)
			if !bytes.Equal(key.Bytes(), tt.want) {
				t.Errorf("NewPartitionKey(%d) = %x, want %x", tt.slot, key.Bytes(), tt.want)
			}
			if key.Slot() != tt.slot {
				t.Errorf("Slot() = %d, want %d", key.Slot(), tt.slot)
			}
		})
	}
}

func TestPartitionKeyFor_SharedAcrossKinds(t *testing.T) {
	tx := TransactionEvent{Slot: 311, Signature: "sig", IsVote: true}
	entry := EntryEvent{Slot: 311, Index: 2, NumHashes: 12, ExecutedTxCount: 1}

	if PartitionKeyFor(tx) != PartitionKeyFor(entry) {
		t.Errorf("keys differ for same slot: %s vs %s", PartitionKeyFor(tx), PartitionKeyFor(entry))
	}
	if PartitionKeyFor(tx) == PartitionKeyFor(EntryEvent{Slot: 312}) {
		t.Error("keys should differ for different slots")
	}
}

func TestPartitionKey_BytesIsCopy(t *testing.T) {
	key := NewPartitionKey(1)
	b := key.Bytes()
	b[7] = 9
	if key.Slot() != 1 {
		t.Error("mutating Bytes() result must not change the key")
	}
}

func TestPartitionKey_String(t *testing.T) {
	if got := NewPartitionKey(100).String(); got != "0000000000000064" {
		t.Errorf("String() = %s, want 0000000000000064", got)
	}
}

func TestEventJSON(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "entry",
			event: EntryEvent{Slot: 100, Index: 3, NumHashes: 50, ExecutedTxCount: 7},
			want:  `{"slot":100,"idx":3,"num_hashes":50,"executed_tx_count":7}`,
		},
		{
			name:  "transaction",
			event: TransactionEvent{Slot: 42, Signature: "abc", IsVote: false},
			want:  `{"slot":42,"signature":"abc","is_vote":false}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEventMetadata(t *testing.T) {
	tx := TransactionEvent{Slot: 5}
	entry := EntryEvent{Slot: 6}

	if tx.Type() != EventTypeTransaction || tx.Kind() != KindTransaction || tx.SlotNumber() != 5 {
		t.Errorf("unexpected transaction metadata: %s %s %d", tx.Type(), tx.Kind(), tx.SlotNumber())
	}
	if entry.Type() != EventTypeEntry || entry.Kind() != KindEntry || entry.SlotNumber() != 6 {
		t.Errorf("unexpected entry metadata: %s %s %d", entry.Type(), entry.Kind(), entry.SlotNumber())
	}
}
