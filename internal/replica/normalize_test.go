package replica

import (
	"errors"
	"testing"

	geysererrors "github.com/jittakal/kafgeyser/internal/errors"
	"github.com/jittakal/kafgeyser/internal/events"
)

// futureTransactionInfo stands in for a shape added by a newer host.
type futureTransactionInfo struct{ Signature Signature }

func (*futureTransactionInfo) transactionInfoVersion() string { return "9.9.9" }

type futureEntryInfo struct{ Slot uint64 }

func (*futureEntryInfo) entryInfoVersion() string { return "9.9.9" }

func testSignature(seed byte) Signature {
	var sig Signature
	for i := range sig {
		sig[i] = seed + byte(i)
	}
	return sig
}

func TestNormalizeTransaction_AllVersionsAgree(t *testing.T) {
	sig := testSignature(1)
	want := events.TransactionEvent{Slot: 42, Signature: sig.String(), IsVote: true}

	tests := []struct {
		name string
		info TransactionInfoVersions
	}{
		{
			name: "v1",
			info: &TransactionInfo{Signature: sig, IsVote: true, Meta: &TransactionStatusMeta{Fee: 5000}},
		},
		{
			name: "v2",
			info: &TransactionInfoV2{Signature: sig, IsVote: true, Index: 17},
		},
		{
			name: "v3",
			info: &TransactionInfoV3{
				Signature:   sig,
				MessageHash: Hash{1, 2, 3},
				IsVote:      true,
				Transaction: &VersionedTransaction{Version: 0},
				Index:       17,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTransaction(tt.info, 42)
			if err != nil {
				t.Fatalf("NormalizeTransaction() error = %v", err)
			}
			if got != want {
				t.Errorf("NormalizeTransaction() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestNormalizeTransaction_OldestShape(t *testing.T) {
	sig := testSignature(7)
	got, err := NormalizeTransaction(&TransactionInfo{Signature: sig, IsVote: false}, 42)
	if err != nil {
		t.Fatalf("NormalizeTransaction() error = %v", err)
	}

	parsed, err := ParseSignature(got.Signature)
	if err != nil {
		t.Fatalf("canonical signature is not base58: %v", err)
	}
	if parsed != sig {
		t.Error("canonical signature does not round-trip")
	}
	if got.Slot != 42 || got.IsVote {
		t.Errorf("unexpected event %+v", got)
	}
	if events.PartitionKeyFor(got).String() != "000000000000002a" {
		t.Errorf("key = %s, want 000000000000002a", events.PartitionKeyFor(got))
	}
}

func TestNormalizeTransaction_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		info TransactionInfoVersions
	}{
		{name: "future shape", info: &futureTransactionInfo{Signature: testSignature(3)}},
		{name: "nil interface", info: nil},
		{name: "typed nil", info: (*TransactionInfoV2)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeTransaction(tt.info, 1)
			var unsupported *geysererrors.UnsupportedVersionError
			if !errors.As(err, &unsupported) {
				t.Fatalf("error = %v, want UnsupportedVersionError", err)
			}
			if unsupported.Kind != events.KindTransaction {
				t.Errorf("Kind = %s, want %s", unsupported.Kind, events.KindTransaction)
			}
		})
	}
}

func TestNormalizeEntry_AllVersionsAgree(t *testing.T) {
	want := events.EntryEvent{Slot: 100, Index: 3, NumHashes: 50, ExecutedTxCount: 7}

	tests := []struct {
		name string
		info EntryInfoVersions
	}{
		{
			name: "v1",
			info: &EntryInfo{Slot: 100, Index: 3, NumHashes: 50, Hash: Hash{9}, ExecutedTransactionCount: 7},
		},
		{
			name: "v2",
			info: &EntryInfoV2{
				Slot:                     100,
				Index:                    3,
				NumHashes:                50,
				Hash:                     Hash{8},
				ExecutedTransactionCount: 7,
				StartingTransactionIndex: 120,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeEntry(tt.info)
			if err != nil {
				t.Fatalf("NormalizeEntry() error = %v", err)
			}
			if got != want {
				t.Errorf("NormalizeEntry() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestNormalizeEntry_Unsupported(t *testing.T) {
	for _, info := range []EntryInfoVersions{&futureEntryInfo{Slot: 1}, nil, (*EntryInfo)(nil)} {
		_, err := NormalizeEntry(info)
		var unsupported *geysererrors.UnsupportedVersionError
		if !errors.As(err, &unsupported) {
			t.Fatalf("NormalizeEntry(%T) error = %v, want UnsupportedVersionError", info, err)
		}
		if unsupported.Kind != events.KindEntry {
			t.Errorf("Kind = %s, want %s", unsupported.Kind, events.KindEntry)
		}
	}
}

func TestParseSignature(t *testing.T) {
	sig := testSignature(11)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: sig.String(), wantErr: false},
		{name: "invalid alphabet", input: "0OIl", wantErr: true},
		{name: "too short", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignature(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSignature() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != sig {
				t.Error("ParseSignature() did not round-trip")
			}
		})
	}
}

func TestVersionLabels(t *testing.T) {
	if v := TransactionVersion(&TransactionInfoV3{}); v != "0.0.3" {
		t.Errorf("TransactionVersion() = %s, want 0.0.3", v)
	}
	if v := EntryVersion(&EntryInfoV2{}); v != "0.0.2" {
		t.Errorf("EntryVersion() = %s, want 0.0.2", v)
	}
	if v := TransactionVersion(nil); v != "unknown" {
		t.Errorf("TransactionVersion(nil) = %s, want unknown", v)
	}
}
