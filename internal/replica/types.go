// Package replica models the notification shapes a validator host hands to
// the plugin, and normalizes them into canonical events.
//
// The host evolves these shapes over time. Each shape is a distinct type
// behind a sealed interface so that new versions are added as new types and
// old ones keep working.
package replica

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// SignatureSize is the length of an ed25519 transaction signature.
const SignatureSize = 64

// Signature is a transaction signature.
type Signature [SignatureSize]byte

// String renders the signature in base58.
func (s Signature) String() string {
	return base58.Encode(s[:])
}

// ParseSignature decodes a base58 signature.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := base58.Decode(s)
	if err != nil {
		return sig, fmt.Errorf("invalid base58 signature: %w", err)
	}
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("invalid signature length: got %d bytes, want %d", len(b), SignatureSize)
	}
	copy(sig[:], b)
	return sig, nil
}

// Hash is a 32-byte entry or message hash.
type Hash [32]byte

// String renders the hash in base58.
func (h Hash) String() string {
	return base58.Encode(h[:])
}

// TransactionStatusMeta is the subset of execution metadata the host reports.
type TransactionStatusMeta struct {
	Err          error
	Fee          uint64
	PreBalances  []uint64
	PostBalances []uint64
	LogMessages  []string
}

// Transaction is the opaque sanitized transaction handed over by the host.
type Transaction struct {
	Message    []byte
	Signatures []Signature
}

// VersionedTransaction is the transaction form used by TransactionInfoV3.
type VersionedTransaction struct {
	Version    uint8
	Message    []byte
	Signatures []Signature
}

// TransactionInfoVersions is one of the known transaction notification shapes.
type TransactionInfoVersions interface {
	transactionInfoVersion() string
}

// TransactionInfo is the 0.0.1 transaction notification.
type TransactionInfo struct {
	Signature   Signature
	IsVote      bool
	Transaction *Transaction
	Meta        *TransactionStatusMeta
}

// TransactionInfoV2 is the 0.0.2 transaction notification; it adds the
// position of the transaction inside its block.
type TransactionInfoV2 struct {
	Signature   Signature
	IsVote      bool
	Transaction *Transaction
	Meta        *TransactionStatusMeta
	Index       int
}

// TransactionInfoV3 is the 0.0.3 transaction notification.
type TransactionInfoV3 struct {
	Signature   Signature
	MessageHash Hash
	IsVote      bool
	Transaction *VersionedTransaction
	Meta        *TransactionStatusMeta
	Index       int
}

func (*TransactionInfo) transactionInfoVersion() string   { return "0.0.1" }
func (*TransactionInfoV2) transactionInfoVersion() string { return "0.0.2" }
func (*TransactionInfoV3) transactionInfoVersion() string { return "0.0.3" }

// EntryInfoVersions is one of the known entry notification shapes.
type EntryInfoVersions interface {
	entryInfoVersion() string
}

// EntryInfo is the 0.0.1 entry notification.
type EntryInfo struct {
	Slot                     uint64
	Index                    uint64
	NumHashes                uint64
	Hash                     Hash
	ExecutedTransactionCount uint64
}

// EntryInfoV2 is the 0.0.2 entry notification; it adds the index of the
// first transaction of the entry within the slot.
type EntryInfoV2 struct {
	Slot                     uint64
	Index                    uint64
	NumHashes                uint64
	Hash                     Hash
	ExecutedTransactionCount uint64
	StartingTransactionIndex uint64
}

func (*EntryInfo) entryInfoVersion() string   { return "0.0.1" }
func (*EntryInfoV2) entryInfoVersion() string { return "0.0.2" }

// TransactionVersion returns the version label of info, or "unknown".
func TransactionVersion(info TransactionInfoVersions) string {
	if info == nil {
		return "unknown"
	}
	return info.transactionInfoVersion()
}

// EntryVersion returns the version label of info, or "unknown".
func EntryVersion(info EntryInfoVersions) string {
	if info == nil {
		return "unknown"
	}
	return info.entryInfoVersion()
}
