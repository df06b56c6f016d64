package replica

import (
	"fmt"

	"github.com/jittakal/kafgeyser/internal/errors"
	"github.com/jittakal/kafgeyser/internal/events"
)

// NormalizeTransaction maps any known transaction shape to the canonical
// event. Unknown shapes, including nil pointers of known ones, return an
// *errors.UnsupportedVersionError; it never panics.
func NormalizeTransaction(info TransactionInfoVersions, slot uint64) (events.TransactionEvent, error) {
	switch v := info.(type) {
	case *TransactionInfo:
		if v != nil {
			return newTransactionEvent(slot, v.Signature, v.IsVote), nil
		}
	case *TransactionInfoV2:
		if v != nil {
			return newTransactionEvent(slot, v.Signature, v.IsVote), nil
		}
	case *TransactionInfoV3:
		if v != nil {
			return newTransactionEvent(slot, v.Signature, v.IsVote), nil
		}
	}
	return events.TransactionEvent{}, &errors.UnsupportedVersionError{
		Kind: events.KindTransaction,
		Type: describe(info),
	}
}

// NormalizeEntry maps any known entry shape to the canonical event.
func NormalizeEntry(info EntryInfoVersions) (events.EntryEvent, error) {
	switch v := info.(type) {
	case *EntryInfo:
		if v != nil {
			return events.EntryEvent{
				Slot:            v.Slot,
				Index:           v.Index,
				NumHashes:       v.NumHashes,
				ExecutedTxCount: v.ExecutedTransactionCount,
			}, nil
		}
	case *EntryInfoV2:
		if v != nil {
			return events.EntryEvent{
				Slot:            v.Slot,
				Index:           v.Index,
				NumHashes:       v.NumHashes,
				ExecutedTxCount: v.ExecutedTransactionCount,
			}, nil
		}
	}
	return events.EntryEvent{}, &errors.UnsupportedVersionError{
		Kind: events.KindEntry,
		Type: describe(info),
	}
}

func newTransactionEvent(slot uint64, sig Signature, isVote bool) events.TransactionEvent {
	return events.TransactionEvent{
		Slot:      slot,
		Signature: sig.String(),
		IsVote:    isVote,
	}
}

func describe(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", v)
}
