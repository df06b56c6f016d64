package events

import (
	"encoding/json"
	"fmt"
)

// Decode parses a published payload of the given CloudEvents type back into
// its canonical event.
func Decode(eventType string, payload []byte) (Event, error) {
	switch eventType {
	case EventTypeTransaction:
		var e TransactionEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", eventType, err)
		}
		return e, nil
	case EventTypeEntry:
		var e EntryEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("failed to decode %s payload: %w", eventType, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

// ParsePartitionKey reads a record key produced by PartitionKey.Bytes.
func ParsePartitionKey(b []byte) (PartitionKey, error) {
	var k PartitionKey
	if len(b) != PartitionKeySize {
		return k, fmt.Errorf("invalid partition key length: got %d bytes, want %d", len(b), PartitionKeySize)
	}
	copy(k[:], b)
	return k, nil
}
