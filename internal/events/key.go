package events

import (
	"encoding/binary"
	"encoding/hex"
)

// PartitionKeySize is the length of every partition key in bytes.
const PartitionKeySize = 8

// PartitionKey routes all records of one slot to the same partition.
type PartitionKey [PartitionKeySize]byte

// NewPartitionKey encodes slot big-endian.
func NewPartitionKey(slot uint64) PartitionKey {
	var k PartitionKey
	binary.BigEndian.PutUint64(k[:], slot)
	return k
}

// PartitionKeyFor derives the key of any canonical event.
func PartitionKeyFor(e Event) PartitionKey {
	return NewPartitionKey(e.SlotNumber())
}

// Bytes returns a copy of the key suitable for a Kafka record.
func (k PartitionKey) Bytes() []byte {
	b := make([]byte, PartitionKeySize)
	copy(b, k[:])
	return b
}

// Slot decodes the slot back out of the key.
func (k PartitionKey) Slot() uint64 {
	return binary.BigEndian.Uint64(k[:])
}

func (k PartitionKey) String() string {
	return hex.EncodeToString(k[:])
}
