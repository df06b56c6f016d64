package generator

import (
	"github.com/jaswdr/faker"
	"go.uber.org/zap"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/replica"
)

// Slot is one simulated slot worth of host notifications.
type Slot struct {
	Number       uint64
	Transactions []replica.TransactionInfoVersions
	Entries      []replica.EntryInfoVersions
}

// Generator produces fake validator notifications across every known shape
type Generator struct {
	config *config.SimulatorConfig
	faker  faker.Faker
	logger *zap.Logger
	slot   uint64
}

// NewGenerator creates a new notification generator
func NewGenerator(config config.SimulatorConfig, logger *zap.Logger) *Generator {
	return &Generator{
		config: &config,
		faker:  faker.New(),
		logger: logger,
		slot:   config.StartSlot,
	}
}

// NextSlot generates the notifications for the next slot. Entry
// transaction counts add up to the number of transactions in the slot.
func (g *Generator) NextSlot() Slot {
	s := Slot{Number: g.slot}
	g.slot++

	for i := 0; i < g.config.TransactionsPerSlot; i++ {
		s.Transactions = append(s.Transactions, g.GenerateTransaction(i))
	}

	remaining := uint64(g.config.TransactionsPerSlot)
	var txIndex uint64
	for i := 0; i < g.config.EntriesPerSlot; i++ {
		var count uint64
		switch {
		case i == g.config.EntriesPerSlot-1:
			count = remaining
		case remaining > 0 && !g.chance(g.config.EmptyEntryPercent):
			count = uint64(g.between(1, int(remaining)))
		}
		remaining -= count
		s.Entries = append(s.Entries, g.GenerateEntry(s.Number, uint64(i), count, txIndex))
		txIndex += count
	}

	g.logger.Debug("Generated slot",
		zap.Uint64("slot", s.Number),
		zap.Int("transactions", len(s.Transactions)),
		zap.Int("entries", len(s.Entries)),
	)
	return s
}

// GenerateTransaction returns a transaction notification in a random shape.
// A configured share comes back as a nil shape, which the pipeline drops as
// unsupported.
func (g *Generator) GenerateTransaction(index int) replica.TransactionInfoVersions {
	if g.chance(g.config.MalformedPercent) {
		return (*replica.TransactionInfoV3)(nil)
	}

	sig := g.generateSignature()
	isVote := g.chance(g.config.VotePercent)
	meta := g.generateMeta(isVote)

	switch g.faker.IntBetween(1, 3) {
	case 1:
		return &replica.TransactionInfo{
			Signature:   sig,
			IsVote:      isVote,
			Transaction: &replica.Transaction{Message: g.generateBytes(64), Signatures: []replica.Signature{sig}},
			Meta:        meta,
		}
	case 2:
		return &replica.TransactionInfoV2{
			Signature:   sig,
			IsVote:      isVote,
			Transaction: &replica.Transaction{Message: g.generateBytes(64), Signatures: []replica.Signature{sig}},
			Meta:        meta,
			Index:       index,
		}
	default:
		return &replica.TransactionInfoV3{
			Signature:   sig,
			MessageHash: g.generateHash(),
			IsVote:      isVote,
			Transaction: &replica.VersionedTransaction{Version: 0, Message: g.generateBytes(64), Signatures: []replica.Signature{sig}},
			Meta:        meta,
			Index:       index,
		}
	}
}

// GenerateEntry returns an entry notification in a random shape.
func (g *Generator) GenerateEntry(slot, index, executed, startingTxIndex uint64) replica.EntryInfoVersions {
	if g.chance(g.config.MalformedPercent) {
		return (*replica.EntryInfoV2)(nil)
	}

	numHashes := uint64(g.faker.IntBetween(1, 12500))
	if g.faker.IntBetween(0, 1) == 0 {
		return &replica.EntryInfo{
			Slot:                     slot,
			Index:                    index,
			NumHashes:                numHashes,
			Hash:                     g.generateHash(),
			ExecutedTransactionCount: executed,
		}
	}
	return &replica.EntryInfoV2{
		Slot:                     slot,
		Index:                    index,
		NumHashes:                numHashes,
		Hash:                     g.generateHash(),
		ExecutedTransactionCount: executed,
		StartingTransactionIndex: startingTxIndex,
	}
}

// Helper functions for generating realistic data

func (g *Generator) generateSignature() replica.Signature {
	var sig replica.Signature
	copy(sig[:], g.generateBytes(replica.SignatureSize))
	return sig
}

func (g *Generator) generateHash() replica.Hash {
	var h replica.Hash
	copy(h[:], g.generateBytes(len(h)))
	return h
}

func (g *Generator) generateBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(g.faker.IntBetween(0, 255))
	}
	return b
}

func (g *Generator) generateMeta(isVote bool) *replica.TransactionStatusMeta {
	fee := uint64(5000)
	if !isVote {
		fee += uint64(g.faker.IntBetween(0, 100000))
	}
	balance := uint64(g.faker.IntBetween(1000000, 1000000000))
	return &replica.TransactionStatusMeta{
		Fee:          fee,
		PreBalances:  []uint64{balance},
		PostBalances: []uint64{balance - fee},
		LogMessages:  []string{"Program log: " + g.faker.Lorem().Sentence(4)},
	}
}

func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return g.faker.IntBetween(lo, hi)
}

// chance reports true roughly percent times out of 100.
func (g *Generator) chance(percent int) bool {
	if percent <= 0 {
		return false
	}
	return g.faker.IntBetween(1, 100) <= percent
}
