package generator

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/jittakal/kafgeyser/internal/config"
	"github.com/jittakal/kafgeyser/internal/replica"
)

func testConfig() config.SimulatorConfig {
	cfg := config.Default().Simulator
	cfg.MalformedPercent = 0
	return cfg
}

func TestNextSlot_Shape(t *testing.T) {
	cfg := testConfig()
	cfg.StartSlot = 500
	g := NewGenerator(cfg, zaptest.NewLogger(t))

	for want := uint64(500); want < 510; want++ {
		s := g.NextSlot()
		if s.Number != want {
			t.Fatalf("slot = %d, want %d", s.Number, want)
		}
		if len(s.Transactions) != cfg.TransactionsPerSlot {
			t.Errorf("transactions = %d, want %d", len(s.Transactions), cfg.TransactionsPerSlot)
		}
		if len(s.Entries) != cfg.EntriesPerSlot {
			t.Errorf("entries = %d, want %d", len(s.Entries), cfg.EntriesPerSlot)
		}

		var executed uint64
		for _, info := range s.Entries {
			ev, err := replica.NormalizeEntry(info)
			if err != nil {
				t.Fatalf("NormalizeEntry() error = %v", err)
			}
			if ev.Slot != s.Number {
				t.Errorf("entry slot = %d, want %d", ev.Slot, s.Number)
			}
			executed += ev.ExecutedTxCount
		}
		if executed != uint64(cfg.TransactionsPerSlot) {
			t.Errorf("executed transactions = %d, want %d", executed, cfg.TransactionsPerSlot)
		}
	}
}

func TestGenerateTransaction_Normalizes(t *testing.T) {
	g := NewGenerator(testConfig(), zaptest.NewLogger(t))

	versions := map[string]bool{}
	for i := 0; i < 300; i++ {
		info := g.GenerateTransaction(i)
		versions[replica.TransactionVersion(info)] = true

		ev, err := replica.NormalizeTransaction(info, 7)
		if err != nil {
			t.Fatalf("NormalizeTransaction() error = %v", err)
		}
		if _, err := replica.ParseSignature(ev.Signature); err != nil {
			t.Errorf("signature %q does not round-trip: %v", ev.Signature, err)
		}
	}

	for _, v := range []string{"0.0.1", "0.0.2", "0.0.3"} {
		if !versions[v] {
			t.Errorf("version %s never generated", v)
		}
	}
}

func TestGenerate_VotePercent(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		want    bool
	}{
		{name: "never vote", percent: 0, want: false},
		{name: "always vote", percent: 100, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.VotePercent = tt.percent
			g := NewGenerator(cfg, zaptest.NewLogger(t))
			for i := 0; i < 50; i++ {
				ev, err := replica.NormalizeTransaction(g.GenerateTransaction(i), 1)
				if err != nil {
					t.Fatalf("NormalizeTransaction() error = %v", err)
				}
				if ev.IsVote != tt.want {
					t.Fatalf("IsVote = %v, want %v", ev.IsVote, tt.want)
				}
			}
		})
	}
}

func TestGenerate_Malformed(t *testing.T) {
	cfg := testConfig()
	cfg.MalformedPercent = 100
	g := NewGenerator(cfg, zaptest.NewLogger(t))

	if _, err := replica.NormalizeTransaction(g.GenerateTransaction(0), 1); err == nil {
		t.Error("malformed transaction normalized without error")
	}
	if _, err := replica.NormalizeEntry(g.GenerateEntry(1, 0, 1, 0)); err == nil {
		t.Error("malformed entry normalized without error")
	}
}

func TestNextSlot_AllEmptyEntries(t *testing.T) {
	cfg := testConfig()
	cfg.EmptyEntryPercent = 100
	cfg.TransactionsPerSlot = 5
	cfg.EntriesPerSlot = 4
	g := NewGenerator(cfg, zaptest.NewLogger(t))

	s := g.NextSlot()
	for i, info := range s.Entries[:3] {
		ev, err := replica.NormalizeEntry(info)
		if err != nil {
			t.Fatalf("NormalizeEntry() error = %v", err)
		}
		if ev.ExecutedTxCount != 0 {
			t.Errorf("entry %d executed = %d, want 0", i, ev.ExecutedTxCount)
		}
	}
	last, err := replica.NormalizeEntry(s.Entries[3])
	if err != nil {
		t.Fatalf("NormalizeEntry() error = %v", err)
	}
	if last.ExecutedTxCount != 5 {
		t.Errorf("last entry executed = %d, want 5", last.ExecutedTxCount)
	}
}
