package pipeline

import "github.com/jittakal/kafgeyser/internal/events"

// ShouldPublishEntry reports whether an entry carries executed transactions.
// Entries without any are noise and are never published.
func ShouldPublishEntry(e events.EntryEvent) bool {
	return e.ExecutedTxCount > 0
}
