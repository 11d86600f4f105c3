package bus

import (
	"testing"
	"time"
)

func TestPost_SequenceAndTimestamp(t *testing.T) {
	b := New(0)

	first := b.Post("a1", "a2", "status", "starting", "t1")
	second := b.Post("a2", "a1", "status", "ack", "t1")

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected sequence ids 1, 2; got %d, %d", first.ID, second.ID)
	}
	if first.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if b.Count() != 2 {
		t.Errorf("Count() = %d, want 2", b.Count())
	}
}

func TestSince_FiltersByAgentAndTime(t *testing.T) {
	b := New(0)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return clock })

	b.Post("x", "a1", "status", "early", "")
	clock = clock.Add(time.Hour)
	b.Post("x", "a1", "status", "late", "")
	b.Post("x", "a2", "status", "other recipient", "")

	got := b.Since("a1", clock)
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	if got[0].Content != "late" {
		t.Errorf("content = %q, want %q", got[0].Content, "late")
	}

	// Restartable: asking again yields the same sequence.
	again := b.Since("a1", clock)
	if len(again) != 1 || again[0].ID != got[0].ID {
		t.Error("expected Since to be restartable with identical results")
	}
}

func TestSince_AppendOrder(t *testing.T) {
	b := New(0)

	for i := 0; i < 5; i++ {
		b.Post("x", "a1", "status", "msg", "")
	}

	got := b.Since("a1", time.Time{})
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Fatalf("messages out of append order: %d after %d", got[i].ID, got[i-1].ID)
		}
	}
}

func TestRetention_PrunesOldEntries(t *testing.T) {
	b := New(time.Hour)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return clock })

	b.Post("x", "a1", "status", "stale", "")

	clock = clock.Add(2 * time.Hour)
	b.Post("x", "a1", "status", "fresh", "")

	if b.Count() != 1 {
		t.Fatalf("expected stale entry to be pruned, Count() = %d", b.Count())
	}

	got := b.Since("a1", time.Time{})
	if len(got) != 1 || got[0].Content != "fresh" {
		t.Errorf("expected only fresh message to survive, got %v", got)
	}
}

func TestRetention_SequenceSurvivesPruning(t *testing.T) {
	b := New(time.Hour)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return clock })

	b.Post("x", "a1", "status", "one", "")
	clock = clock.Add(2 * time.Hour)
	msg := b.Post("x", "a1", "status", "two", "")

	if msg.ID != 2 {
		t.Errorf("sequence id = %d, want 2 (ids must not reset on prune)", msg.ID)
	}
}

func TestSince_UnaffectedByConcurrentPrune(t *testing.T) {
	b := New(time.Hour)

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.SetClock(func() time.Time { return clock })

	b.Post("x", "a1", "status", "old", "")
	snapshot := b.Since("a1", time.Time{})

	// Posting two hours later prunes the entry the snapshot holds.
	clock = clock.Add(2 * time.Hour)
	b.Post("x", "a1", "status", "new", "")

	if len(snapshot) != 1 || snapshot[0].Content != "old" {
		t.Error("an in-flight read must not observe pruning")
	}
}
