package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestSessionAppendOrdering(t *testing.T) {
	t.Parallel()

	sess := NewSession()

	first, err := sess.Append(RoleUser, "user", "plan a trip to Kyoto")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	second, err := sess.Append(RoleAgent, "planner", "working on it")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if first.Seq != 0 || second.Seq != 1 {
		t.Fatalf("unexpected sequence numbers: %d, %d", first.Seq, second.Seq)
	}

	turns := sess.SnapshotTurns()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "plan a trip to Kyoto" {
		t.Fatalf("unexpected first turn: %#v", turns[0])
	}
	if turns[1].Role != RoleAgent || turns[1].Actor != "planner" {
		t.Fatalf("unexpected second turn: %#v", turns[1])
	}
}

func TestSessionAppendRejectsMalformedTurn(t *testing.T) {
	t.Parallel()

	sess := NewSession()

	if _, err := sess.Append(Role("observer"), "x", "hello"); !errors.Is(err, ErrMalformedTurn) {
		t.Fatalf("expected ErrMalformedTurn for bad role, got %v", err)
	}
	if _, err := sess.Append(RoleUser, "user", "   "); !errors.Is(err, ErrMalformedTurn) {
		t.Fatalf("expected ErrMalformedTurn for empty content, got %v", err)
	}
	if sess.TurnCount() != 0 {
		t.Fatalf("rejected turns must not be stored, count = %d", sess.TurnCount())
	}
}

func TestSessionSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	if _, err := sess.Append(RoleUser, "user", "original"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	snap := sess.SnapshotTurns()
	snap[0].Content = "mutated"

	if got := sess.SnapshotTurns()[0].Content; got != "original" {
		t.Fatalf("snapshot mutation leaked into the ledger: %q", got)
	}
}

func TestSessionFactKindConflict(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	if err := sess.SetFact("currency.CNY-JPY", NumberFact(4.76)); err != nil {
		t.Fatalf("SetFact() error = %v", err)
	}

	err := sess.SetFact("currency.CNY-JPY", StringFact("4.76"))
	if !errors.Is(err, ErrFactTypeConflict) {
		t.Fatalf("expected ErrFactTypeConflict, got %v", err)
	}

	fact, err := sess.Fact("currency.CNY-JPY")
	if err != nil {
		t.Fatalf("Fact() error = %v", err)
	}
	if fact.Kind != FactNumber || fact.Num != 4.76 {
		t.Fatalf("conflicting write must leave the stored fact untouched: %#v", fact)
	}
}

func TestSessionFactSameKindOverwrite(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	if err := sess.SetFact("weather.kyoto", StringFact("rain,12C")); err != nil {
		t.Fatalf("SetFact() error = %v", err)
	}
	if err := sess.SetFact("weather.kyoto", StringFact("clear,15C")); err != nil {
		t.Fatalf("SetFact() overwrite error = %v", err)
	}

	fact, err := sess.Fact("weather.kyoto")
	if err != nil {
		t.Fatalf("Fact() error = %v", err)
	}
	if fact.Str != "clear,15C" {
		t.Fatalf("expected last write to win, got %q", fact.Str)
	}
}

func TestSessionFactNotFound(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	if _, err := sess.Fact("route.tokyo-kyoto"); !errors.Is(err, ErrFactNotFound) {
		t.Fatalf("expected ErrFactNotFound, got %v", err)
	}
	if sess.HasFact("route.tokyo-kyoto") {
		t.Fatal("HasFact() must be false for a missing key")
	}
}

func TestSessionConcurrentAppendsKeepTotalOrder(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := sess.Append(RoleAgent, "planner", fmt.Sprintf("w%d-%d", w, i)); err != nil {
					t.Errorf("Append() error = %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	turns := sess.SnapshotTurns()
	if len(turns) != writers*perWriter {
		t.Fatalf("expected %d turns, got %d", writers*perWriter, len(turns))
	}
	for i, turn := range turns {
		if turn.Seq != i {
			t.Fatalf("sequence gap at index %d: seq=%d", i, turn.Seq)
		}
	}
}
