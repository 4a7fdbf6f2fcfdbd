package austream

import "testing"

func TestStringInternPromotesAfterThreshold(t *testing.T) {
	si := NewStringIntern(4, 3, 100)
	s := "repeatedvalue"

	// Occurrences 1..3 raise the candidate's count to the threshold; the
	// 4th sees count >= threshold and promotes.
	for i := 0; i < 3; i++ {
		if _, ok := si.Idx(s, internAuto); ok {
			t.Fatalf("occurrence %d: expected not-yet-interned", i)
		}
	}
	idx, ok := si.Idx(s, internAuto)
	if !ok {
		t.Fatalf("expected string to be interned on 4th occurrence")
	}
	if idx != 0 {
		t.Fatalf("expected first interned entry to have index 0, got %d", idx)
	}

	idx2, ok := si.Idx(s, internAuto)
	if !ok || idx2 != idx {
		t.Fatalf("expected stable index on repeat, got %d ok=%v", idx2, ok)
	}
}

func TestStringInternTinyStrNeverInterned(t *testing.T) {
	si := NewStringIntern(4, 1, 100)
	for i := 0; i < 10; i++ {
		if _, ok := si.Idx("abcd", internAuto); ok {
			t.Fatalf("tiny string must never intern")
		}
	}
}

func TestStringInternNeverPolicy(t *testing.T) {
	si := NewStringIntern(4, 1, 100)
	for i := 0; i < 10; i++ {
		if _, ok := si.Idx("a-long-enough-string", internNo); ok {
			t.Fatalf("internNo must never intern")
		}
	}
}

func TestStringInternAlwaysPolicy(t *testing.T) {
	si := NewStringIntern(4, 1000, 100)
	idx, ok := si.Idx("a-long-enough-key", internYes)
	if !ok || idx != 0 {
		t.Fatalf("internYes must intern immediately, got idx=%d ok=%v", idx, ok)
	}
}

func TestStringInternPurgeKeepsOrdering(t *testing.T) {
	si := NewStringIntern(4, 1, 100)
	idxA, _ := si.Idx("alpha-string-value", internYes)
	idxB, _ := si.Idx("beta-string-value", internYes)

	// Re-touch alpha enough to survive a purge with threshold 2; leave
	// beta untouched so it falls below threshold.
	si.Idx("alpha-string-value", internAuto)

	si.Purge(2)

	if _, ok := si.interned["alpha-string-value"]; !ok {
		t.Fatalf("alpha should survive purge (occurrences >= threshold)")
	}
	if _, ok := si.interned["beta-string-value"]; ok {
		t.Fatalf("beta should be purged (occurrences < threshold)")
	}
	// Ordered entries are untouched by purge: indices stay stable.
	if si.order[idxA] != "alpha-string-value" || si.order[idxB] != "beta-string-value" {
		t.Fatalf("purge must not renumber the ordered dictionary")
	}
}

func TestStringInternLRUEviction(t *testing.T) {
	si := NewStringIntern(4, 1000, 2) // cacheSize 2, threshold high so nothing interns
	si.Idx("candidate-one", internAuto)
	si.Idx("candidate-two", internAuto)
	si.Idx("candidate-three", internAuto) // evicts candidate-one

	// candidate-one should be treated as brand new again (count resets to 1).
	if si.shouldIntern("candidate-one") {
		t.Fatalf("candidate-one should not intern immediately after eviction")
	}
}

func TestStringInternPendingEntriesFlush(t *testing.T) {
	si := NewStringIntern(4, 1, 100)
	si.Idx("first-interned-string", internYes)
	pending := si.PendingEntries()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending entry, got %d", len(pending))
	}
	si.MarkFlushed()
	if len(si.PendingEntries()) != 0 {
		t.Fatalf("expected no pending entries after flush")
	}
	si.Idx("second-interned-string", internYes)
	pending = si.PendingEntries()
	if len(pending) != 1 || pending[0] != "second-interned-string" {
		t.Fatalf("expected only the tail added since last flush, got %v", pending)
	}
}
