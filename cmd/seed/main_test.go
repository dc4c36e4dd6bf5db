package main

import (
	"testing"
	"time"
)

// The corpus is keyed by seed alone: a rerun with the same arguments must
// reproduce every trade, IDs included, since IDs break replay-order ties.
func TestGenerate_DeterministicPerSeed(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	strategies := []string{"arbitrage", "sandwich"}
	networks := []string{"ethereum", "polygon"}

	first := generate(200, start, 30, 7, strategies, networks)
	second := generate(200, start, 30, 7, strategies, networks)

	if len(first) != len(second) {
		t.Fatalf("corpus sizes diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Fatalf("trade %d diverged: %+v vs %+v", i, first[i], second[i])
		}
	}

	seen := make(map[string]struct{}, len(first))
	for _, tr := range first {
		if _, dup := seen[tr.ID]; dup {
			t.Fatalf("duplicate ID %s in generated corpus", tr.ID)
		}
		seen[tr.ID] = struct{}{}
	}

	other := generate(200, start, 30, 8, strategies, networks)
	if other[0].ID == first[0].ID {
		t.Error("different seeds produced the same leading ID")
	}
}
