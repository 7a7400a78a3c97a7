package walkkernel

import "testing"

func TestStepAlwaysRestartsAtDeadEnd(t *testing.T) {
	k := New(0.0)
	rng := NewRNG(1)
	for i := 0; i < 100; i++ {
		if got := k.Step(rng, 7, nil); got >= 7 {
			t.Fatalf("Step at a dead end = %d, want a vertex in [0,7)", got)
		}
	}
}

func TestStepAlwaysRestartsWhenAlphaIsOne(t *testing.T) {
	k := New(1.0)
	rng := NewRNG(2)
	neighbors := []uint32{1, 2, 3}
	for i := 0; i < 100; i++ {
		if got := k.Step(rng, 9, neighbors); got >= 9 {
			t.Fatalf("Step with alpha=1 = %d, want a vertex in [0,9)", got)
		}
	}
}

func TestStepRestartCoversTheWholeVertexRange(t *testing.T) {
	k := New(1.0)
	rng := NewRNG(4)
	seen := map[uint32]bool{}
	for i := 0; i < 500; i++ {
		v := k.Step(rng, 4, nil)
		if v >= 4 {
			t.Fatalf("Step returned %d, out of range [0,4)", v)
		}
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Errorf("restart visited %d distinct vertices out of 4 over 500 draws, want all 4", len(seen))
	}
}

func TestStepStaysInNeighborSetWhenAlphaIsZero(t *testing.T) {
	k := New(0.0)
	rng := NewRNG(3)
	neighbors := []uint32{10, 20, 30}
	seen := map[uint32]bool{}
	for i := 0; i < 200; i++ {
		v := k.Step(rng, 31, neighbors)
		found := false
		for _, n := range neighbors {
			if v == n {
				found = true
			}
		}
		if !found {
			t.Fatalf("Step returned %d, not a member of the neighbor set", v)
		}
		seen[v] = true
	}
	if len(seen) != len(neighbors) {
		t.Errorf("Step visited %d distinct neighbors out of %d over 200 draws", len(seen), len(neighbors))
	}
}

func TestRNGIsDeterministicForAGivenSeed(t *testing.T) {
	k := New(0.3)
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)
	neighbors := []uint32{1, 2, 3, 4, 5}
	for i := 0; i < 50; i++ {
		if a, b := k.Step(rng1, 6, neighbors), k.Step(rng2, 6, neighbors); a != b {
			t.Fatalf("step %d diverged between identically seeded RNGs: %d vs %d", i, a, b)
		}
	}
}
