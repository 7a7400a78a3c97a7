package walkset

import "testing"

func TestWalkEncodeRoundTrip(t *testing.T) {
	cases := []struct {
		source, hop uint32
	}{
		{0, 0},
		{1, 1},
		{1<<23 - 1, 511},
		{42, 17},
	}
	for _, c := range cases {
		w, err := NewWalk(c.source, c.hop)
		if err != nil {
			t.Fatalf("NewWalk(%d, %d): %v", c.source, c.hop, err)
		}
		if got := w.Source(); got != c.source {
			t.Errorf("Source() = %d, want %d", got, c.source)
		}
		if got := w.Hop(); got != c.hop {
			t.Errorf("Hop() = %d, want %d", got, c.hop)
		}
	}
}

func TestWalkEncodeRejectsOverflow(t *testing.T) {
	if _, err := NewWalk(1<<23, 0); err == nil {
		t.Error("expected WalkOverflow for source id exceeding 23 bits")
	}
	if _, err := NewWalk(0, 512); err == nil {
		t.Error("expected WalkOverflow for hop count exceeding 9 bits")
	}
}

func TestWalkAdvanced(t *testing.T) {
	w, _ := NewWalk(5, 510)
	w2, ok := w.Advanced()
	if !ok || w2.Hop() != 511 {
		t.Fatalf("Advanced() = %v, %v, want hop=511", w2, ok)
	}
	if _, ok := w2.Advanced(); ok {
		t.Error("Advanced() past the 9-bit bound should report overflow")
	}
}
