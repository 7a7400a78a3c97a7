package walkset

import (
	"sync"
	"testing"

	"github.com/minio/gwalker/internal/engine"
)

func TestManagerSeedAndPop(t *testing.T) {
	m := New(2, 10)
	if err := m.Seed(3, 0); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if got := m.Live(); got != 1 {
		t.Fatalf("Live() = %d, want 1", got)
	}
	e, ok := m.Pop(0)
	if !ok {
		t.Fatal("Pop returned ok=false, want a resident walk")
	}
	if e.Cur != 3 || e.W.Source() != 3 || e.W.Hop() != 0 {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, ok := m.Pop(0); ok {
		t.Error("Pop on an empty queue should report ok=false")
	}
}

func TestManagerAdvanceStopsAtMaxSteps(t *testing.T) {
	m := New(1, 3)
	w, _ := NewWalk(0, 2)
	e := Entry{W: w, Cur: 0}
	_, done := m.Advance(e, 1)
	if !done {
		t.Error("Advance at hop=nsteps-1 should terminate the walk")
	}
}

func TestManagerHottestMaxWalks(t *testing.T) {
	m := New(3, 10)
	for i := 0; i < 5; i++ {
		m.Seed(uint32(i), 1)
	}
	m.Seed(99, 2)

	k, ok := m.Hottest(engine.PolicyMaxWalks)
	if !ok || k != 1 {
		t.Fatalf("Hottest(MaxWalks) = %d, %v, want block 1", k, ok)
	}
}

func TestManagerHottestReportsNoneWhenEmpty(t *testing.T) {
	m := New(2, 10)
	if _, ok := m.Hottest(engine.PolicyMaxWalks); ok {
		t.Error("Hottest on an all-empty manager should report ok=false")
	}
}

func TestManagerConcurrentPushPop(t *testing.T) {
	m := New(1, 100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v uint32) {
			defer wg.Done()
			m.Seed(v, 0)
		}(uint32(i))
	}
	wg.Wait()

	if got := m.Live(); got != 50 {
		t.Fatalf("Live() = %d, want 50", got)
	}

	count := 0
	for {
		if _, ok := m.Pop(0); !ok {
			break
		}
		count++
	}
	if count != 50 {
		t.Fatalf("popped %d walks, want 50", count)
	}
}
