package engine

import (
	"sync"
	"testing"
)

func TestHolder_Swap(t *testing.T) {
	first := newTestEngine(t, nil)
	second := newTestEngine(t, nil)

	h := NewHolder(first)
	if h.Get() != first {
		t.Fatal("Get() should return the initial engine")
	}
	if prev := h.Swap(second); prev != first {
		t.Error("Swap() should return the previous engine")
	}
	if h.Get() != second {
		t.Error("Get() should return the swapped engine")
	}
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	a := newTestEngine(t, nil)
	b := newTestEngine(t, nil)
	h := NewHolder(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if e := h.Get(); e != a && e != b {
					t.Error("observed an engine that was never stored")
					return
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		h.Swap(b)
		h.Swap(a)
	}
	wg.Wait()
}
