package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestForSequentialFallback(t *testing.T) {
	cfg := Sequential()

	order := make([]int, 0, 10)
	For(10, func(i int) {
		order = append(order, i)
	}, cfg)

	for i, v := range order {
		if i != v {
			t.Fatalf("sequential For out of order at %d: got %d", i, v)
		}
	}
}

func TestForChunked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinChunkSize = 8

	n := 1000
	seen := make([]int32, n)

	ForChunked(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&seen[i], 1)
		}
	}, cfg)

	for i, v := range seen {
		if v != 1 {
			t.Fatalf("index %d visited %d times", i, v)
		}
	}
}

func TestForChunkedSmallN(t *testing.T) {
	cfg := DefaultConfig()

	calls := 0
	ForChunked(3, func(start, end int) {
		calls++
		if start != 0 || end != 3 {
			t.Fatalf("expected single chunk [0,3), got [%d,%d)", start, end)
		}
	}, cfg)

	if calls != 1 {
		t.Fatalf("expected 1 chunk for small n, got %d", calls)
	}
}
