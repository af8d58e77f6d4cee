package debounce

import (
	"sync"
	"testing"
	"time"
)

func TestSessionWindow(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	var s Session

	steps := []struct {
		barcode string
		offset  time.Duration
		want    bool
	}{
		{"049000028911", 0, true},
		{"049000028911", 500 * time.Millisecond, false},
		{"049000028911", 3 * time.Second, true},
		{"5000112637922", 3100 * time.Millisecond, true},
		{"049000028911", 3200 * time.Millisecond, true},
	}
	for i, st := range steps {
		if got := s.Accept(st.barcode, base.Add(st.offset), 2*time.Second); got != st.want {
			t.Fatalf("step %d (%s at +%s): got %v want %v", i, st.barcode, st.offset, got, st.want)
		}
	}
}

func TestSessionRejectedScanDoesNotExtendWindow(t *testing.T) {
	base := time.Now()
	var s Session
	s.Accept("1", base, 2*time.Second)
	s.Accept("1", base.Add(1500*time.Millisecond), 2*time.Second)

	if !s.Accept("1", base.Add(2100*time.Millisecond), 2*time.Second) {
		t.Fatalf("window must be measured from the last acceptance")
	}
}

func TestSessionZeroWindowIsStringEquality(t *testing.T) {
	base := time.Now()
	var s Session
	if !s.Accept("1", base, 0) {
		t.Fatalf("first scan must be accepted")
	}
	if s.Accept("1", base.Add(time.Hour), 0) {
		t.Fatalf("repeat must be rejected regardless of elapsed time")
	}
	if !s.Accept("2", base.Add(time.Hour), 0) || !s.Accept("1", base.Add(time.Hour), 0) {
		t.Fatalf("a different barcode resets equality")
	}
}

func TestGuardConcurrent(t *testing.T) {
	g := NewGuard(time.Minute)
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Accept("42", now) {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if accepted != 1 {
		t.Fatalf("expected exactly one acceptance, got %d", accepted)
	}
}
