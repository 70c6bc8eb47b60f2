package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	lim := NewLimiter(1, 100, Every(interval))

	tooshort := 1 * time.Millisecond

	client := "student-1"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := lim.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterWithBurst(t *testing.T) {
	client := "student-1"
	burst := 10

	interval := 100 * time.Millisecond
	tooshort := 10 * time.Millisecond
	shortest := 1 * time.Millisecond

	// The whole burst is available upfront, then refills one per interval.
	expected := make([]bool, 0, 16)
	waits := make([]time.Duration, 0, 16)
	for i := 0; i < burst; i++ {
		expected = append(expected, true)
		waits = append(waits, 0)
	}
	expected = append(expected, false, true, true, false, false, false)
	waits = append(waits, interval, interval, tooshort, tooshort, shortest, shortest)

	lim := NewLimiter(burst, 100, Every(interval))
	for i, exp := range expected {
		if got := lim.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	lim := NewLimiter(1, 100, Every(time.Minute))

	if !lim.Check("a") {
		t.Fatal("first request of client a should pass")
	}
	if lim.Check("a") {
		t.Fatal("second request of client a should be limited")
	}
	if !lim.Check("b") {
		t.Fatal("client b must not inherit client a's limit")
	}
}
