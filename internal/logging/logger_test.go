package logging

import (
	"testing"
	"time"
)

func TestTimerStop(t *testing.T) {
	timer := StartTimer(CategoryStore, "op")
	time.Sleep(time.Millisecond)
	if elapsed := timer.Stop(); elapsed <= 0 {
		t.Errorf("elapsed = %v, want > 0", elapsed)
	}
}

// StopWithInfo takes no arguments; call sites log their own counts through
// the category functions.
func TestTimerStopWithInfo(t *testing.T) {
	timer := StartTimer(CategoryEmbedding, "op")
	time.Sleep(time.Millisecond)
	if elapsed := timer.StopWithInfo(); elapsed <= 0 {
		t.Errorf("elapsed = %v, want > 0", elapsed)
	}
}
