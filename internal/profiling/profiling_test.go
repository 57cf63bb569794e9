package profiling

import (
	"testing"
	"time"
)

func TestFormatMs(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0ms"},
		{4 * time.Millisecond, "4ms"},
		{4200 * time.Microsecond, "4.2ms"},
		{120 * time.Microsecond, "0.1ms"},
	}
	for _, tt := range tests {
		if got := formatMs(tt.in); got != tt.want {
			t.Errorf("formatMs(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTopN(t *testing.T) {
	ResetFrame()
	t.Cleanup(ResetFrame)
	mu.Lock()
	frameTotals[PhaseDraw] = 4 * time.Millisecond
	frameTotals[PhaseUpdate] = 2 * time.Millisecond
	frameTotals[PhaseEvents] = 2 * time.Millisecond
	mu.Unlock()

	if got, want := TopN(2), "frame.draw:4ms, frame.events:2ms"; got != want {
		t.Fatalf("TopN(2) = %q, want %q", got, want)
	}
	if got := TopN(10); got != "frame.draw:4ms, frame.events:2ms, frame.update:2ms" {
		t.Fatalf("TopN(10) = %q", got)
	}

	stop := Track(PhaseDraw)
	stop()
	if Snapshot()[PhaseDraw] < 4*time.Millisecond {
		t.Fatal("Track did not accumulate")
	}
	ResetFrame()
	if len(Snapshot()) != 0 || TopN(3) != "" {
		t.Fatal("ResetFrame left totals")
	}
}
