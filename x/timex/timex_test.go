package timex

import (
	"testing"
	"time"
)

func TestTicksRoundsUp(t *testing.T) {
	if Ticks(250, 16) != 16 {
		t.Fatalf("got %d", Ticks(250, 16))
	}
	if Ticks(1, 16) != 1 {
		t.Fatal("short span must be one tick")
	}
	if Ticks(0, 16) != 0 {
		t.Fatal("zero span")
	}
	if Ticks(5, 0) != 5 {
		t.Fatal("zero tick coerced to 1ms")
	}
	if got := Ticks(0xFFFFFFFF, 16); got != 0x10000000 {
		t.Fatalf("near the top of the range: got %d", got)
	}
}

func TestPeriod(t *testing.T) {
	if Period(16) != 16*time.Millisecond {
		t.Fatal("period")
	}
	if Period(0) != time.Millisecond {
		t.Fatal("zero period")
	}
}
