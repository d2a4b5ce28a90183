package timex

import (
	"time"

	"lightcode-go/x/mathx"
)

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ticks converts a millisecond span into whole ticks of tickMs, rounding up.
// A non-zero span always yields at least one tick.
func Ticks(ms, tickMs uint32) uint32 {
	if tickMs == 0 {
		tickMs = 1
	}
	return mathx.CeilDiv(ms, tickMs)
}

// Period returns the ticker period for tickMs; 0 is coerced to 1 ms.
func Period(tickMs uint32) time.Duration {
	if tickMs == 0 {
		tickMs = 1
	}
	return time.Duration(tickMs) * time.Millisecond
}
