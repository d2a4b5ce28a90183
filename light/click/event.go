// Package click turns debounced switch samples into gestures.
package click

import "sync/atomic"

type Kind uint8

const (
	None Kind = iota
	ShortClick
	MediumClick
	LongClick
	DoubleClick
	TripleClick
	MultiClick // Count >= 4
	Hold       // still held after LongClick; Held carries the press length
	Release    // end of a long press
	OffTimeShort
	OffTimeMedium
	OffTimeLong
)

var kindNames = [...]string{
	None:          "none",
	ShortClick:    "short",
	MediumClick:   "medium",
	LongClick:     "long",
	DoubleClick:   "double",
	TripleClick:   "triple",
	MultiClick:    "multi",
	Hold:          "hold",
	Release:       "release",
	OffTimeShort:  "offtime_short",
	OffTimeMedium: "offtime_medium",
	OffTimeLong:   "offtime_long",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Event is one classified gesture. Count is the number of clicks for
// click kinds; Held is the press length in ticks for LongClick/Hold/Release.
type Event struct {
	Kind  Kind
	Count uint8
	Held  uint32
}

func (e Event) IsZero() bool { return e.Kind == None }

// clickEvent maps an accumulated count onto its event.
func clickEvent(n uint8) Event {
	switch n {
	case 1:
		return Event{Kind: ShortClick, Count: 1}
	case 2:
		return Event{Kind: DoubleClick, Count: 2}
	case 3:
		return Event{Kind: TripleClick, Count: 3}
	}
	return Event{Kind: MultiClick, Count: n}
}

// Latest is a single-slot mailbox between the tick interrupt and the main
// loop. Post overwrites; Take empties. Only the newest event survives.
type Latest struct {
	v       atomic.Uint64
	dropped atomic.Uint32
}

const validBit = 1 << 63

func pack(e Event) uint64 {
	return validBit | uint64(e.Kind) | uint64(e.Count)<<8 | uint64(e.Held)<<16
}

func unpack(v uint64) Event {
	return Event{Kind: Kind(v & 0xFF), Count: uint8(v >> 8), Held: uint32(v >> 16)}
}

// Post stores e, replacing any unconsumed event. Safe from interrupt context.
func (l *Latest) Post(e Event) {
	if e.Kind == None {
		return
	}
	if l.v.Swap(pack(e))&validBit != 0 {
		l.dropped.Add(1)
	}
}

// Take returns and clears the pending event.
func (l *Latest) Take() (Event, bool) {
	v := l.v.Swap(0)
	if v&validBit == 0 {
		return Event{}, false
	}
	return unpack(v), true
}

// Dropped counts events overwritten before they were taken.
func (l *Latest) Dropped() uint32 { return l.dropped.Load() }
