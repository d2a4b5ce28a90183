// Package persist keeps the user's light state across power loss.
//
// The durable cells are divided into fixed-size slots used as a ring. Each
// save writes the next slot in full, commits it by writing the marker byte
// last, and only then invalidates the previous slot. A power cut at any
// point leaves either the previous or the new record readable.
package persist

import (
	"errors"

	"lightcode-go/errcode"
	"lightcode-go/x/crcx"
	"lightcode-go/x/logx"
)

const (
	Erased   = 0xFF
	Marker   = 0x5D
	SlotSize = 8
)

// Slot layout.
const (
	offSeq = iota
	offMode
	offGroup
	offRamp
	offRsvd
	offCRCLo
	offCRCHi
	offMarker
)

const (
	flagHigh = 0x80 // ShortPress in the mode byte, Locked in the group byte
	maxIndex = 0x7F
)

// Cells is a byte-addressable durable store with an explicit erase.
// EraseCell resets a cell to Erased.
type Cells interface {
	Len() int
	ReadCell(i int) (byte, error)
	WriteCell(i int, b byte) error
	EraseCell(i int) error
}

// State is the persisted part of the UI.
// Mode is a flat position in the group: normal levels first, hidden after.
// Ramp is a 1-based ramp position, 0 when a discrete mode is selected.
type State struct {
	Mode       uint8
	ShortPress bool
	Locked     bool
	Group      uint8
	Ramp       uint8
}

var errTooSmall = errors.New("store needs at least two slots")

type Store struct {
	cells  Cells
	slots  int
	cursor int
	seq    uint8
	have   bool
	last   State
	writes uint32
}

// New wraps cells. The store must hold at least two slots.
func New(c Cells) (*Store, error) {
	n := c.Len() / SlotSize
	if n < 2 {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "persist.new", Err: errTooSmall}
	}
	return &Store{cells: c, slots: n, cursor: n - 1}, nil
}

func (s *Store) Slots() int  { return s.slots }
func (s *Store) Cursor() int { return s.cursor }

// Writes counts cell writes and erases issued by this store.
func (s *Store) Writes() uint32 { return s.writes }

// Load scans every slot and returns the newest valid record. With none it
// returns the zero State and errcode.UnreadableStore; the next save then
// starts at slot 0. Stale valid slots left by an interrupted save are erased.
func (s *Store) Load() (State, error) {
	best := -1
	var bestBuf [SlotSize]byte
	var valid []int
	for i := 0; i < s.slots; i++ {
		buf, ok := s.readSlot(i)
		if !ok {
			continue
		}
		valid = append(valid, i)
		if best < 0 || newer(buf[offSeq], bestBuf[offSeq]) {
			best, bestBuf = i, buf
		}
	}
	if best < 0 {
		s.cursor, s.seq, s.have, s.last = s.slots-1, 0, false, State{}
		return State{}, errcode.UnreadableStore
	}
	for _, i := range valid {
		if i == best {
			continue
		}
		if err := s.eraseSlot(i); err != nil {
			logx.Debug("persist: stale slot %d not cleared: %v", i, err)
		}
	}
	s.cursor, s.seq, s.have = best, bestBuf[offSeq], true
	s.last = decode(bestBuf)
	return s.last, nil
}

// Save persists st. Saving the value already stored is a no-op.
func (s *Store) Save(st State) error {
	st.Mode &= maxIndex
	st.Group &= maxIndex
	if s.have && st == s.last {
		return nil
	}
	next := (s.cursor + 1) % s.slots
	seq := s.seq + 1
	buf := encode(st, seq)
	base := next * SlotSize

	if err := s.eraseSlot(next); err != nil {
		return wrapWrite(err)
	}
	for i := 0; i < offMarker; i++ {
		if err := s.write(base+i, buf[i]); err != nil {
			return wrapWrite(err)
		}
	}
	if err := s.write(base+offMarker, Marker); err != nil {
		return wrapWrite(err)
	}

	old, hadOld := s.cursor, s.have
	s.cursor, s.seq, s.have, s.last = next, seq, true, st
	if hadOld && old != next {
		// Marker first so the old slot stops being valid before its payload goes.
		if err := s.erase(old*SlotSize + offMarker); err != nil {
			return wrapWrite(err)
		}
		for i := 0; i < offMarker; i++ {
			if err := s.erase(old*SlotSize + i); err != nil {
				return wrapWrite(err)
			}
		}
	}
	return nil
}

func wrapWrite(err error) error {
	return &errcode.E{C: errcode.WriteInterrupted, Op: "persist.save", Err: err}
}

func (s *Store) readSlot(slot int) ([SlotSize]byte, bool) {
	var buf [SlotSize]byte
	base := slot * SlotSize
	for i := range buf {
		b, err := s.cells.ReadCell(base + i)
		if err != nil {
			return buf, false
		}
		buf[i] = b
	}
	if buf[offMarker] != Marker {
		return buf, false
	}
	crc := crcx.CRC16(buf[:offCRCLo])
	return buf, buf[offCRCLo] == byte(crc) && buf[offCRCHi] == byte(crc>>8)
}

// eraseSlot resets any cell of slot that is not already erased, marker first.
func (s *Store) eraseSlot(slot int) error {
	base := slot * SlotSize
	order := [SlotSize]int{offMarker, 0, 1, 2, 3, 4, 5, 6}
	for _, i := range order {
		b, err := s.cells.ReadCell(base + i)
		if err == nil && b == Erased {
			continue
		}
		if err := s.erase(base + i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) write(i int, b byte) error {
	s.writes++
	return s.cells.WriteCell(i, b)
}

func (s *Store) erase(i int) error {
	s.writes++
	return s.cells.EraseCell(i)
}

// newer compares sequence numbers with serial arithmetic.
func newer(a, b uint8) bool { return int8(a-b) > 0 }

func encode(st State, seq uint8) [SlotSize]byte {
	var buf [SlotSize]byte
	buf[offSeq] = seq
	buf[offMode] = st.Mode & maxIndex
	if st.ShortPress {
		buf[offMode] |= flagHigh
	}
	buf[offGroup] = st.Group & maxIndex
	if st.Locked {
		buf[offGroup] |= flagHigh
	}
	buf[offRamp] = st.Ramp
	crc := crcx.CRC16(buf[:offCRCLo])
	buf[offCRCLo] = byte(crc)
	buf[offCRCHi] = byte(crc >> 8)
	buf[offMarker] = Marker
	return buf
}

func decode(buf [SlotSize]byte) State {
	return State{
		Mode:       buf[offMode] & maxIndex,
		ShortPress: buf[offMode]&flagHigh != 0,
		Group:      buf[offGroup] & maxIndex,
		Locked:     buf[offGroup]&flagHigh != 0,
		Ramp:       buf[offRamp],
	}
}
