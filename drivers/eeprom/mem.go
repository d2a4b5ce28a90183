package eeprom

import "sync"

// Mem is an in-memory cell array. Writes may only clear bits. CutAfter
// arms a power cut: the n-th following mutation and every one after it
// fail with ErrPowerLost until Restore.
type Mem struct {
	mu     sync.Mutex
	buf    []byte
	cut    int // mutations left before the cut; <0 disarmed
	down   bool
	Writes int
	Erases int
}

// NewMem returns n erased cells.
func NewMem(n int) *Mem {
	m := &Mem{buf: make([]byte, n), cut: -1}
	for i := range m.buf {
		m.buf[i] = erased
	}
	return m
}

func (m *Mem) Len() int { return len(m.buf) }

func (m *Mem) ReadCell(i int) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.buf) {
		return 0, ErrRange
	}
	return m.buf[i], nil
}

func (m *Mem) WriteCell(i int, b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.mutate(i); err != nil {
		return err
	}
	if m.buf[i]&b != b {
		return ErrWriteRequiresErase
	}
	m.buf[i] = b
	m.Writes++
	return nil
}

func (m *Mem) EraseCell(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.mutate(i); err != nil {
		return err
	}
	m.buf[i] = erased
	m.Erases++
	return nil
}

// caller holds lock
func (m *Mem) mutate(i int) error {
	if i < 0 || i >= len(m.buf) {
		return ErrRange
	}
	if m.down {
		return ErrPowerLost
	}
	if m.cut == 0 {
		m.down = true
		return ErrPowerLost
	}
	if m.cut > 0 {
		m.cut--
	}
	return nil
}

// CutAfter lets n more mutations through, then fails the rest.
func (m *Mem) CutAfter(n int) {
	m.mu.Lock()
	m.cut, m.down = n, false
	m.mu.Unlock()
}

// Restore brings power back. Contents are kept.
func (m *Mem) Restore() {
	m.mu.Lock()
	m.cut, m.down = -1, false
	m.mu.Unlock()
}

// Snapshot copies the raw contents.
func (m *Mem) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.buf...)
}
