//go:build !(rp2040 || rp2350)

package eeprom

import (
	"fmt"
	"os"
	"sync"
)

// File keeps cells in a file so a simulated light remembers its mode
// between runs. A new file starts fully erased.
type File struct {
	mu   sync.Mutex
	f    *os.File
	size int
}

// OpenFile opens or creates path holding size cells. An existing file of
// a different size is an error.
func OpenFile(path string, size int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	switch st.Size() {
	case 0:
		blank := make([]byte, size)
		for i := range blank {
			blank[i] = erased
		}
		if _, err := f.WriteAt(blank, 0); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("eeprom file init: %w", err)
		}
	case int64(size):
	default:
		_ = f.Close()
		return nil, fmt.Errorf("eeprom file %s holds %d cells, want %d: %w", path, st.Size(), size, os.ErrInvalid)
	}
	return &File{f: f, size: size}, nil
}

func (f *File) Len() int { return f.size }

func (f *File) ReadCell(i int) (byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(i)
}

// caller holds lock
func (f *File) read(i int) (byte, error) {
	if i < 0 || i >= f.size {
		return 0, ErrRange
	}
	var b [1]byte
	if _, err := f.f.ReadAt(b[:], int64(i)); err != nil {
		return 0, fmt.Errorf("eeprom read at %d: %w", i, err)
	}
	return b[0], nil
}

func (f *File) WriteCell(i int, b byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, err := f.read(i)
	if err != nil {
		return err
	}
	if cur&b != b {
		return ErrWriteRequiresErase
	}
	if _, err := f.f.WriteAt([]byte{b}, int64(i)); err != nil {
		return fmt.Errorf("eeprom write at %d: %w", i, err)
	}
	return nil
}

func (f *File) EraseCell(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= f.size {
		return ErrRange
	}
	if _, err := f.f.WriteAt([]byte{erased}, int64(i)); err != nil {
		return fmt.Errorf("eeprom erase at %d: %w", i, err)
	}
	return nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Close()
}
