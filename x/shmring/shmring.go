// Package shmring is a single-producer, single-consumer byte ring. Writers
// never block: bytes that do not fit are dropped and counted.
package shmring

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	dropped  atomic.Uint32
	readable chan struct{} // 0->>0 available edge
}

// New allocates a ring; size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

func (r *Ring) Space() int {
	return int(r.size() - (r.wr.Load() - r.rd.Load()))
}

func (r *Ring) Available() int {
	return int(r.wr.Load() - r.rd.Load())
}

// Dropped counts bytes refused by Write since creation.
func (r *Ring) Dropped() uint32 { return r.dropped.Load() }

func (r *Ring) Readable() <-chan struct{} { return r.readable }

// TryWriteFrom copies as much of src as fits and returns the count.
func (r *Ring) TryWriteFrom(src []byte) (n int) {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	beforeAvail := wr - rd
	space := int(r.size() - beforeAvail)
	if space <= 0 {
		return 0
	}
	if len(src) < space {
		space = len(src)
	}
	n = space

	wrIdx := wr & r.mask
	first := int(r.size() - wrIdx)
	if first > n {
		first = n
	}
	copy(r.buf[wrIdx:wrIdx+uint32(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:n])
	}
	r.wr.Store(wr + uint32(n))

	if beforeAvail == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return n
}

// Write keeps a line whole or drops it: a partial write would interleave
// half-lines in the output.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) > r.Space() {
		r.dropped.Add(uint32(len(p)))
		return len(p), nil
	}
	r.TryWriteFrom(p)
	return len(p), nil
}

// TryReadInto copies up to len(dst) buffered bytes.
func (r *Ring) TryReadInto(dst []byte) (n int) {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	if len(dst) < avail {
		avail = len(dst)
	}
	n = avail

	rdIdx := rd & r.mask
	first := int(r.size() - rdIdx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n))
	return n
}

// Drain copies buffered bytes to w until ctx is done or w fails. The
// readable edge can be missed when a write races the final read, so it
// also polls every poll interval.
func (r *Ring) Drain(ctx context.Context, w io.Writer, poll time.Duration) error {
	if poll <= 0 {
		poll = 20 * time.Millisecond
	}
	t := time.NewTicker(poll)
	defer t.Stop()
	var tmp [64]byte
	for {
		for {
			n := r.TryReadInto(tmp[:])
			if n == 0 {
				break
			}
			if _, err := w.Write(tmp[:n]); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.readable:
		case <-t.C:
		}
	}
}
