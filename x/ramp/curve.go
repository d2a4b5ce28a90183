// Package ramp builds brightness ramp tables.
// Every table it returns is monotonic non-decreasing and starts at lo and ends at hi.
package ramp

import "lightcode-go/x/mathx"

// Linear returns n evenly spaced levels from lo to hi using an integer
// error accumulator, so no step differs from another by more than one.
// n==0 yields nil; n==1 yields [hi].
func Linear(n int, lo, hi uint8) []uint8 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []uint8{hi}
	}
	lo, hi = mathx.Min(lo, hi), mathx.Max(lo, hi)
	out := make([]uint8, n)
	d := int32(hi) - int32(lo)
	st := int32(n - 1)
	cur := int32(lo)
	acc := int32(0)
	out[0] = lo
	for i := 1; i < n; i++ {
		acc += d
		inc := acc / st
		if inc != 0 {
			acc -= inc * st
			cur = mathx.Clamp(cur+inc, int32(lo), int32(hi))
		}
		out[i] = uint8(cur)
	}
	out[n-1] = hi
	return out
}

// Power returns n levels following lo + (hi-lo)*(i/(n-1))^exp.
// exp < 1 is treated as 1. Perceived brightness tracks roughly the cube.
func Power(n int, lo, hi uint8, exp int) []uint8 {
	if exp < 1 {
		exp = 1
	}
	if n <= 1 || exp == 1 {
		return Linear(n, lo, hi)
	}
	lo, hi = mathx.Min(lo, hi), mathx.Max(lo, hi)
	span := uint64(hi - lo)
	den := pow(uint64(n-1), exp)
	out := make([]uint8, n)
	for i := 0; i < n; i++ {
		num := pow(uint64(i), exp) * span
		out[i] = lo + uint8(mathx.RoundDiv(num, den))
	}
	return out
}

func pow(b uint64, e int) uint64 {
	r := uint64(1)
	for ; e > 0; e-- {
		r *= b
	}
	return r
}

// Monotonic reports whether tbl never decreases.
func Monotonic(tbl []uint8) bool {
	for i := 1; i < len(tbl); i++ {
		if tbl[i] < tbl[i-1] {
			return false
		}
	}
	return true
}
