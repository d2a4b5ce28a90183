//go:build !(rp2040 || rp2350)

// Package strconvx is the part of strconv the light core needs, with a
// small allocation-light version for firmware builds.
package strconvx

import "strconv"

func Itoa(i int) string                    { return strconv.Itoa(i) }
func FormatUint(u uint64, base int) string { return strconv.FormatUint(u, base) }

func ParseUint(s string, base, bitSize int) (uint64, error) {
	return strconv.ParseUint(s, base, bitSize)
}
