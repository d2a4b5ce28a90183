//go:build rp2040 || rp2350

// Package strconvx is the part of strconv the light core needs, with a
// small allocation-light version for firmware builds.
package strconvx

const digits = "0123456789abcdef"

type numError string

func (e numError) Error() string { return "strconvx: " + string(e) }

const (
	errSyntax numError = "invalid syntax"
	errRange  numError = "value out of range"
	errBase   numError = "invalid base"
)

func Itoa(i int) string {
	if i < 0 {
		return "-" + FormatUint(uint64(-int64(i)), 10)
	}
	return FormatUint(uint64(i), 10)
}

// FormatUint supports bases 2 to 16.
func FormatUint(u uint64, base int) string {
	if base < 2 || base > len(digits) {
		return ""
	}
	var buf [64]byte
	i := len(buf)
	for {
		i--
		buf[i] = digits[u%uint64(base)]
		u /= uint64(base)
		if u == 0 {
			break
		}
	}
	return string(buf[i:])
}

// ParseUint accepts bases 2 to 16, or 0 for a 0x/0b/0 prefix.
func ParseUint(s string, base, bitSize int) (uint64, error) {
	if s == "" {
		return 0, errSyntax
	}
	if base == 0 {
		base = 10
		switch {
		case len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X'):
			base, s = 16, s[2:]
		case len(s) > 2 && s[0] == '0' && (s[1] == 'b' || s[1] == 'B'):
			base, s = 2, s[2:]
		case len(s) > 1 && s[0] == '0':
			base, s = 8, s[1:]
		}
	}
	if base < 2 || base > len(digits) {
		return 0, errBase
	}
	if bitSize <= 0 || bitSize > 64 {
		bitSize = 64
	}
	max := uint64(1)<<uint(bitSize) - 1
	if bitSize == 64 {
		max = ^uint64(0)
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		d := digitVal(s[i])
		if d >= base {
			return 0, errSyntax
		}
		if n > (max-uint64(d))/uint64(base) {
			return max, errRange
		}
		n = n*uint64(base) + uint64(d)
	}
	return n, nil
}

func digitVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}
