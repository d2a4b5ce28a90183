//go:build rp2040 || rp2350

// Package fmtx formats log lines. Host builds use fmt; firmware builds use
// a small formatter that covers the verbs logx callers use.
package fmtx

import (
	"io"

	"lightcode-go/x/strconvx"
)

// Verbs: %d %s %v %t %x %q %%. Flags and widths are skipped.

func Sprintf(format string, a ...any) string {
	return string(appendf(nil, format, a))
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return w.Write(appendf(make([]byte, 0, len(format)+16), format, a))
}

func appendf(buf []byte, format string, args []any) []byte {
	n := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			buf = append(buf, c)
			continue
		}
		i++
		for i < len(format) && isFlag(format[i]) {
			i++
		}
		if i >= len(format) {
			return append(buf, "%!(NOVERB)"...)
		}
		verb := format[i]
		if verb == '%' {
			buf = append(buf, '%')
			continue
		}
		if n >= len(args) {
			buf = append(buf, "%!"...)
			buf = append(buf, verb)
			buf = append(buf, "(MISSING)"...)
			continue
		}
		buf = appendArg(buf, args[n], verb)
		n++
	}
	return buf
}

func isFlag(c byte) bool {
	return c == '-' || c == '+' || c == '#' || c == ' ' || c == '.' || (c >= '0' && c <= '9')
}

func appendArg(buf []byte, v any, verb byte) []byte {
	base := 10
	if verb == 'x' {
		base = 16
	}
	switch x := v.(type) {
	case nil:
		return append(buf, "<nil>"...)
	case string:
		if verb == 'q' {
			return appendQuoted(buf, x)
		}
		return append(buf, x...)
	case []byte:
		return append(buf, x...)
	case bool:
		if x {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case error:
		return append(buf, x.Error()...)
	case interface{ String() string }:
		if verb == 'q' {
			return appendQuoted(buf, x.String())
		}
		return append(buf, x.String()...)
	case int:
		return appendInt(buf, int64(x), base)
	case int8:
		return appendInt(buf, int64(x), base)
	case int16:
		return appendInt(buf, int64(x), base)
	case int32:
		return appendInt(buf, int64(x), base)
	case int64:
		return appendInt(buf, x, base)
	case uint:
		return append(buf, strconvx.FormatUint(uint64(x), base)...)
	case uint8:
		return append(buf, strconvx.FormatUint(uint64(x), base)...)
	case uint16:
		return append(buf, strconvx.FormatUint(uint64(x), base)...)
	case uint32:
		return append(buf, strconvx.FormatUint(uint64(x), base)...)
	case uint64:
		return append(buf, strconvx.FormatUint(x, base)...)
	}
	return append(buf, "?"...)
}

func appendInt(buf []byte, n int64, base int) []byte {
	if n < 0 {
		buf = append(buf, '-')
		return append(buf, strconvx.FormatUint(uint64(-n), base)...)
	}
	return append(buf, strconvx.FormatUint(uint64(n), base)...)
}

func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			buf = append(buf, '\\', c)
		case '\n':
			buf = append(buf, '\\', 'n')
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}
