//go:build !(rp2040 || rp2350)

// Package fmtx formats log lines. Host builds use fmt; firmware builds use
// a small formatter that covers the verbs logx callers use.
package fmtx

import (
	"fmt"
	"io"
)

func Sprintf(format string, a ...any) string                    { return fmt.Sprintf(format, a...) }
func Fprintf(w io.Writer, format string, a ...any) (int, error) { return fmt.Fprintf(w, format, a...) }
