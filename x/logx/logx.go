// Package logx is a small levelled logger.
// Lines look like "[INFO] ui: boot mode=3"; the sink is swappable for tests and UARTs.
package logx

import (
	"io"
	"sync"

	"lightcode-go/x/fmtx"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

var levelTags = [...]string{"[DEBUG] ", "[INFO] ", "[WARN] ", "[ERROR] "}

var (
	mu     sync.Mutex
	level  = LevelInfo
	output io.Writer = defaultOutput()
)

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// SetVerbose is shorthand for SetLevel(LevelDebug) or SetLevel(LevelInfo).
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelInfo)
}

// SetOutput replaces the sink. nil discards everything.
func SetOutput(w io.Writer) {
	mu.Lock()
	if w == nil {
		w = io.Discard
	}
	output = w
	mu.Unlock()
}

// Enabled reports whether l would be written.
func Enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l >= level && l < LevelOff
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level || l >= LevelOff {
		return
	}
	fmtx.Fprintf(output, levelTags[l]+format+"\n", args...)
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }
func Info(format string, args ...any)  { logf(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { logf(LevelWarn, format, args...) }
func Error(format string, args ...any) { logf(LevelError, format, args...) }
