package fmtx

import (
	"bytes"
	"errors"
	"testing"
)

type mode uint8

func (m mode) String() string { return "ramp" }

func TestSprintfLogVerbs(t *testing.T) {
	cases := []struct {
		format string
		args   []any
		want   string
	}{
		{"ui: boot mode=%d", []any{3}, "ui: boot mode=3"},
		{"group %d of %d", []any{uint8(2), int64(4)}, "group 2 of 4"},
		{"duty %x", []any{255}, "duty ff"},
		{"locked=%t", []any{true}, "locked=true"},
		{"store: %v", []any{errors.New("crc")}, "store: crc"},
		{"state %s", []any{mode(1)}, "state ramp"},
		{"profile %q", []any{"blf-a6"}, `profile "blf-a6"`},
		{"100%%", nil, "100%"},
	}
	for _, c := range cases {
		if got := Sprintf(c.format, c.args...); got != c.want {
			t.Fatalf("Sprintf(%q) = %q, want %q", c.format, got, c.want)
		}
	}
}

func TestFprintfWritesOnce(t *testing.T) {
	var buf bytes.Buffer
	n, err := Fprintf(&buf, "[INFO] %s\n", "up")
	if err != nil || n != buf.Len() || buf.String() != "[INFO] up\n" {
		t.Fatalf("got %q n=%d err=%v", buf.String(), n, err)
	}
}
