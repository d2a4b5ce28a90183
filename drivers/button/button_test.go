package button

import "testing"

func TestManual(t *testing.T) {
	var m Manual
	if m.Pressed() {
		t.Fatal("starts released")
	}
	if !m.Toggle() || !m.Pressed() {
		t.Fatal("toggle should press")
	}
	m.Set(false)
	if m.Pressed() {
		t.Fatal("set released")
	}
}
