package ramp

import "testing"

func TestLinearEndpointsAndSpacing(t *testing.T) {
	tbl := Linear(5, 10, 50)
	want := []uint8{10, 20, 30, 40, 50}
	for i := range want {
		if tbl[i] != want[i] {
			t.Fatalf("idx %d: got %d want %d (%v)", i, tbl[i], want[i], tbl)
		}
	}
	if Linear(0, 1, 2) != nil {
		t.Fatal("n=0 should be nil")
	}
	if one := Linear(1, 3, 200); len(one) != 1 || one[0] != 200 {
		t.Fatalf("n=1: %v", one)
	}
}

func TestPowerIsMonotonic(t *testing.T) {
	for _, n := range []int{2, 3, 16, 64, 150} {
		tbl := Power(n, 1, 255, 3)
		if len(tbl) != n {
			t.Fatalf("len %d want %d", len(tbl), n)
		}
		if tbl[0] != 1 || tbl[n-1] != 255 {
			t.Fatalf("n=%d endpoints %d..%d", n, tbl[0], tbl[n-1])
		}
		if !Monotonic(tbl) {
			t.Fatalf("n=%d not monotonic: %v", n, tbl)
		}
	}
}

func TestMonotonic(t *testing.T) {
	if Monotonic([]uint8{1, 2, 2, 1}) {
		t.Fatal("decreasing table accepted")
	}
	if !Monotonic(nil) {
		t.Fatal("empty table is monotonic")
	}
}
