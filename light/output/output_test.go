package output

import "testing"

type call struct {
	ch   int
	duty uint8
}

type fakeDriver struct{ calls []call }

func (f *fakeDriver) SetChannelDuty(ch int, duty uint8) {
	f.calls = append(f.calls, call{ch, duty})
}

func TestApplyIsIdempotent(t *testing.T) {
	drv := &fakeDriver{}
	m := NewMapper(drv, 2, false)

	m.Apply(Duties{40, 7, 99})
	first := append([]call(nil), drv.calls...)
	drv.calls = nil
	m.Apply(Duties{40, 7, 99})

	if len(first) != 2 || len(drv.calls) != 2 {
		t.Fatalf("expected 2 calls each, got %v / %v", first, drv.calls)
	}
	for i := range first {
		if first[i] != drv.calls[i] {
			t.Fatalf("call %d differs: %v vs %v", i, first[i], drv.calls[i])
		}
	}
	if m.Last() != (Duties{40, 7, 0}) {
		t.Fatalf("unused channel should be dropped, got %v", m.Last())
	}
}

func TestActiveLowInverts(t *testing.T) {
	drv := &fakeDriver{}
	m := NewMapper(drv, 1, true)
	m.Apply(Single(0))
	if drv.calls[0].duty != 255 {
		t.Fatalf("got %d", drv.calls[0].duty)
	}
	if m.Last() != Off {
		t.Fatal("logical value should be reported")
	}
}

func TestChannelClampAndMax(t *testing.T) {
	if NewMapper(&fakeDriver{}, 9, false).Channels() != MaxChannels {
		t.Fatal("upper clamp")
	}
	if NewMapper(&fakeDriver{}, 0, false).Channels() != 1 {
		t.Fatal("lower clamp")
	}
	if (Duties{3, 200, 10}).Max() != 200 {
		t.Fatal("max")
	}
}
