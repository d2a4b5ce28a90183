package click

// OffTimeSensor exposes the charge left on a capacitor (or a counter) that
// decays while power is off. A high value means a brief interruption.
type OffTimeSensor interface {
	ReadDecay() uint8
	Clear()
}

type OffTimeConfig struct {
	ShortAbove  uint8 // decay above this: brief tap
	MediumAbove uint8 // decay above this: medium tap
}

func DefaultOffTimeConfig() OffTimeConfig {
	return OffTimeConfig{ShortAbove: 190, MediumAbove: 94}
}

// ReadOffTime classifies the power-off duration and clears the sensor so
// the next boot does not see a stale value. A nil sensor reads as long.
func ReadOffTime(s OffTimeSensor, cfg OffTimeConfig) Event {
	if s == nil {
		return Event{Kind: OffTimeLong}
	}
	v := s.ReadDecay()
	s.Clear()
	switch {
	case v > cfg.ShortAbove:
		return Event{Kind: OffTimeShort}
	case v > cfg.MediumAbove:
		return Event{Kind: OffTimeMedium}
	}
	return Event{Kind: OffTimeLong}
}
