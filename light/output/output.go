// Package output maps light levels onto PWM channel duties.
package output

// MaxChannels is the widest channel fan-out a profile may configure.
const MaxChannels = 3

// Duties holds one duty (0..255) per output channel. Unused channels stay 0.
type Duties [MaxChannels]uint8

// Off is the all-dark level.
var Off Duties

// Single returns duties with only the first channel set.
func Single(d uint8) Duties { return Duties{d} }

func (d Duties) IsOff() bool { return d == Off }

// Max returns the brightest channel's duty.
func (d Duties) Max() uint8 {
	m := d[0]
	for _, v := range d[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Driver is the PWM collaborator. Calls are fire-and-forget.
type Driver interface {
	SetChannelDuty(ch int, duty uint8)
}

// Mapper writes duties to a driver. Apply is idempotent: the same duties
// always produce the same sequence of driver calls.
type Mapper struct {
	drv       Driver
	channels  int
	activeLow bool
	last      Duties
}

// NewMapper clamps channels to [1, MaxChannels].
func NewMapper(drv Driver, channels int, activeLow bool) *Mapper {
	if channels < 1 {
		channels = 1
	}
	if channels > MaxChannels {
		channels = MaxChannels
	}
	return &Mapper{drv: drv, channels: channels, activeLow: activeLow}
}

func (m *Mapper) Channels() int { return m.channels }

// Apply writes every configured channel; duties beyond Channels are dropped.
func (m *Mapper) Apply(d Duties) {
	for ch := m.channels; ch < MaxChannels; ch++ {
		d[ch] = 0
	}
	for ch := 0; ch < m.channels; ch++ {
		m.drv.SetChannelDuty(ch, m.toPhys(d[ch]))
	}
	m.last = d
}

// Last returns the logical duties of the most recent Apply.
func (m *Mapper) Last() Duties { return m.last }

func (m *Mapper) toPhys(logical uint8) uint8 {
	if !m.activeLow {
		return logical
	}
	return 255 - logical
}
