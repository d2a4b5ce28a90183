package regulate

import "lightcode-go/x/mathx"

// glitchFilter drops an implausible reading once. While readings stay
// implausible every one after the first is accepted, so a real change
// costs a single tick.
type glitchFilter struct {
	min, max uint8
	maxJump  uint8 // 0 disables the jump check
	est      uint8
	valid    bool
	suspect  bool
	count    uint32
	last     uint8 // most recent dropped reading
}

func (g *glitchFilter) implausible(v uint8) bool {
	if !mathx.Between(v, g.min, g.max) {
		return true
	}
	return g.valid && g.maxJump > 0 && uint8(mathx.Abs(int16(v)-int16(g.est))) > g.maxJump
}

// accept returns the filtered value and whether it may be acted on.
func (g *glitchFilter) accept(v uint8) (uint8, bool) {
	if !g.implausible(v) {
		g.suspect = false
	} else if !g.suspect {
		g.suspect = true
		g.count++
		g.last = v
		return g.est, false
	}
	g.est, g.valid = v, true
	return v, true
}
