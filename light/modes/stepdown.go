package modes

// Effective returns the level to show after steps regulation stepdowns.
// A discrete mode drops to the next dimmer mode of its group per step, a
// ramp position loses a quarter per step, and hidden or special modes first
// fall back to the middle mode.
func (e *Engine) Effective(steps int) Level {
	l := e.Level()
	if steps <= 0 {
		return l
	}
	g := e.Group()
	sol := g.solid(e.cfg.MoonEnabled)
	if l.IsSpecial() || (l.Ramp == 0 && int(e.pos.Mode) >= len(sol)) {
		l = sol[len(sol)/2]
		if l.IsSpecial() {
			l = sol[e.brightest(sol)]
		}
		steps--
	}
	for ; steps > 0; steps-- {
		next, ok := e.lower(l, sol)
		if !ok {
			break
		}
		l = next
	}
	return l
}

// AtFloor reports whether another stepdown would change nothing.
func (e *Engine) AtFloor(steps int) bool {
	return e.Duties(e.Effective(steps)) == e.Duties(e.Effective(steps+1))
}

func (e *Engine) lower(l Level, sol []Level) (Level, bool) {
	if l.Ramp > 0 {
		if l.Ramp <= 1 {
			return l, false
		}
		r := uint8(uint16(l.Ramp) * 3 / 4)
		if r < 1 {
			r = 1
		}
		return R(r), true
	}
	cur := e.Duties(l).Max()
	found := false
	var best Level
	var bestDuty uint8
	for _, c := range sol {
		if c.IsSpecial() {
			continue
		}
		d := e.Duties(c).Max()
		if d < cur && (!found || d > bestDuty) {
			best, bestDuty, found = c, d, true
		}
	}
	return best, found
}
