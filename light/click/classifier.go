package click

// Config holds tick-count thresholds. Durations are in classifier ticks.
type Config struct {
	Debounce   uint8  // consecutive matching samples before a transition is accepted
	ShortTicks uint32 // press shorter than this is a click
	LongTicks  uint32 // press reaching this is a LongClick; in between is Medium
	GapTicks   uint32 // release gap that finalises a click sequence
}

// DefaultConfig matches a 16 ms tick: 0.3 s / 0.9 s buckets, 0.4 s gap.
func DefaultConfig() Config {
	return Config{Debounce: 2, ShortTicks: 19, LongTicks: 57, GapTicks: 25}
}

func (c Config) sane() Config {
	d := DefaultConfig()
	if c.Debounce == 0 {
		c.Debounce = 1
	}
	if c.ShortTicks == 0 {
		c.ShortTicks = d.ShortTicks
	}
	if c.LongTicks <= c.ShortTicks {
		c.LongTicks = c.ShortTicks + 1
	}
	if c.GapTicks == 0 {
		c.GapTicks = d.GapTicks
	}
	return c
}

// Classifier is fed one raw sample per tick. It is not safe for concurrent
// use; a single tick source owns it.
type Classifier struct {
	cfg Config

	pressed bool
	streak  uint8 // raw samples disagreeing with the debounced state
	held    uint32
	gap     uint32
	pending uint8
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg.sane()}
}

func (c *Classifier) Config() Config { return c.cfg }

// Pressed reports the debounced switch state.
func (c *Classifier) Pressed() bool { return c.pressed }

// Reset forgets any press or click sequence in progress.
func (c *Classifier) Reset() {
	*c = Classifier{cfg: c.cfg}
}

// Sample advances the classifier by one tick and returns at most one event.
func (c *Classifier) Sample(raw bool) Event {
	if raw != c.pressed {
		c.streak++
		if c.streak >= c.cfg.Debounce {
			c.streak = 0
			c.pressed = raw
			if raw {
				return c.onPress()
			}
			return c.onRelease()
		}
	} else {
		c.streak = 0
	}
	if c.pressed {
		if c.streak > 0 {
			// Release pending: hold the count where the switch let go.
			return Event{}
		}
		return c.whilePressed()
	}
	return c.whileReleased()
}

func (c *Classifier) onPress() Event {
	c.held = 1
	return Event{}
}

func (c *Classifier) onRelease() Event {
	held := c.held
	c.held, c.gap = 0, 0
	switch {
	case held < c.cfg.ShortTicks:
		if c.pending < 0xFF {
			c.pending++
		}
		return Event{}
	case held < c.cfg.LongTicks:
		return Event{Kind: MediumClick, Count: 1, Held: held}
	}
	return Event{Kind: Release, Held: held}
}

func (c *Classifier) whilePressed() Event {
	c.held++
	switch {
	case c.held == c.cfg.ShortTicks && c.pending > 0:
		// The press outlasted a click: finish the sequence before it.
		n := c.pending
		c.pending = 0
		return clickEvent(n)
	case c.held == c.cfg.LongTicks:
		return Event{Kind: LongClick, Count: 1, Held: c.held}
	case c.held > c.cfg.LongTicks:
		return Event{Kind: Hold, Held: c.held}
	}
	return Event{}
}

func (c *Classifier) whileReleased() Event {
	if c.pending == 0 {
		return Event{}
	}
	c.gap++
	if c.gap < c.cfg.GapTicks {
		return Event{}
	}
	n := c.pending
	c.pending, c.gap = 0, 0
	return clickEvent(n)
}
