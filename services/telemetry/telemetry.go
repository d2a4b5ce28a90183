// Package telemetry streams light topics off the bus as JSON lines, one
// object per line, and decodes them again on the host side.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"lightcode-go/bus"
	"lightcode-go/errcode"
	"lightcode-go/types"
	"lightcode-go/x/logx"
)

const TopicHeartbeat = "telemetry/heartbeat"

var (
	topicLight  = bus.T("light", bus.AnyRest)
	topicConfig = bus.T("config", "telemetry")
)

const defaultInterval = 5 * time.Second

// Line is the wire form.
type Line struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

type Heartbeat struct {
	Seq      uint32 `json:"seq"`
	UptimeMs int64  `json:"uptime_ms"`
	Lines    uint32 `json:"lines"`
	Errors   uint32 `json:"errors,omitempty"`
}

// Config is accepted on "config/telemetry". Events toggles forwarding of
// non-retained switch events.
type Config struct {
	IntervalMs int   `json:"interval_ms"`
	Events     *bool `json:"events,omitempty"`
}

type Service struct {
	conn     *bus.Connection
	w        io.Writer
	interval time.Duration
	events   bool
	start    time.Time

	seq    uint32
	lines  uint32
	errors uint32
}

// New returns a service writing to w. A zero interval uses five seconds.
func New(conn *bus.Connection, w io.Writer, interval time.Duration) *Service {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{conn: conn, w: w, interval: interval, events: true}
}

// Run forwards until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	lightSub := s.conn.Subscribe(topicLight)
	defer s.conn.Unsubscribe(lightSub)
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.start = time.Now()
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Info("telemetry: stopping lines=%d errors=%d", int(s.lines), int(s.errors))
			return ctx.Err()
		case <-tick.C:
			s.seq++
			s.write(TopicHeartbeat, Heartbeat{
				Seq:      s.seq,
				UptimeMs: time.Since(s.start).Milliseconds(),
				Lines:    s.lines,
				Errors:   s.errors,
			})
		case msg, ok := <-lightSub.Channel():
			if !ok {
				return nil
			}
			if !s.events && !msg.Retained {
				continue
			}
			s.write(msg.Topic.String(), msg.Payload)
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return nil
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				logx.Warn("telemetry: config: %v", err)
				continue
			}
			if cfg.IntervalMs > 0 {
				s.interval = time.Duration(cfg.IntervalMs) * time.Millisecond
				tick.Reset(s.interval)
			}
			if cfg.Events != nil {
				s.events = *cfg.Events
			}
			logx.Info("telemetry: interval=%dms events=%t", int(s.interval.Milliseconds()), s.events)
		}
	}
}

func (s *Service) write(topic string, payload any) {
	b, err := Encode(topic, payload)
	if err == nil {
		_, err = s.w.Write(b)
	}
	if err != nil {
		s.errors++
		logx.Debug("telemetry: write %s: %v", topic, err)
		return
	}
	s.lines++
}

// Encode renders one newline-terminated line.
func Encode(topic string, payload any) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(Line{Topic: topic, Payload: p})
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Decode parses a line and its payload into the matching types value.
// Unknown topics decode to map[string]any.
func Decode(line []byte) (string, any, error) {
	var l Line
	if err := json.Unmarshal(line, &l); err != nil {
		return "", nil, errcode.Wrap(errcode.InvalidParams, "telemetry.decode", err)
	}
	var v any
	switch l.Topic {
	case types.TopicState:
		v = new(types.LightState)
	case types.TopicRegulation:
		v = new(types.RegulationValue)
	case types.TopicEvent:
		v = new(types.SwitchEvent)
	case types.TopicInfo:
		v = new(types.Info)
	case TopicHeartbeat:
		v = new(Heartbeat)
	default:
		v = new(map[string]any)
	}
	if err := json.Unmarshal(l.Payload, v); err != nil {
		return l.Topic, nil, &errcode.E{C: errcode.InvalidParams, Op: "telemetry.decode", Msg: l.Topic, Err: err}
	}
	switch x := v.(type) {
	case *types.LightState:
		return l.Topic, *x, nil
	case *types.RegulationValue:
		return l.Topic, *x, nil
	case *types.SwitchEvent:
		return l.Topic, *x, nil
	case *types.Info:
		return l.Topic, *x, nil
	case *Heartbeat:
		return l.Topic, *x, nil
	case *map[string]any:
		return l.Topic, *x, nil
	}
	return l.Topic, v, nil
}

// Summary is a one-line human rendering of a decoded payload.
func Summary(v any) string {
	switch x := v.(type) {
	case types.LightState:
		s := fmt.Sprintf("%s group=%d mode=%d duties=%d/%d/%d", x.State, x.Group, x.Mode, x.Duties[0], x.Duties[1], x.Duties[2])
		if x.Ramp > 0 {
			s += fmt.Sprintf(" ramp=%d", x.Ramp)
		}
		if x.Special != "" {
			s += " special=" + x.Special
		}
		return s
	case types.RegulationValue:
		s := fmt.Sprintf("volt=%d temp=%d steps=%d/%d", x.Voltage, x.Temperature, x.VoltSteps, x.ThermSteps)
		if x.Shutoff {
			s += " SHUTOFF"
		}
		return s
	case types.SwitchEvent:
		if x.Count > 0 {
			return fmt.Sprintf("%s x%d", x.Kind, x.Count)
		}
		return x.Kind
	case types.Info:
		return fmt.Sprintf("profile=%s channels=%d groups=%d tick=%dms", x.Profile, x.Channels, x.Groups, x.TickMs)
	case Heartbeat:
		return fmt.Sprintf("seq=%d up=%ds lines=%d", x.Seq, x.UptimeMs/1000, x.Lines)
	}
	return fmt.Sprint(v)
}

func decodeConfig(p any) (Config, error) {
	var cfg Config
	switch v := p.(type) {
	case Config:
		return v, nil
	case []byte:
		return cfg, json.Unmarshal(v, &cfg)
	case string:
		return cfg, json.Unmarshal([]byte(v), &cfg)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return cfg, err
		}
		return cfg, json.Unmarshal(b, &cfg)
	}
	return cfg, fmt.Errorf("unsupported config payload type: %T", p)
}
