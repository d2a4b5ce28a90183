package types

// Telemetry topics (slash separated, see bus.Parse).
const (
	TopicState      = "light/state"
	TopicRegulation = "light/regulation"
	TopicEvent      = "light/event"
	TopicInfo       = "light/info"
)

// ---- Light state (retained) ----

type LightState struct {
	State   string   `json:"state"` // off, solid, ramping, locked, special
	Group   int      `json:"group"`
	Mode    int      `json:"mode"` // negative for hidden modes
	Ramp    uint8    `json:"ramp,omitempty"`
	Special string   `json:"special,omitempty"`
	Duties  [3]uint8 `json:"duties"`
	Locked  bool     `json:"locked,omitempty"`
	TS      int64    `json:"ts_ms"`
}

// ---- Regulation (retained) ----

type RegulationValue struct {
	Voltage     uint8  `json:"voltage"`
	Temperature uint8  `json:"temperature,omitempty"`
	VoltSteps   uint8  `json:"volt_steps"`
	ThermSteps  uint8  `json:"therm_steps"`
	Shutoff     bool   `json:"shutoff,omitempty"`
	Glitches    uint32 `json:"glitches,omitempty"`
	TS          int64  `json:"ts_ms"`
}

// ---- Switch events (not retained) ----

type SwitchEvent struct {
	Kind  string `json:"kind"`
	Count int    `json:"count,omitempty"`
	TS    int64  `json:"ts_ms"`
}

// Info describes the running profile (retained).
type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Profile       string `json:"profile"`
	Channels      int    `json:"channels"`
	Groups        int    `json:"groups"`
	TickMs        uint32 `json:"tick_ms"`
}
