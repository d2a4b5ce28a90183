package errcode

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	InvalidParams  Code = "invalid_params"
	InvalidProfile Code = "invalid_profile"
	UnknownProfile Code = "unknown_profile"

	// Recovered locally by the light core; never shown to the user.
	UnreadableStore  Code = "unreadable_store"
	SensorGlitch     Code = "sensor_glitch"
	InvalidModeIndex Code = "invalid_mode_index"
	WriteInterrupted Code = "write_interrupted"

	// Table/shape errors raised while building mode groups and ramps.
	MissingTerminator Code = "missing_terminator"
	TrailingData      Code = "trailing_data"
	EmptyGroup        Code = "empty_group"
	RampNotMonotonic  Code = "ramp_not_monotonic"
	RampLengthSkew    Code = "ramp_length_skew"

	OutOfRange Code = "out_of_range"

	Error Code = "error" // generic fallback, returned by Of
)

// E wraps a Code with an operation, message and cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap returns an *E for op, or nil when err is nil.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}
