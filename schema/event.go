package schema

import "time"

// MinEventSamples is the minimum number of samples required for an event to
// be analyzable by the hysteresis calculators.
const MinEventSamples = 5

// Event is an ordered sequence of (time, Q, C) samples spanning one
// rise-and-fall cycle. It is immutable for the duration of a metric
// calculation: calculators copy before normalizing.
type Event struct {
	Times []time.Time
	Q     []float64
	C     []float64
}

// NewEvent validates caller-supplied rows and constructs an Event.
// Mismatched lengths or non-monotonic time are ConfigurationErrors;
// fewer than MinEventSamples is an InsufficientDataError.
func NewEvent(times []time.Time, q, c []float64) (*Event, error) {
	const op = "schema.NewEvent"
	if len(times) != len(q) || len(q) != len(c) {
		return nil, &ConfigurationError{Op: op, Reason: "time, discharge and concentration must be aligned one-to-one"}
	}
	if len(times) < MinEventSamples {
		return nil, &InsufficientDataError{Op: op, Got: len(times), Need: MinEventSamples}
	}
	for i := 1; i < len(times); i++ {
		if times[i].Before(times[i-1]) {
			return nil, &ConfigurationError{Op: op, Reason: "time must be non-decreasing"}
		}
	}
	return &Event{Times: times, Q: q, C: c}, nil
}

// Len returns the number of samples in the event.
func (e *Event) Len() int { return len(e.Times) }

// ElapsedDays converts sample times to fractional days since the first sample.
func (e *Event) ElapsedDays() []float64 {
	out := make([]float64, len(e.Times))
	if len(e.Times) == 0 {
		return out
	}
	t0 := e.Times[0]
	for i, t := range e.Times {
		out[i] = t.Sub(t0).Hours() / 24.0
	}
	return out
}
