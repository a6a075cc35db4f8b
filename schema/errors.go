package schema

import "fmt"

// InsufficientDataError reports that a method received fewer samples than
// its minimum. It is non-fatal: callers surface it as NaN/undefined fields.
type InsufficientDataError struct {
	Op   string // operation that was attempted
	Got  int    // samples available
	Need int    // samples required
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: got %d samples, need %d", e.Op, e.Got, e.Need)
}

// UndefinedMetricError reports a mathematically undefined result, such as a
// degenerate regression or an empty limb. Non-fatal; the affected field
// stays NaN and sibling computations continue.
type UndefinedMetricError struct {
	Op     string
	Reason string
}

func (e *UndefinedMetricError) Error() string {
	return fmt.Sprintf("%s: undefined metric: %s", e.Op, e.Reason)
}

// ConfigurationError reports invalid caller input (missing column,
// mismatched lengths, unordered time). It is fatal for the call that
// triggered it and must not corrupt sibling computations.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Op, e.Reason)
}
