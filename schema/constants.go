package schema

// Phase is a single-character geochemical process phase label.
type Phase string

// The six geochemical phases assigned by the hierarchical classifier.
const (
	PhaseFlushing    Phase = "F" // rapid mobilization during high flow
	PhaseLoading     Phase = "L" // accumulation, concentration rising to a maximum
	PhaseChemostatic Phase = "C" // buffered, low-variability behavior
	PhaseDilution    Phase = "D" // post-flush recovery under declining flow
	PhaseRecession   Phase = "R" // late-cycle decline of both flow and concentration
	PhaseVariable    Phase = "V" // ambiguous or conflicting signals
)

// PhaseNames maps each phase label to its long-form name for output.
var PhaseNames = map[Phase]string{
	PhaseFlushing:    "Flushing",
	PhaseLoading:     "Loading",
	PhaseChemostatic: "Chemostatic",
	PhaseDilution:    "Dilution",
	PhaseRecession:   "Recession",
	PhaseVariable:    "Variable",
}

// LoopDirection describes the rotational sense of a C-Q hysteresis loop.
type LoopDirection string

// Loop direction labels shared by the three hysteresis methods.
const (
	Clockwise        LoopDirection = "clockwise"         // concentration peaks before discharge
	CounterClockwise LoopDirection = "counter-clockwise" // concentration peaks after discharge
	Linear           LoopDirection = "linear"            // no measurable limb separation
	Weak             LoopDirection = "weak"              // separation below the reporting threshold
	Undefined        LoopDirection = "undefined"         // metric could not be computed
)

// FlowPhase labels the position of a window within a discharge cycle.
type FlowPhase string

// Flow phases derived from peak timing inside a segment window.
const (
	FlowRising       FlowPhase = "rising"
	FlowAtPeak       FlowPhase = "at_peak"
	FlowEarlyDecline FlowPhase = "early_decline"
	FlowLateDecline  FlowPhase = "late_decline"
	FlowPostPeak     FlowPhase = "post_peak"
	FlowLow          FlowPhase = "low"
	FlowStable       FlowPhase = "stable"
	FlowUnknown      FlowPhase = "unknown"
)

// Level is a coarse low/medium/high position against percentile thresholds.
type Level string

// Levels for flow and concentration positions.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
	LevelNone   Level = "none"
)

// Behavior is the simple point-to-point C-Q behavior label
// (Williams 1989 / Evans & Davies 1998 scheme).
type Behavior string

// Segment behavior labels.
const (
	BehaviorConnectivity    Behavior = "connectivity"      // Q up, C up
	BehaviorDispersion      Behavior = "dispersion"        // Q up, C down
	BehaviorAccumulation    Behavior = "accumulation"      // Q down, C up
	BehaviorRecovery        Behavior = "recovery"          // Q down, C down
	BehaviorChemostatic     Behavior = "quasi-chemostatic" // Q moves, C stable
	BehaviorSourceVariation Behavior = "source variation"  // C moves, Q stable
	BehaviorStatic          Behavior = "static"            // neither moves
)

// OutputFormat selects how results are rendered.
type OutputFormat string

// Supported output formats.
const (
	TextOut    OutputFormat = "text"
	CSVOut     OutputFormat = "csv"
	JSONOut    OutputFormat = "json"
	ParquetOut OutputFormat = "parquet"
)

// ValidOutputFormats lists all valid output formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// DatabaseBackend identifies a run-tracking storage backend.
type DatabaseBackend string

// Supported run store backends.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidDatabaseBackends lists all valid run store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Rule identifiers emitted by the classifier for diagnostics. Keeping them
// as constants makes the rules_triggered column greppable and stable.
const (
	RulePositiveSlope       = "positive_cq_slope"
	RuleStrongPositiveSlope = "strong_positive_cq_slope"
	RuleNegativeSlope       = "negative_cq_slope"
	RuleStrongNegativeSlope = "strong_negative_cq_slope"
	RuleFlatSlope           = "flat_cq_slope"
	RuleChemodynamic        = "cv_ratio_chemodynamic"
	RuleStrongChemodynamic  = "cv_ratio_strongly_chemodynamic"
	RuleChemostaticRatio    = "cv_ratio_chemostatic"
	RuleStrongChemostatic   = "cv_ratio_strongly_chemostatic"
	RuleSteepFlowDecline    = "q_steep_decline"
	RuleConcDeclining       = "c_declining"
	RuleSteepConcDecline    = "c_steep_decline"
	RuleConcRising          = "c_rising"
	RuleConcRisingToMax     = "c_rising_to_max"
	RuleLargeConcIncrease   = "large_c_increase"
	RuleQHighOrRising       = "q_high_or_rising"
	RuleQNotPeaked          = "q_not_peaked"
	RuleQDeclining          = "q_declining"
	RuleLowHysteresis       = "low_window_hysteresis"
	RuleStableConc          = "c_stable"
	RulePriorFlushing       = "prior_phase_flushing"
	RuleNoStrongSignature   = "no_strong_signature"
	RulePostPeak            = "post_peak"
	RuleLateCycle           = "late_cycle"
	RuleCWasHigh            = "c_was_high"
	RuleMethodsAgree        = "hysteresis_methods_agree"
	RuleConflict            = "conflicting_indicators"
	RuleFallback            = "fallback_variable"
	RuleReducedQuality      = "reduced_data_quality"
)
