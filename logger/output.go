package logger

// Output categories control WHAT a command prints to the terminal at each
// verbosity, independent of log severity.
//
// Verbosity Levels:
//
//	0 (default) - Results, errors with hints, final status
//	1 (-v)      - + Stage progress, run summaries
//	2 (-vv)     - + Timing, loaded configuration, ledger and SQL details

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Partition locations, command output
	OutputErrors                           // Failures with location and hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress // Stage progress notices
	OutputSummary  // Row counts and run ids

	// Level 2 (-vv) - Detailed
	OutputTiming // Stage duration
	OutputConfig // Effective configuration
	OutputLedger // Ledger and migration activity
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress: VerbosityInfo,
	OutputSummary:  VerbosityInfo,

	OutputTiming: VerbosityDebug,
	OutputConfig: VerbosityDebug,
	OutputLedger: VerbosityDebug,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, require the highest level
		return verbosity >= VerbosityDebug
	}
	return verbosity >= minLevel
}

var categoryNames = map[OutputCategory]string{
	OutputResults:    "results",
	OutputErrors:     "errors",
	OutputUserStatus: "status",
	OutputProgress:   "progress",
	OutputSummary:    "summary",
	OutputTiming:     "timing",
	OutputConfig:     "config",
	OutputLedger:     "ledger",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch {
	case verbosity < VerbosityUser:
		return "unknown verbosity level"
	case verbosity == VerbosityUser:
		return "results and errors only"
	case verbosity == VerbosityInfo:
		return "results, errors, progress and run summaries"
	default:
		return "above + timing, configuration and ledger details"
	}
}
