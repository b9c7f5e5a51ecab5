package reporter

// Reporter is the output surface the migration engine writes through.
// Core logic never formats console output directly; injecting the
// reporter keeps the engine testable without capturing stdout.
type Reporter interface {
	// Info reports neutral progress
	Info(format string, args ...interface{})

	// Success reports a completed step
	Success(format string, args ...interface{})

	// Warn reports a recoverable problem
	Warn(format string, args ...interface{})

	// Error reports a failure
	Error(format string, args ...interface{})
}

// Silent discards all output; used by tests and --quiet paths
var Silent Reporter = silent{}

type silent struct{}

func (silent) Info(string, ...interface{})    {}
func (silent) Success(string, ...interface{}) {}
func (silent) Warn(string, ...interface{})    {}
func (silent) Error(string, ...interface{})   {}
