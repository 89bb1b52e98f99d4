package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks verifies that no goroutines are leaked during test execution.
// Defer it at the top of tests that start worker goroutines or open databases.
//
// Example usage:
//
//	func TestConverterRun(t *testing.T) {
//	    defer VerifyNoLeaks(t)
//	    // Test code that starts workers
//	}
func VerifyNoLeaks(t *testing.T) {
	t.Helper()
	goleak.VerifyNone(t, defaultOptions()...)
}

// VerifyNoLeaksWithOptions provides more control over leak detection.
func VerifyNoLeaksWithOptions(t *testing.T, options ...goleak.Option) {
	t.Helper()
	allOptions := append(defaultOptions(), options...)
	goleak.VerifyNone(t, allOptions...)
}

// defaultOptions returns common ignore patterns for testing framework goroutines
func defaultOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("testing.tRunner.func1"),
		goleak.IgnoreTopFunction("testing.runTests"),
		goleak.IgnoreTopFunction("testing.(*M).Run"),
		goleak.IgnoreTopFunction("go.uber.org/goleak.(*opts).retry"),
		goleak.IgnoreTopFunction("time.Sleep"),
		// parallel tests parked waiting for their siblings
		goleak.IgnoreTopFunction("testing.(*T).Parallel"),
		goleak.IgnoreAnyFunction("testing.(*T).Run"),
		// database/sql connection opener from sibling tests
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	}
}
