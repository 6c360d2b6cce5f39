// Package report holds run results and writes them out as JSON, HTML and a
// console summary.
package report

import (
	"time"

	"github.com/orderlab-dev/checkout-runner/pkg/flow"
)

// Status of a finished test case.
type Status string

// Statuses.
const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// TestResult is the outcome of one test case. Exactly one result exists per
// case regardless of how many attempts it took; Attempts records the total.
type TestResult struct {
	TestID      string        `json:"testId"`
	Info        flow.TestInfo `json:"info"`
	Success     bool          `json:"success"`
	Price       string        `json:"price,omitempty"`
	Error       string        `json:"error,omitempty"`
	Screenshots []string      `json:"screenshots,omitempty"`
	DurationMs  int64         `json:"durationMs"`
	CompletedAt time.Time     `json:"completedAt"`
	Worker      int           `json:"worker"`
	Attempts    int           `json:"attempts"`
}

// Status returns the result's status value.
func (r TestResult) Status() Status {
	if r.Success {
		return StatusPassed
	}
	return StatusFailed
}

// AllPassed reports whether every result succeeded. An empty run counts as
// passed.
func AllPassed(results []TestResult) bool {
	for i := range results {
		if !results[i].Success {
			return false
		}
	}
	return true
}
