// Package history persists finished runs so regressions can be traced
// across runs of the same suite.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

var (
	ErrRunNotFound = errors.New("run not found")
)

// Run is one recorded execution of a case set.
type Run struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Results    []Result  `json:"results" gorm:"foreignKey:RunID"`
	CreatedAt  time.Time `json:"created_at"`
}

// Result is one case outcome within a run. The password-free subset of the
// runner's result record.
type Result struct {
	ID         uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	RunID      uuid.UUID `json:"run_id" gorm:"type:char(36);index:idx_results_run_id"`
	TestID     string    `json:"test_id" gorm:"type:varchar(255);index:idx_results_test_id"`
	Success    bool      `json:"success"`
	Price      string    `json:"price" gorm:"type:varchar(50)"`
	Error      string    `json:"error"`
	Attempts   int       `json:"attempts"`
	Worker     int       `json:"worker"`
	DurationMs int64     `json:"duration_ms"`
}

// BeforeCreate assigns an id when none is set.
func (r *Run) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns an id when none is set.
func (r *Result) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewRun converts a finished run's results into a history record.
func NewRun(results []report.TestResult, startedAt, finishedAt time.Time) *Run {
	run := &Run{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Total:      len(results),
	}
	for i := range results {
		r := &results[i]
		if r.Success {
			run.Passed++
		} else {
			run.Failed++
		}
		run.Results = append(run.Results, Result{
			TestID:     r.TestID,
			Success:    r.Success,
			Price:      r.Price,
			Error:      r.Error,
			Attempts:   r.Attempts,
			Worker:     r.Worker,
			DurationMs: r.DurationMs,
		})
	}
	return run
}

// Store records and queries past runs.
type Store interface {
	Record(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	Recent(ctx context.Context, limit int) ([]*Run, error)
	ResultsForTest(ctx context.Context, testID string, limit int) ([]*Result, error)
}
