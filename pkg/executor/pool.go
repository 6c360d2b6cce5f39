package executor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/config"
	"github.com/orderlab-dev/checkout-runner/pkg/flow"
	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

// workItem is one queued test case.
type workItem struct {
	tc *flow.TestCase
}

// Pool schedules test cases across N workers pulling from one shared queue.
// Work is stolen dynamically, so a slow case on one worker never starves the
// others.
type Pool struct {
	runner *CaseRunner
	cfg    *config.Config
	log    logrus.FieldLogger
}

// NewPool creates a pool around a case runner.
func NewPool(runner *CaseRunner, cfg *config.Config, log logrus.FieldLogger) *Pool {
	return &Pool{runner: runner, cfg: cfg, log: log}
}

// Run executes every case to completion and returns exactly one result per
// case, representing its final attempt. Completion order across cases is
// unspecified; callers sort at persistence time.
func (p *Pool) Run(ctx context.Context, cases []*flow.TestCase) []report.TestResult {
	queue := make(chan workItem, len(cases))
	for _, tc := range cases {
		queue <- workItem{tc: tc}
	}
	close(queue)

	resultsCh := make(chan report.TestResult, len(cases))
	var wg sync.WaitGroup

	// Workers start staggered to avoid a burst of simultaneous logins
	// against the target system.
	for w := 1; w <= p.cfg.Parallel; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			log := p.log.WithField("worker", worker)
			log.Debug("Worker started")
			for item := range queue {
				resultsCh <- p.runWithRetry(ctx, item.tc, worker)
			}
			log.Debug("Worker drained queue")
		}(w)

		if w < p.cfg.Parallel {
			if err := sleep(ctx, p.cfg.WorkerStartDelay); err != nil {
				break
			}
		}
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	results := make([]report.TestResult, 0, len(cases))
	for result := range resultsCh {
		results = append(results, result)
	}
	return results
}

// runWithRetry wraps one case in the bounded whole-test retry. The delay
// before attempt n+1 grows linearly: n times the configured base delay.
func (p *Pool) runWithRetry(ctx context.Context, tc *flow.TestCase, worker int) report.TestResult {
	maxAttempts := p.cfg.MaxRetries + 1

	var result report.TestResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result = p.runner.Run(ctx, tc, worker, attempt)
		result.Attempts = attempt
		if result.Success {
			return result
		}

		if attempt < maxAttempts {
			delay := time.Duration(attempt) * p.cfg.RetryDelay
			p.log.WithFields(logrus.Fields{
				"test":    tc.ID,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("Test case failed, retrying")
			if err := sleep(ctx, delay); err != nil {
				return result
			}
		}
	}
	return result
}
