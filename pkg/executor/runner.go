package executor

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
	"github.com/orderlab-dev/checkout-runner/pkg/config"
	"github.com/orderlab-dev/checkout-runner/pkg/credentials"
	"github.com/orderlab-dev/checkout-runner/pkg/flow"
	"github.com/orderlab-dev/checkout-runner/pkg/pricing"
	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

// CaseRunner executes one attempt of one test case end to end, owning the
// browser session's lifecycle. Actions run strictly in order; the flow
// models one stateful transaction, so no concurrency exists inside a case.
type CaseRunner struct {
	browser browser.Browser
	creds   *credentials.Resolver
	shots   *report.ScreenshotNamer
	cfg     *config.Config
	log     logrus.FieldLogger
}

// NewCaseRunner wires a runner from its collaborators.
func NewCaseRunner(b browser.Browser, creds *credentials.Resolver, shots *report.ScreenshotNamer,
	cfg *config.Config, log logrus.FieldLogger) *CaseRunner {
	return &CaseRunner{browser: b, creds: creds, shots: shots, cfg: cfg, log: log}
}

// Run executes one attempt. The returned result carries whatever price and
// screenshots were captured even when the attempt failed; business data
// already obtained is never discarded.
func (r *CaseRunner) Run(ctx context.Context, tc *flow.TestCase, worker, attempt int) report.TestResult {
	start := time.Now()
	log := r.log.WithFields(logrus.Fields{
		"test":    tc.ID,
		"worker":  worker,
		"attempt": attempt,
	})

	// Credentials resolve fresh on every attempt, so rotated environment
	// values take effect without a restart.
	login, err := r.creds.Login(tc.CredentialProfile(), worker)
	if err != nil {
		log.WithError(err).Error("Credential resolution failed")
		return r.finish(tc, worker, start, "", nil, err)
	}
	log.WithField("login", login.String()).Info("Starting test case")

	opts := browser.SessionOptions{
		Device:   tc.DeviceClass(),
		Headless: tc.Headless,
	}
	if tc.BasicAuth {
		basic, err := r.creds.Basic(tc.CredentialProfile())
		if err != nil {
			log.WithError(err).Error("Basic auth resolution failed")
			return r.finish(tc, worker, start, "", nil, err)
		}
		if basic != nil {
			opts.BasicAuth = &browser.BasicAuth{Username: basic.Username, Password: basic.Password}
		}
	}

	session, err := r.browser.NewSession(ctx, opts)
	if err != nil {
		log.WithError(err).Error("Failed to open browser session")
		return r.finish(tc, worker, start, "", nil, err)
	}
	// Teardown runs on every exit path; Close tears the page context down
	// before its browser.
	defer func() {
		if cerr := session.Close(ctx); cerr != nil {
			log.WithError(cerr).Warn("Session teardown failed")
		}
	}()

	scripts := NewScriptEngine(log)
	d := NewDispatcher(session, login, r.shots, scripts, r.cfg, tc.ID, log)

	price := ""
	var screenshots []string

	if err := session.Navigate(ctx, tc.URL, flow.DefaultTimeout); err != nil {
		return r.fail(ctx, session, tc, worker, attempt, start, price, screenshots,
			browser.ErrNavigation.WithCause(err), log)
	}

	for _, act := range tc.Actions {
		out, err := d.Dispatch(ctx, act)
		if err != nil {
			return r.fail(ctx, session, tc, worker, attempt, start, price, screenshots, err, log)
		}
		if out.ScreenshotPath == "" {
			continue
		}
		screenshots = append(screenshots, out.ScreenshotPath)

		// A capture on the confirmation page triggers a price pass. A later
		// extraction overwrites an earlier one: intermediate captures may
		// precede the final confirmed total.
		if url, uerr := session.URL(ctx); uerr == nil && strings.Contains(url, r.cfg.ConfirmURLMarker) {
			if p := pricing.Extract(ctx, session, log); p != "" {
				price = p
			}
		}
	}

	if out := scripts.Output(); len(out) > 0 {
		log.WithField("scriptOutput", out).Debug("Collected script output")
	}
	log.WithField("price", price).Info("Test case passed")
	result := r.finish(tc, worker, start, price, screenshots, nil)
	return result
}

// fail is the single failure path: best-effort error screenshot, one final
// price salvage, failed result with everything captured so far.
func (r *CaseRunner) fail(ctx context.Context, session browser.Session, tc *flow.TestCase,
	worker, attempt int, start time.Time, price string, screenshots []string,
	cause error, log logrus.FieldLogger) report.TestResult {

	log.WithError(cause).Error("Test case failed")

	if data, err := session.Screenshot(ctx, false); err == nil {
		if path, werr := r.shots.SaveError(tc.ID, attempt, data); werr == nil {
			screenshots = append(screenshots, path)
		}
	} else {
		log.WithError(err).Debug("Failure screenshot unavailable")
	}

	if p := pricing.Extract(ctx, session, log); p != "" {
		price = p
	}

	return r.finish(tc, worker, start, price, screenshots, cause)
}

func (r *CaseRunner) finish(tc *flow.TestCase, worker int, start time.Time,
	price string, screenshots []string, cause error) report.TestResult {
	result := report.TestResult{
		TestID:      tc.ID,
		Info:        tc.Info,
		Success:     cause == nil,
		Price:       price,
		Screenshots: screenshots,
		DurationMs:  time.Since(start).Milliseconds(),
		CompletedAt: time.Now(),
		Worker:      worker,
	}
	if cause != nil {
		result.Error = cause.Error()
	}
	return result
}
