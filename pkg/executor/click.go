package executor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
)

// clickState is the recovery lifecycle of one click.
type clickState int

const (
	clickPending clickState = iota
	clickInFlight
	clickRecovered
	clickExhausted
)

func (s clickState) String() string {
	switch s {
	case clickPending:
		return "pending"
	case clickInFlight:
		return "in_flight"
	case clickRecovered:
		return "recovered"
	case clickExhausted:
		return "exhausted"
	}
	return "unknown"
}

// clickMachine drives one click through its attempt budget. The overall
// click timeout is divided evenly across attempts; from the second attempt
// on the click is forced, so a decorative overlay above the target cannot
// deadlock the flow.
type clickMachine struct {
	budget         int
	attemptTimeout time.Duration

	state   clickState
	attempt int
	lastErr error
}

func newClickMachine(total time.Duration, budget int) *clickMachine {
	return &clickMachine{
		budget:         budget,
		attemptTimeout: total / time.Duration(budget),
		state:          clickPending,
	}
}

// begin transitions into the next attempt and returns its click options.
func (m *clickMachine) begin() browser.ClickOptions {
	m.attempt++
	m.state = clickInFlight
	return browser.ClickOptions{
		Timeout: m.attemptTimeout,
		Force:   m.attempt > 1,
	}
}

// observe feeds an attempt's outcome in and returns the resulting state.
func (m *clickMachine) observe(err error) clickState {
	if err == nil {
		m.state = clickRecovered
	} else {
		m.lastErr = err
		if m.attempt >= m.budget {
			m.state = clickExhausted
		} else {
			m.state = clickPending
		}
	}
	return m.state
}

// dialogProbeTimeout bounds the between-attempt check for the transient
// error dialog. Kept short: most failed attempts have no dialog at all.
const dialogProbeTimeout = time.Second

// clickWithRecovery retries a click until it lands or the budget runs out.
// After each failed attempt the known transient error dialog is dismissed if
// present and a fixed cooldown passes. Only click gets this treatment; every
// other interaction kind is single-attempt.
func (d *Dispatcher) clickWithRecovery(ctx context.Context, loc browser.Locator, total time.Duration) error {
	m := newClickMachine(total, d.cfg.ClickRetries)

	for {
		opts := m.begin()
		err := d.session.Click(ctx, loc, opts)

		switch m.observe(err) {
		case clickRecovered:
			if m.attempt > 1 {
				d.log.WithFields(logrus.Fields{
					"target":  loc.String(),
					"attempt": m.attempt,
					"state":   m.state.String(),
				}).Info("Click recovered")
			}
			return nil

		case clickExhausted:
			d.log.WithFields(logrus.Fields{
				"target": loc.String(),
				"budget": m.budget,
				"state":  m.state.String(),
			}).Error("Click recovery exhausted")
			return browser.ErrTransientUI.WithCause(m.lastErr)

		default:
			d.log.WithFields(logrus.Fields{
				"target":  loc.String(),
				"attempt": m.attempt,
				"state":   m.state.String(),
				"error":   err.Error(),
			}).Warn("Click attempt failed")

			d.dismissTransientDialog(ctx)
			if serr := sleep(ctx, d.cfg.ClickCooldown); serr != nil {
				return serr
			}
		}
	}
}

// dismissTransientDialog closes the known error dialog when it is on screen.
// The dialog is identified by its displayed text; absence is the common case
// and not an error.
func (d *Dispatcher) dismissTransientDialog(ctx context.Context) {
	dialog := browser.Locator{Role: "dialog", Name: d.cfg.TransientDialogText}
	if err := d.session.WaitVisible(ctx, dialog, dialogProbeTimeout); err != nil {
		return
	}
	if err := d.session.Click(ctx, dialog, browser.ClickOptions{Timeout: dialogProbeTimeout}); err != nil {
		d.log.WithError(err).Debug("Could not dismiss transient dialog")
		return
	}
	d.log.Info("Dismissed transient error dialog")
}
