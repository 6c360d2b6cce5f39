// Package executor runs test cases: it dispatches declarative actions
// against a browser session, retries flaky interactions, and schedules cases
// across a worker pool.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
	"github.com/orderlab-dev/checkout-runner/pkg/config"
	"github.com/orderlab-dev/checkout-runner/pkg/credentials"
	"github.com/orderlab-dev/checkout-runner/pkg/flow"
	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

// Placeholder tokens in test data substituted with resolved credentials.
// This is the only cross-cutting value transform; it applies to every
// value-bearing action.
const (
	userPlaceholder = "${LOGIN_USER}"
	passPlaceholder = "${LOGIN_PASS}"
)

// Outcome is what one dispatched action produced.
type Outcome struct {
	// Value is the scalar result of a state-query or scripting action.
	Value string
	// ScreenshotPath is set by capture actions.
	ScreenshotPath string
}

// Dispatcher interprets declarative actions against one live session.
type Dispatcher struct {
	session browser.Session
	creds   credentials.Credentials
	shots   *report.ScreenshotNamer
	scripts *ScriptEngine
	cfg     *config.Config
	testID  string
	log     logrus.FieldLogger
}

// NewDispatcher creates a dispatcher bound to one session and one resolved
// login identity.
func NewDispatcher(session browser.Session, creds credentials.Credentials, shots *report.ScreenshotNamer,
	scripts *ScriptEngine, cfg *config.Config, testID string, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		session: session,
		creds:   creds,
		shots:   shots,
		scripts: scripts,
		cfg:     cfg,
		testID:  testID,
		log:     log,
	}
}

// Dispatch performs one action's effect. Unknown action kinds are logged and
// skipped without error.
//
//nolint:gocyclo
func (d *Dispatcher) Dispatch(ctx context.Context, act flow.Action) (Outcome, error) {
	d.log.WithField("action", act.Describe()).Debug("Dispatching action")

	switch a := act.(type) {
	case *flow.GotoAction:
		if err := d.session.Navigate(ctx, a.URL, a.Timeout()); err != nil {
			return Outcome{}, browser.ErrNavigation.WithCause(err)
		}
		return Outcome{}, nil

	case *flow.ClickAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.clickWithRecovery(ctx, loc, a.Timeout())

	case *flow.FillAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.Fill(ctx, loc, d.substitute(a.Value), a.Timeout())

	case *flow.SelectAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.SelectOption(ctx, loc, a.Value, a.Timeout())

	case *flow.CheckAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.SetChecked(ctx, loc, a.Type() == flow.ActionCheck, a.Timeout())

	case *flow.HoverAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.Hover(ctx, loc, a.Timeout())

	case *flow.ScrollIntoViewAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.ScrollIntoView(ctx, loc, a.Timeout())

	case *flow.DragAndDropAction:
		from, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		to, err := d.locator(a.To)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.DragTo(ctx, from, to, a.Timeout())

	case *flow.PressAction:
		// A press without a target goes to the page.
		return Outcome{}, d.session.Press(ctx, a.Target.Locator(), a.Key, a.Timeout())

	case *flow.GetTextAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		text, err := d.session.Text(ctx, loc, a.Timeout())
		return Outcome{Value: text}, err

	case *flow.GetAttributeAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		value, err := d.session.Attribute(ctx, loc, a.Attribute, a.Timeout())
		return Outcome{Value: value}, err

	case *flow.GetInputValueAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		value, err := d.session.InputValue(ctx, loc, a.Timeout())
		return Outcome{Value: value}, err

	case *flow.GetURLAction:
		url, err := d.session.URL(ctx)
		return Outcome{Value: url}, err

	case *flow.GetTitleAction:
		title, err := d.session.Title(ctx)
		return Outcome{Value: title}, err

	case *flow.WaitVisibleAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.WaitVisible(ctx, loc, a.Timeout())

	case *flow.WaitAction:
		return Outcome{}, sleep(ctx, time.Duration(a.Ms)*time.Millisecond)

	case *flow.WaitForResponseAction:
		resp, err := d.session.WaitForResponse(ctx, a.URLPattern, a.Timeout())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Value: responseValue(resp, a.ExtractField)}, nil

	case *flow.ScreenshotAction:
		return d.captureScreenshot(ctx, a.FullPage)

	case *flow.UploadFileAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{}, d.session.SetFiles(ctx, loc, a.AllPaths(), a.Timeout())

	case *flow.UploadAndWaitAction:
		loc, err := d.locator(a.Target)
		if err != nil {
			return Outcome{}, err
		}
		if err := d.session.SetFiles(ctx, loc, a.AllPaths(), a.Timeout()); err != nil {
			return Outcome{}, err
		}
		resp, err := d.session.WaitForResponse(ctx, a.URLPattern, a.Timeout())
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Value: responseValue(resp, a.ExtractField)}, nil

	case *flow.EvaluateAction:
		value, err := d.session.Evaluate(ctx, d.substitute(a.Script), a.Timeout())
		return Outcome{Value: value}, err

	case *flow.EvalScriptAction:
		value, err := d.scripts.Eval(d.substitute(a.Script))
		return Outcome{Value: value}, err

	case *flow.UnknownAction:
		d.log.WithField("type", a.RawType).Warn("Skipping unrecognized action kind")
		return Outcome{}, nil

	default:
		d.log.WithField("type", string(act.Type())).Warn("Skipping unrecognized action kind")
		return Outcome{}, nil
	}
}

func (d *Dispatcher) captureScreenshot(ctx context.Context, fullPage bool) (Outcome, error) {
	data, err := d.session.Screenshot(ctx, fullPage)
	if err != nil {
		return Outcome{}, err
	}
	path, err := d.shots.Save(d.testID, data)
	if err != nil {
		return Outcome{}, err
	}
	d.log.WithField("path", path).Debug("Screenshot saved")
	return Outcome{ScreenshotPath: path}, nil
}

func (d *Dispatcher) locator(t flow.Target) (browser.Locator, error) {
	loc := t.Locator()
	if loc.IsZero() {
		return browser.Locator{}, browser.ErrMissingTarget
	}
	return loc, nil
}

func (d *Dispatcher) substitute(s string) string {
	s = strings.ReplaceAll(s, userPlaceholder, d.creds.Username)
	return strings.ReplaceAll(s, passPlaceholder, d.creds.Password)
}

// responseValue renders the interesting part of a network response: the
// named field of a JSON body when requested, otherwise the whole body.
func responseValue(resp *browser.NetworkResponse, field string) string {
	if field == "" {
		return string(resp.Body)
	}

	var doc any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return ""
	}
	cur := doc
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		if cur, ok = m[part]; !ok {
			return ""
		}
	}
	return fmt.Sprintf("%v", cur)
}

// sleep waits for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
