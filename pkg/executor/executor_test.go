package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
	"github.com/orderlab-dev/checkout-runner/pkg/browser/fake"
	"github.com/orderlab-dev/checkout-runner/pkg/config"
	"github.com/orderlab-dev/checkout-runner/pkg/credentials"
	"github.com/orderlab-dev/checkout-runner/pkg/flow"
	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testConfig() *config.Config {
	return &config.Config{
		Parallel:            2,
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		WorkerStartDelay:    0,
		ClickRetries:        3,
		ClickCooldown:       time.Millisecond,
		ConfirmURLMarker:    "/order/confirm",
		TransientDialogText: "エラーが発生しました",
		CredentialPolicy:    config.PolicyFallback,
	}
}

func setupCreds(t *testing.T) {
	t.Helper()
	t.Setenv("DEV_LOGIN_USER", "shared@example.com")
	t.Setenv("DEV_LOGIN_PASS", "shared-pw")
}

func newTestRunner(t *testing.T, b *fake.Browser, cfg *config.Config) *CaseRunner {
	t.Helper()
	log := quietLog()
	shots, err := report.NewScreenshotNamer(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewCaseRunner(b, credentials.NewResolver(log, cfg.CredentialPolicy), shots, cfg, log)
}

func clickAction(selector string) flow.Action {
	return &flow.ClickAction{
		BaseAction: flow.BaseAction{ActionType: flow.ActionClick},
		Target:     flow.Target{Selector: selector},
	}
}

func screenshotAction() flow.Action {
	return &flow.ScreenshotAction{BaseAction: flow.BaseAction{ActionType: flow.ActionScreenshot}}
}

func TestRunHappyPath(t *testing.T) {
	setupCreds(t)
	cfg := testConfig()

	b := fake.NewBrowser()
	b.Configure = func(s *fake.Session) {
		s.PageTextValue = "ご注文確認\n合計 3,500円"
	}

	tc := &flow.TestCase{
		ID:  "checkout_001",
		URL: "https://shop.example.com/order/confirm",
		Actions: []flow.Action{
			clickAction("#buy"),
			&flow.FillAction{
				BaseAction: flow.BaseAction{ActionType: flow.ActionFill},
				Target:     flow.Target{Selector: "#email"},
				Value:      "${LOGIN_USER}",
			},
			screenshotAction(),
		},
	}

	runner := newTestRunner(t, b, cfg)
	result := runner.Run(context.Background(), tc, 1, 1)

	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	if result.Price != "3,500円" {
		t.Errorf("expected price 3,500円, got %q", result.Price)
	}
	if len(result.Screenshots) != 1 {
		t.Errorf("expected 1 screenshot, got %d", len(result.Screenshots))
	}

	session := b.LastSession()
	if !session.Closed {
		t.Error("session must be torn down on success")
	}
	if got := session.FillValues["css=#email"]; len(got) != 1 || got[0] != "shared@example.com" {
		t.Errorf("credential placeholder not substituted: %v", got)
	}
}

func TestRunUsesWorkerCredentials(t *testing.T) {
	setupCreds(t)
	t.Setenv("DEV_LOGIN_USER_W2", "worker2@example.com")
	t.Setenv("DEV_LOGIN_PASS_W2", "worker2-pw")

	b := fake.NewBrowser()
	tc := &flow.TestCase{
		ID:  "t1",
		URL: "https://shop.example.com",
		Actions: []flow.Action{
			&flow.FillAction{
				BaseAction: flow.BaseAction{ActionType: flow.ActionFill},
				Target:     flow.Target{Selector: "#email"},
				Value:      "${LOGIN_USER}",
			},
		},
	}

	runner := newTestRunner(t, b, testConfig())
	result := runner.Run(context.Background(), tc, 2, 1)

	if !result.Success {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if got := b.LastSession().FillValues["css=#email"][0]; got != "worker2@example.com" {
		t.Errorf("worker 2 must use its override identity, got %q", got)
	}
}

func TestClickRecoverySucceedsWithinBudget(t *testing.T) {
	setupCreds(t)

	transient := errors.New("element is covered by an overlay")
	b := fake.NewBrowser()
	b.Configure = func(s *fake.Session) {
		s.ClickErrs["css=#buy"] = []error{transient, transient}
	}

	tc := &flow.TestCase{
		ID:      "t1",
		URL:     "https://shop.example.com",
		Actions: []flow.Action{clickAction("#buy")},
	}

	runner := newTestRunner(t, b, testConfig())
	result := runner.Run(context.Background(), tc, 1, 1)

	if !result.Success {
		t.Fatalf("click succeeding on third attempt must not fail the case: %s", result.Error)
	}
	session := b.LastSession()
	// Attempts 2 and 3 are forced; the first never is.
	if len(session.ForcedClicks) != 2 {
		t.Errorf("expected 2 forced clicks, got %d", len(session.ForcedClicks))
	}
}

func TestClickRecoveryExhaustion(t *testing.T) {
	setupCreds(t)
	cfg := testConfig()

	transient := errors.New("still covered")
	dialogKey := browser.Locator{Role: "dialog", Name: cfg.TransientDialogText}.String()

	b := fake.NewBrowser()
	b.Configure = func(s *fake.Session) {
		s.ClickErrs["css=#buy"] = []error{transient, transient, transient}
		// The transient error dialog is on screen between attempts.
		s.TextValues[dialogKey] = cfg.TransientDialogText
	}

	tc := &flow.TestCase{
		ID:      "t1",
		URL:     "https://shop.example.com",
		Actions: []flow.Action{clickAction("#buy")},
	}

	runner := newTestRunner(t, b, cfg)
	result := runner.Run(context.Background(), tc, 1, 1)

	if result.Success {
		t.Fatal("expected failure after exhausting the click budget")
	}
	if !strings.Contains(result.Error, "unclickable") {
		t.Errorf("expected transient-ui failure, got: %s", result.Error)
	}

	dialogClicked := false
	for _, c := range b.LastSession().Calls {
		if c.Method == "Click" && c.Key == dialogKey {
			dialogClicked = true
		}
	}
	if !dialogClicked {
		t.Error("transient dialog must be dismissed between attempts")
	}
}

func TestUnknownActionKindIsSkipped(t *testing.T) {
	setupCreds(t)

	b := fake.NewBrowser()
	tc := &flow.TestCase{
		ID:  "t1",
		URL: "https://shop.example.com",
		Actions: []flow.Action{
			&flow.UnknownAction{
				BaseAction: flow.BaseAction{ActionType: "doesNotExist"},
				RawType:    "doesNotExist",
			},
			clickAction("#buy"),
		},
	}

	runner := newTestRunner(t, b, testConfig())
	result := runner.Run(context.Background(), tc, 1, 1)

	if !result.Success {
		t.Fatalf("unknown action kind must not fail the case: %s", result.Error)
	}
}

func TestFailurePreservesCapturedData(t *testing.T) {
	setupCreds(t)

	broken := errors.New("button gone")
	b := fake.NewBrowser()
	b.Configure = func(s *fake.Session) {
		s.PageTextValue = "合計 9,800円"
		s.ClickErrs["css=#broken"] = []error{broken, broken, broken}
	}

	tc := &flow.TestCase{
		ID:  "t1",
		URL: "https://shop.example.com/order/confirm",
		Actions: []flow.Action{
			screenshotAction(),
			clickAction("#broken"),
		},
	}

	runner := newTestRunner(t, b, testConfig())
	result := runner.Run(context.Background(), tc, 1, 1)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Price != "9,800円" {
		t.Errorf("failure must not discard the captured price, got %q", result.Price)
	}
	// One flow screenshot plus the failure screenshot.
	if len(result.Screenshots) != 2 {
		t.Fatalf("expected 2 screenshots, got %d: %v", len(result.Screenshots), result.Screenshots)
	}
	if !strings.HasSuffix(result.Screenshots[1], "t1_error.png") {
		t.Errorf("unexpected error screenshot name: %s", result.Screenshots[1])
	}
	if !b.LastSession().Closed {
		t.Error("session must be torn down on failure")
	}
}

func TestPoolRunsEveryCaseExactlyOnce(t *testing.T) {
	setupCreds(t)
	cfg := testConfig()
	cfg.Parallel = 3

	b := fake.NewBrowser()
	cases := make([]*flow.TestCase, 10)
	for i := range cases {
		cases[i] = &flow.TestCase{
			ID:  string(rune('a' + i)),
			URL: "https://shop.example.com",
		}
	}

	pool := NewPool(newTestRunner(t, b, cfg), cfg, quietLog())
	results := pool.Run(context.Background(), cases)

	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	seen := map[string]int{}
	for _, r := range results {
		seen[r.TestID]++
	}
	for _, tc := range cases {
		if seen[tc.ID] != 1 {
			t.Errorf("case %s completed %d times, want exactly once", tc.ID, seen[tc.ID])
		}
	}
}

func TestPoolRetryBound(t *testing.T) {
	setupCreds(t)
	cfg := testConfig()
	cfg.Parallel = 1

	b := fake.NewBrowser()
	b.Configure = func(s *fake.Session) {
		s.NavigateErr = errors.New("site is down")
	}

	tc := &flow.TestCase{ID: "t1", URL: "https://shop.example.com"}
	pool := NewPool(newTestRunner(t, b, cfg), cfg, quietLog())
	results := pool.Run(context.Background(), []*flow.TestCase{tc})

	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(results))
	}
	if results[0].Success {
		t.Fatal("expected final failure")
	}
	// MaxRetries 2 means 3 attempts total, each with its own session.
	if results[0].Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", results[0].Attempts)
	}
	if len(b.Sessions) != 3 {
		t.Errorf("expected one session per attempt, got %d", len(b.Sessions))
	}
}

func TestPoolRetrySucceedsOnSecondAttempt(t *testing.T) {
	setupCreds(t)
	cfg := testConfig()
	cfg.Parallel = 1

	count := 0
	b := fake.NewBrowser()
	b.Configure = func(s *fake.Session) {
		count++
		if count == 1 {
			s.NavigateErr = errors.New("hiccup")
		}
	}

	tc := &flow.TestCase{ID: "t1", URL: "https://shop.example.com"}
	pool := NewPool(newTestRunner(t, b, cfg), cfg, quietLog())
	results := pool.Run(context.Background(), []*flow.TestCase{tc})

	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected recovery on second attempt: %+v", results)
	}
	if results[0].Attempts != 2 {
		t.Errorf("expected 2 attempts recorded, got %d", results[0].Attempts)
	}
}

func TestScriptEngineEval(t *testing.T) {
	e := NewScriptEngine(quietLog())

	value, err := e.Eval("40 + 2")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if value != "42" {
		t.Errorf("expected 42, got %q", value)
	}

	// Output persists across evaluations of the same engine.
	if _, err := e.Eval(`output.orderId = "A-100"`); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	value, err = e.Eval("output.orderId")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if value != "A-100" {
		t.Errorf("expected A-100, got %q", value)
	}
	if got := e.Output()["orderId"]; got != "A-100" {
		t.Errorf("expected stored output A-100, got %v", got)
	}

	if _, err := e.Eval("this is not javascript"); err == nil {
		t.Error("expected error for invalid script")
	}
}

func TestDispatchMissingTarget(t *testing.T) {
	s := fake.NewSession()
	d := NewDispatcher(s, credentials.Credentials{}, nil, NewScriptEngine(quietLog()),
		testConfig(), "t1", quietLog())

	_, err := d.Dispatch(context.Background(), &flow.ClickAction{
		BaseAction: flow.BaseAction{ActionType: flow.ActionClick},
	})
	if !errors.Is(err, browser.ErrMissingTarget) {
		t.Errorf("expected ErrMissingTarget, got %v", err)
	}
	if len(s.Calls) != 0 {
		t.Error("no interaction may be attempted without a target")
	}
}

func TestDispatchWaitForResponseExtractsField(t *testing.T) {
	s := fake.NewSession()
	s.Responses["/api/order"] = &browser.NetworkResponse{
		URL:    "https://shop.example.com/api/order",
		Status: 200,
		Body:   []byte(`{"order": {"total": 3500}}`),
	}

	d := NewDispatcher(s, credentials.Credentials{}, nil, NewScriptEngine(quietLog()),
		testConfig(), "t1", quietLog())

	out, err := d.Dispatch(context.Background(), &flow.WaitForResponseAction{
		BaseAction:   flow.BaseAction{ActionType: flow.ActionWaitForResponse},
		URLPattern:   "/api/order",
		ExtractField: "order.total",
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if out.Value != "3500" {
		t.Errorf("expected 3500, got %q", out.Value)
	}
}
