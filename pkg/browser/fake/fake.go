// Package fake provides a scriptable in-memory browser for tests. Element
// behavior is keyed by Locator.String(), so tests describe a page as a flat
// map from locator keys to canned results.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
)

// Call records one session method invocation.
type Call struct {
	Method string
	Key    string
	Value  string
}

// Session is a scriptable browser.Session.
type Session struct {
	mu sync.Mutex

	// Options are the options the session was opened with.
	Options browser.SessionOptions

	// ClickErrs holds per-locator error queues. Each click attempt consumes
	// one entry; an empty or exhausted queue means the click succeeds.
	ClickErrs map[string][]error
	// FailAll, when set, is returned by every interaction method.
	FailAll error

	NavigateErr error
	CloseErr    error

	TextValues      map[string]string
	AttrValues      map[string]string
	InputValues     map[string]string
	TextsBySelector map[string][]string
	PageTextValue   string
	EvalResults     map[string]string
	Responses       map[string]*browser.NetworkResponse
	ScreenshotData  []byte
	PageTitle       string

	// CurrentURL is updated by Navigate and read back by URL.
	CurrentURL string

	Calls        []Call
	ForcedClicks []string
	FillValues   map[string][]string
	Closed       bool
}

// NewSession returns an empty scriptable session.
func NewSession() *Session {
	return &Session{
		ClickErrs:       map[string][]error{},
		TextValues:      map[string]string{},
		AttrValues:      map[string]string{},
		InputValues:     map[string]string{},
		TextsBySelector: map[string][]string{},
		EvalResults:     map[string]string{},
		Responses:       map[string]*browser.NetworkResponse{},
		FillValues:      map[string][]string{},
		ScreenshotData:  []byte("fake-png"),
	}
}

var _ browser.Session = (*Session)(nil)

func (s *Session) record(method, key, value string) {
	s.Calls = append(s.Calls, Call{Method: method, Key: key, Value: value})
}

// CallMethods returns the method names of all recorded calls, in order.
func (s *Session) CallMethods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	methods := make([]string, len(s.Calls))
	for i, c := range s.Calls {
		methods[i] = c.Method
	}
	return methods
}

func (s *Session) Navigate(_ context.Context, url string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Navigate", url, "")
	if s.FailAll != nil {
		return s.FailAll
	}
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.CurrentURL = url
	return nil
}

func (s *Session) Click(_ context.Context, loc browser.Locator, opts browser.ClickOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String()
	s.record("Click", key, "")
	if opts.Force {
		s.ForcedClicks = append(s.ForcedClicks, key)
	}
	if s.FailAll != nil {
		return s.FailAll
	}
	if queue := s.ClickErrs[key]; len(queue) > 0 {
		err := queue[0]
		s.ClickErrs[key] = queue[1:]
		return err
	}
	return nil
}

func (s *Session) Fill(_ context.Context, loc browser.Locator, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String()
	s.record("Fill", key, value)
	if s.FailAll != nil {
		return s.FailAll
	}
	s.FillValues[key] = append(s.FillValues[key], value)
	return nil
}

func (s *Session) SelectOption(_ context.Context, loc browser.Locator, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("SelectOption", loc.String(), value)
	return s.FailAll
}

func (s *Session) SetChecked(_ context.Context, loc browser.Locator, checked bool, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := "false"
	if checked {
		value = "true"
	}
	s.record("SetChecked", loc.String(), value)
	return s.FailAll
}

func (s *Session) Hover(_ context.Context, loc browser.Locator, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Hover", loc.String(), "")
	return s.FailAll
}

func (s *Session) ScrollIntoView(_ context.Context, loc browser.Locator, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ScrollIntoView", loc.String(), "")
	return s.FailAll
}

func (s *Session) DragTo(_ context.Context, from, to browser.Locator, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("DragTo", from.String(), to.String())
	return s.FailAll
}

func (s *Session) Press(_ context.Context, loc browser.Locator, key string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Press", loc.String(), key)
	return s.FailAll
}

func (s *Session) Text(_ context.Context, loc browser.Locator, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String()
	s.record("Text", key, "")
	if s.FailAll != nil {
		return "", s.FailAll
	}
	return s.TextValues[key], nil
}

func (s *Session) Attribute(_ context.Context, loc browser.Locator, name string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String() + "/" + name
	s.record("Attribute", key, "")
	if s.FailAll != nil {
		return "", s.FailAll
	}
	return s.AttrValues[key], nil
}

func (s *Session) InputValue(_ context.Context, loc browser.Locator, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String()
	s.record("InputValue", key, "")
	if s.FailAll != nil {
		return "", s.FailAll
	}
	return s.InputValues[key], nil
}

func (s *Session) URL(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("URL", "", "")
	return s.CurrentURL, nil
}

func (s *Session) Title(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Title", "", "")
	return s.PageTitle, nil
}

func (s *Session) WaitVisible(_ context.Context, loc browser.Locator, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loc.String()
	s.record("WaitVisible", key, "")
	if s.FailAll != nil {
		return s.FailAll
	}
	// Visible iff the test scripted any state for the locator.
	if _, ok := s.TextValues[key]; ok {
		return nil
	}
	if _, ok := s.ClickErrs[key]; ok {
		return nil
	}
	return browser.ErrActionTimeout.WithMessage("element not visible: " + key)
}

func (s *Session) WaitForResponse(_ context.Context, urlPattern string, _ time.Duration) (*browser.NetworkResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("WaitForResponse", urlPattern, "")
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	if resp, ok := s.Responses[urlPattern]; ok {
		return resp, nil
	}
	return nil, browser.ErrActionTimeout.WithMessage("no response matched " + urlPattern)
}

func (s *Session) SetFiles(_ context.Context, loc browser.Locator, paths []string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := ""
	if len(paths) > 0 {
		value = paths[0]
	}
	s.record("SetFiles", loc.String(), value)
	return s.FailAll
}

func (s *Session) Evaluate(_ context.Context, script string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Evaluate", script, "")
	if s.FailAll != nil {
		return "", s.FailAll
	}
	return s.EvalResults[script], nil
}

func (s *Session) Screenshot(_ context.Context, fullPage bool) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := ""
	if fullPage {
		value = "full"
	}
	s.record("Screenshot", "", value)
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	return s.ScreenshotData, nil
}

func (s *Session) Texts(_ context.Context, selector string, _ time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Texts", selector, "")
	if s.FailAll != nil {
		return nil, s.FailAll
	}
	return s.TextsBySelector[selector], nil
}

func (s *Session) PageText(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("PageText", "", "")
	if s.FailAll != nil {
		return "", s.FailAll
	}
	return s.PageTextValue, nil
}

func (s *Session) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Close", "", "")
	s.Closed = true
	return s.CloseErr
}

// Browser hands out scriptable sessions and records every one it created.
type Browser struct {
	mu sync.Mutex

	// Configure, when set, is invoked on each new session before it is
	// returned, so tests can script per-session page state.
	Configure func(s *Session)

	NewSessionErr error

	Sessions []*Session
}

var _ browser.Browser = (*Browser)(nil)

// NewBrowser returns an empty fake browser.
func NewBrowser() *Browser {
	return &Browser{}
}

func (b *Browser) NewSession(_ context.Context, opts browser.SessionOptions) (browser.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NewSessionErr != nil {
		return nil, b.NewSessionErr
	}
	s := NewSession()
	s.Options = opts
	if b.Configure != nil {
		b.Configure(s)
	}
	b.Sessions = append(b.Sessions, s)
	return s, nil
}

// LastSession returns the most recently created session, or nil.
func (b *Browser) LastSession() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Sessions) == 0 {
		return nil
	}
	return b.Sessions[len(b.Sessions)-1]
}
