// Package browser defines the browser-automation capability consumed by the
// executor. Implementations drive a real browser (CDP, WebDriver, ...);
// the engine only depends on this interface and never on a concrete driver.
package browser

import (
	"context"
	"time"
)

// DeviceClass selects the viewport profile for a session.
type DeviceClass string

// Device classes.
const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
)

// BasicAuth carries HTTP Basic credentials applied to every request of a
// session.
type BasicAuth struct {
	Username string
	Password string
}

// SessionOptions configure a new isolated browser session.
type SessionOptions struct {
	Device    DeviceClass
	Headless  bool
	BasicAuth *BasicAuth // nil = no HTTP-level auth
}

// Browser creates isolated sessions. One Browser may back many concurrent
// sessions; sessions must not share cookies or storage.
type Browser interface {
	NewSession(ctx context.Context, opts SessionOptions) (Session, error)
}

// ClickOptions tune a single click attempt.
type ClickOptions struct {
	Timeout time.Duration
	// Force performs the click even when another element intercepts the
	// pointer. Used only during recovery attempts.
	Force bool
}

// NetworkResponse is a captured network response matched by WaitForResponse.
type NetworkResponse struct {
	URL    string
	Status int
	Body   []byte
}

// Session is one live browser page. All methods that talk to the browser
// take a context and suspend only the calling goroutine.
//
// Close must tear down the page context before the browser process it
// belongs to, and must be safe to call on every exit path.
type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	Click(ctx context.Context, loc Locator, opts ClickOptions) error
	Fill(ctx context.Context, loc Locator, value string, timeout time.Duration) error
	SelectOption(ctx context.Context, loc Locator, value string, timeout time.Duration) error
	SetChecked(ctx context.Context, loc Locator, checked bool, timeout time.Duration) error
	Hover(ctx context.Context, loc Locator, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, loc Locator, timeout time.Duration) error
	DragTo(ctx context.Context, from, to Locator, timeout time.Duration) error
	Press(ctx context.Context, loc Locator, key string, timeout time.Duration) error

	Text(ctx context.Context, loc Locator, timeout time.Duration) (string, error)
	Attribute(ctx context.Context, loc Locator, name string, timeout time.Duration) (string, error)
	InputValue(ctx context.Context, loc Locator, timeout time.Duration) (string, error)
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	WaitVisible(ctx context.Context, loc Locator, timeout time.Duration) error
	WaitForResponse(ctx context.Context, urlPattern string, timeout time.Duration) (*NetworkResponse, error)

	SetFiles(ctx context.Context, loc Locator, paths []string, timeout time.Duration) error
	Evaluate(ctx context.Context, script string, timeout time.Duration) (string, error)
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)

	// Texts returns the text content of every element matching the CSS
	// selector. A selector with no matches yields an empty slice, not an
	// error.
	Texts(ctx context.Context, selector string, timeout time.Duration) ([]string, error)
	// PageText returns the rendered text of the whole page.
	PageText(ctx context.Context) (string, error)

	Close(ctx context.Context) error
}
