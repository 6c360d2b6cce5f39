package flow

import "github.com/orderlab-dev/checkout-runner/pkg/browser"

// TestInfo is the human-readable variant description of a case, echoed into
// its result.
type TestInfo struct {
	Option   string `json:"option,omitempty" yaml:"option"`
	Shipping string `json:"shipping,omitempty" yaml:"shipping"`
	Payment  string `json:"payment,omitempty" yaml:"payment"`
}

// TestCase is one declarative checkout flow. It is immutable after loading;
// its actions execute in exactly the given order.
type TestCase struct {
	ID       string              `json:"id" yaml:"id"`
	Info     TestInfo            `json:"info" yaml:"info"`
	URL      string              `json:"url" yaml:"url"`
	Profile  string              `json:"profile" yaml:"profile"`
	Device   browser.DeviceClass `json:"device" yaml:"device"`
	Headless bool                `json:"headless" yaml:"headless"`
	// BasicAuth marks the case's environment as sitting behind HTTP Basic
	// auth; the shared profile's Basic pair is applied to the session.
	BasicAuth bool     `json:"basicAuth" yaml:"basicAuth"`
	Actions   []Action `json:"-" yaml:"-"`

	// SourcePath is the file the case was loaded from.
	SourcePath string `json:"-" yaml:"-"`
}

// DefaultProfile is the credential profile used when a case names none.
const DefaultProfile = "dev"

// CredentialProfile returns the case's profile, defaulting to
// DefaultProfile.
func (tc *TestCase) CredentialProfile() string {
	if tc.Profile != "" {
		return tc.Profile
	}
	return DefaultProfile
}

// DeviceClass returns the case's device class, defaulting to desktop.
func (tc *TestCase) DeviceClass() browser.DeviceClass {
	if tc.Device != "" {
		return tc.Device
	}
	return browser.DeviceDesktop
}
