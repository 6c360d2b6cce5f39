package flow

import (
	"github.com/orderlab-dev/checkout-runner/pkg/browser"
)

// Target is element addressing as written in test data. Either a
// structural/attribute selector string or an accessible role + name pair
// must be present; an action that needs a target and has neither fails
// validation at load time and dispatch otherwise.
type Target struct {
	Selector string `json:"selector,omitempty" yaml:"selector"`
	Role     string `json:"role,omitempty" yaml:"role"`
	Name     string `json:"name,omitempty" yaml:"name"`
	Exact    bool   `json:"exact,omitempty" yaml:"exact"`
}

// ActionTarget returns the target itself; embedding Target makes an action
// satisfy the Targeted interface through promotion.
func (t Target) ActionTarget() Target { return t }

// IsEmpty reports whether no addressing mode is set.
func (t Target) IsEmpty() bool {
	return t.Selector == "" && t.Role == "" && t.Name == ""
}

// Locator converts the target to the capability layer's addressing value.
func (t Target) Locator() browser.Locator {
	return browser.Locator{
		Selector: t.Selector,
		Role:     t.Role,
		Name:     t.Name,
		Exact:    t.Exact,
	}
}

// Describe returns a human-readable description.
func (t Target) Describe() string {
	if t.IsEmpty() {
		return "(no target)"
	}
	return t.Locator().String()
}
