// Package flow handles parsing and representation of checkout test case
// files.
package flow

import (
	"fmt"
	"strings"
	"time"
)

// ActionType is the type tag of a test action.
type ActionType string

// Action type constants.
const (
	// Navigation
	ActionGoto ActionType = "goto"

	// Interaction
	ActionClick          ActionType = "click"
	ActionFill           ActionType = "fill"
	ActionSelect         ActionType = "select"
	ActionCheck          ActionType = "check"
	ActionUncheck        ActionType = "uncheck"
	ActionHover          ActionType = "hover"
	ActionScrollIntoView ActionType = "scrollIntoView"
	ActionDragAndDrop    ActionType = "dragAndDrop"
	ActionPress          ActionType = "press"

	// State query
	ActionGetText       ActionType = "getText"
	ActionGetAttribute  ActionType = "getAttribute"
	ActionGetInputValue ActionType = "getInputValue"
	ActionGetURL        ActionType = "getURL"
	ActionGetTitle      ActionType = "getTitle"

	// Synchronization
	ActionWaitVisible     ActionType = "waitVisible"
	ActionWait            ActionType = "wait"
	ActionWaitForResponse ActionType = "waitForResponse"

	// Capture
	ActionScreenshot ActionType = "screenshot"

	// File injection
	ActionUploadFile    ActionType = "uploadFile"
	ActionUploadAndWait ActionType = "uploadAndWaitForResponse"

	// Scripting
	ActionEvaluate   ActionType = "evaluate"
	ActionEvalScript ActionType = "evalScript"
)

// DefaultTimeout applies when an action does not set its own timeout.
const DefaultTimeout = 30 * time.Second

// Action is the interface for all test actions.
type Action interface {
	Type() ActionType
	Timeout() time.Duration
	Comment() string
	Describe() string
}

// BaseAction contains the fields common to all actions.
type BaseAction struct {
	ActionType ActionType `json:"-" yaml:"-"`
	TimeoutMs  int        `json:"timeout,omitempty" yaml:"timeout"`
	// Note is documentation for the test author; it is never executed.
	Note string `json:"comment,omitempty" yaml:"comment"`
}

// Type returns the action type.
func (b *BaseAction) Type() ActionType { return b.ActionType }

// Timeout returns the action timeout, defaulting to DefaultTimeout.
func (b *BaseAction) Timeout() time.Duration {
	if b.TimeoutMs > 0 {
		return time.Duration(b.TimeoutMs) * time.Millisecond
	}
	return DefaultTimeout
}

// Comment returns the author's free-text comment.
func (b *BaseAction) Comment() string { return b.Note }

// Describe returns a human-readable description.
func (b *BaseAction) Describe() string { return string(b.ActionType) }

// Targeted is implemented by actions that address an element. The parser
// uses it to enforce that at least one addressing mode is present.
type Targeted interface {
	ActionTarget() Target
}

// GotoAction navigates to a URL.
type GotoAction struct {
	BaseAction `yaml:",inline"`
	URL        string `json:"url" yaml:"url"`
}

// ClickAction clicks one element. Click is the only interaction wrapped in
// transient-failure recovery at dispatch time.
type ClickAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// FillAction types a value into an input. The value may carry credential
// placeholder tokens.
type FillAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
	Value      string `json:"value" yaml:"value"`
}

// SelectAction picks an option of a select element by value.
type SelectAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
	Value      string `json:"value" yaml:"value"`
}

// CheckAction checks (or unchecks, for type "uncheck") a checkbox or radio.
type CheckAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// HoverAction moves the pointer over an element.
type HoverAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// ScrollIntoViewAction scrolls until the element is in the viewport.
type ScrollIntoViewAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// DragAndDropAction drags the primary target onto the secondary one.
type DragAndDropAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
	To         Target `json:"to" yaml:"to"`
}

// PressAction sends a key press to an element, or to the page when no
// target is given.
type PressAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
	Key        string `json:"key" yaml:"key"`
}

// GetTextAction reads an element's text content.
type GetTextAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// GetAttributeAction reads one attribute of an element.
type GetAttributeAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
	Attribute  string `json:"attribute" yaml:"attribute"`
}

// GetInputValueAction reads the current value of an input element.
type GetInputValueAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// GetURLAction reads the current page URL.
type GetURLAction struct {
	BaseAction `yaml:",inline"`
}

// GetTitleAction reads the current page title.
type GetTitleAction struct {
	BaseAction `yaml:",inline"`
}

// WaitVisibleAction waits until the target is visible.
type WaitVisibleAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
}

// WaitAction waits for a fixed duration.
type WaitAction struct {
	BaseAction `yaml:",inline"`
	Ms         int `json:"ms" yaml:"ms"`
}

// WaitForResponseAction waits for a network response whose URL matches the
// pattern, optionally extracting one field from a JSON body.
type WaitForResponseAction struct {
	BaseAction   `yaml:",inline"`
	URLPattern   string `json:"urlPattern" yaml:"urlPattern"`
	ExtractField string `json:"extractField,omitempty" yaml:"extractField"`
}

// ScreenshotAction captures the viewport, or the full page when FullPage is
// set. The artifact filename is derived from the test id plus a
// monotonically incremented index.
type ScreenshotAction struct {
	BaseAction `yaml:",inline"`
	FullPage   bool `json:"fullPage,omitempty" yaml:"fullPage"`
}

// UploadFileAction injects one or more files into a file input. Either Path
// or Paths must be set.
type UploadFileAction struct {
	BaseAction `yaml:",inline"`
	Target     `yaml:",inline"`
	Path       string   `json:"path,omitempty" yaml:"path"`
	Paths      []string `json:"paths,omitempty" yaml:"paths"`
}

// AllPaths returns the file paths regardless of which field was used.
func (a *UploadFileAction) AllPaths() []string {
	if len(a.Paths) > 0 {
		return a.Paths
	}
	if a.Path != "" {
		return []string{a.Path}
	}
	return nil
}

// UploadAndWaitAction uploads files and then waits for a matching network
// response, as one composite step.
type UploadAndWaitAction struct {
	BaseAction   `yaml:",inline"`
	Target       `yaml:",inline"`
	Path         string   `json:"path,omitempty" yaml:"path"`
	Paths        []string `json:"paths,omitempty" yaml:"paths"`
	URLPattern   string   `json:"urlPattern" yaml:"urlPattern"`
	ExtractField string   `json:"extractField,omitempty" yaml:"extractField"`
}

// AllPaths returns the file paths regardless of which field was used.
func (a *UploadAndWaitAction) AllPaths() []string {
	if len(a.Paths) > 0 {
		return a.Paths
	}
	if a.Path != "" {
		return []string{a.Path}
	}
	return nil
}

// EvaluateAction evaluates a script inside the page and returns its result.
// The script may carry credential placeholder tokens.
type EvaluateAction struct {
	BaseAction `yaml:",inline"`
	Script     string `json:"script" yaml:"script"`
}

// EvalScriptAction evaluates JavaScript locally in the runner, outside the
// browser. Useful for deriving or normalizing values mid-flow.
type EvalScriptAction struct {
	BaseAction `yaml:",inline"`
	Script     string `json:"script" yaml:"script"`
}

// UnknownAction preserves an unrecognized action kind. It is parsed without
// error and skipped at dispatch time with a warning, so new action
// vocabularies in test data never fail existing runs.
type UnknownAction struct {
	BaseAction `yaml:",inline"`
	RawType    string `json:"-" yaml:"-"`
}

// Describe returns the unknown type tag.
func (a *UnknownAction) Describe() string {
	return "unknown action " + a.RawType
}

// Describe implementations. Every type embedding Target overrides Describe
// so the promoted methods stay unambiguous.

func (a *GotoAction) Describe() string  { return "goto " + a.URL }
func (a *ClickAction) Describe() string { return "click " + a.Target.Describe() }
func (a *FillAction) Describe() string  { return "fill " + a.Target.Describe() }
func (a *SelectAction) Describe() string {
	return fmt.Sprintf("select %q on %s", a.Value, a.Target.Describe())
}
func (a *CheckAction) Describe() string {
	return fmt.Sprintf("%s %s", a.ActionType, a.Target.Describe())
}
func (a *HoverAction) Describe() string          { return "hover " + a.Target.Describe() }
func (a *ScrollIntoViewAction) Describe() string { return "scrollIntoView " + a.Target.Describe() }
func (a *DragAndDropAction) Describe() string {
	return fmt.Sprintf("drag %s to %s", a.Target.Describe(), a.To.Describe())
}
func (a *PressAction) Describe() string   { return "press " + a.Key }
func (a *GetTextAction) Describe() string { return "getText " + a.Target.Describe() }
func (a *GetAttributeAction) Describe() string {
	return fmt.Sprintf("getAttribute %q of %s", a.Attribute, a.Target.Describe())
}
func (a *GetInputValueAction) Describe() string { return "getInputValue " + a.Target.Describe() }
func (a *WaitVisibleAction) Describe() string   { return "waitVisible " + a.Target.Describe() }
func (a *WaitAction) Describe() string          { return fmt.Sprintf("wait %dms", a.Ms) }
func (a *WaitForResponseAction) Describe() string {
	return "waitForResponse " + a.URLPattern
}
func (a *ScreenshotAction) Describe() string {
	if a.FullPage {
		return "screenshot (full page)"
	}
	return "screenshot"
}
func (a *UploadFileAction) Describe() string {
	return "uploadFile " + strings.Join(a.AllPaths(), ",")
}
func (a *UploadAndWaitAction) Describe() string {
	return fmt.Sprintf("uploadAndWaitForResponse %s -> %s", strings.Join(a.AllPaths(), ","), a.URLPattern)
}
