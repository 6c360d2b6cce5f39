package flow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
)

// ParseError represents a parsing or validation error with location info.
type ParseError struct {
	Path    string
	Index   int // action index, -1 for case-level errors
	Message string
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: action %d: %s", e.Path, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single test case file. JSON is the native format;
// .yaml/.yml files carrying the same schema are converted first.
func ParseFile(path string) (*TestCase, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided case file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, &ParseError{Path: path, Index: -1, Message: err.Error()}
		}
	}

	return Parse(data, path)
}

// Parse parses test case content. The whole shape is validated here so that
// malformed test data fails before any browser session opens.
func Parse(data []byte, sourcePath string) (*TestCase, error) {
	var raw struct {
		ID        string            `json:"id"`
		Option    string            `json:"option"`
		Shipping  string            `json:"shipping"`
		Payment   string            `json:"payment"`
		URL       string            `json:"url"`
		Profile   string            `json:"profile"`
		Device    string            `json:"device"`
		Headless  *bool             `json:"headless"`
		BasicAuth bool              `json:"basicAuth"`
		Actions   []json.RawMessage `json:"actions"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: sourcePath, Index: -1, Message: err.Error()}
	}

	if raw.ID == "" {
		return nil, &ParseError{Path: sourcePath, Index: -1, Message: "missing test case id"}
	}
	if raw.URL == "" {
		return nil, &ParseError{Path: sourcePath, Index: -1, Message: "missing starting url"}
	}

	device := browser.DeviceClass(raw.Device)
	switch device {
	case "", browser.DeviceDesktop, browser.DeviceMobile:
	default:
		return nil, &ParseError{
			Path:    sourcePath,
			Index:   -1,
			Message: fmt.Sprintf("unknown device class %q", raw.Device),
		}
	}

	headless := true
	if raw.Headless != nil {
		headless = *raw.Headless
	}

	tc := &TestCase{
		ID: raw.ID,
		Info: TestInfo{
			Option:   raw.Option,
			Shipping: raw.Shipping,
			Payment:  raw.Payment,
		},
		URL:        raw.URL,
		Profile:    raw.Profile,
		Device:     device,
		Headless:   headless,
		BasicAuth:  raw.BasicAuth,
		SourcePath: sourcePath,
	}

	for i, rawAction := range raw.Actions {
		act, err := decodeAction(rawAction, i, sourcePath)
		if err != nil {
			return nil, err
		}
		tc.Actions = append(tc.Actions, act)
	}

	return tc, nil
}

// typeProbe extracts the tag before the variant is decoded.
type typeProbe struct {
	Type string `json:"type"`
}

//nolint:gocyclo
func decodeAction(data json.RawMessage, idx int, sourcePath string) (Action, error) {
	var probe typeProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &ParseError{Path: sourcePath, Index: idx, Message: err.Error()}
	}
	if probe.Type == "" {
		return nil, &ParseError{Path: sourcePath, Index: idx, Message: "missing action type"}
	}

	actionType := ActionType(probe.Type)

	fail := func(msg string) error {
		return &ParseError{
			Path:    sourcePath,
			Index:   idx,
			Message: fmt.Sprintf("%s: %s", actionType, msg),
		}
	}
	decode := func(v Action) error {
		if err := json.Unmarshal(data, v); err != nil {
			return fail(err.Error())
		}
		return nil
	}
	requireTarget := func(a Action) error {
		t, ok := a.(Targeted)
		if !ok || t.ActionTarget().IsEmpty() {
			return fail("missing target")
		}
		return nil
	}

	switch actionType {
	case ActionGoto:
		a := &GotoAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if a.URL == "" {
			return nil, fail("missing url")
		}
		return a, nil

	case ActionClick:
		a := &ClickAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionFill:
		a := &FillAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionSelect:
		a := &SelectAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionCheck, ActionUncheck:
		a := &CheckAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionHover:
		a := &HoverAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionScrollIntoView:
		a := &ScrollIntoViewAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionDragAndDrop:
		a := &DragAndDropAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		if a.To.IsEmpty() {
			return nil, fail("missing drop target")
		}
		return a, nil

	case ActionPress:
		// Target is optional: without one the key goes to the page.
		a := &PressAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if a.Key == "" {
			return nil, fail("missing key")
		}
		return a, nil

	case ActionGetText:
		a := &GetTextAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionGetAttribute:
		a := &GetAttributeAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		if a.Attribute == "" {
			return nil, fail("missing attribute name")
		}
		return a, nil

	case ActionGetInputValue:
		a := &GetInputValueAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionGetURL:
		a := &GetURLAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionGetTitle:
		a := &GetTitleAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionWaitVisible:
		a := &WaitVisibleAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionWait:
		a := &WaitAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if a.Ms <= 0 {
			return nil, fail("wait duration must be positive")
		}
		return a, nil

	case ActionWaitForResponse:
		a := &WaitForResponseAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if a.URLPattern == "" {
			return nil, fail("missing urlPattern")
		}
		return a, nil

	case ActionScreenshot:
		a := &ScreenshotAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		return a, nil

	case ActionUploadFile:
		a := &UploadFileAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		if len(a.AllPaths()) == 0 {
			return nil, fail("missing file path")
		}
		return a, nil

	case ActionUploadAndWait:
		a := &UploadAndWaitAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if err := requireTarget(a); err != nil {
			return nil, err
		}
		if len(a.AllPaths()) == 0 {
			return nil, fail("missing file path")
		}
		if a.URLPattern == "" {
			return nil, fail("missing urlPattern")
		}
		return a, nil

	case ActionEvaluate:
		a := &EvaluateAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if a.Script == "" {
			return nil, fail("missing script")
		}
		return a, nil

	case ActionEvalScript:
		a := &EvalScriptAction{BaseAction: BaseAction{ActionType: actionType}}
		if err := decode(a); err != nil {
			return nil, err
		}
		if a.Script == "" {
			return nil, fail("missing script")
		}
		return a, nil

	default:
		// Unknown kinds parse cleanly and are skipped at dispatch, so new
		// action vocabularies never fail existing runs.
		a := &UnknownAction{
			BaseAction: BaseAction{ActionType: actionType},
			RawType:    probe.Type,
		}
		var base BaseAction
		if err := json.Unmarshal(data, &base); err == nil {
			a.TimeoutMs = base.TimeoutMs
			a.Note = base.Note
		}
		return a, nil
	}
}

// yamlToJSON converts a YAML document to its JSON equivalent so both
// encodings share one decode path.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// caseFileExts are the recognized test case file extensions.
var caseFileExts = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// LoadFile loads a single named test case file.
func LoadFile(path string) ([]*TestCase, error) {
	tc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return []*TestCase{tc}, nil
}

// LoadDirectory loads every test case file in a directory, in name order.
// Files whose names begin with an underscore are reserved for matrix and
// metadata files and are skipped.
func LoadDirectory(dir string) ([]*TestCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var cases []*TestCase
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}
		if !caseFileExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		tc, err := ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}

	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases found in %s", dir)
	}
	return cases, nil
}
