package browser

import "fmt"

// Locator addresses exactly one element, either by a structural/attribute
// selector or by an accessible role plus accessible name. A session resolves
// whichever mode is set; when both are set the selector wins.
type Locator struct {
	Selector string
	Role     string
	Name     string
	Exact    bool // exact accessible-name match instead of substring
}

// IsZero reports whether no addressing information is present.
func (l Locator) IsZero() bool {
	return l.Selector == "" && l.Role == "" && l.Name == ""
}

// String returns a stable human-readable key, e.g. for logs and test fakes.
func (l Locator) String() string {
	if l.Selector != "" {
		return "css=" + l.Selector
	}
	if l.Exact {
		return fmt.Sprintf("role=%s[name=%q,exact]", l.Role, l.Name)
	}
	return fmt.Sprintf("role=%s[name=%q]", l.Role, l.Name)
}
