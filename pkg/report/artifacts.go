package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ScreenshotNamer hands out collision-free screenshot paths and writes the
// image data. Indices are per test id and safe for concurrent workers.
type ScreenshotNamer struct {
	dir string

	mu     sync.Mutex
	counts map[string]int
}

// NewScreenshotNamer creates the screenshot directory if needed.
func NewScreenshotNamer(dir string) (*ScreenshotNamer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return &ScreenshotNamer{dir: dir, counts: map[string]int{}}, nil
}

// Save writes a flow screenshot as <testId>_<n>.png with n counting up from
// 1 within the test case.
func (n *ScreenshotNamer) Save(testID string, data []byte) (string, error) {
	n.mu.Lock()
	n.counts[testID]++
	idx := n.counts[testID]
	n.mu.Unlock()

	path := filepath.Join(n.dir, fmt.Sprintf("%s_%d.png", testID, idx))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}

// SaveError writes a failure screenshot. The first attempt writes
// <testId>_error.png; retries write <testId>_error_attempt<n>.png so earlier
// evidence is never overwritten.
func (n *ScreenshotNamer) SaveError(testID string, attempt int, data []byte) (string, error) {
	name := testID + "_error.png"
	if attempt > 1 {
		name = fmt.Sprintf("%s_error_attempt%d.png", testID, attempt)
	}

	path := filepath.Join(n.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write error screenshot: %w", err)
	}
	return path, nil
}
