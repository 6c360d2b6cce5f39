package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// runFile is the top-level shape of a results file.
type runFile struct {
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Total      int          `json:"total"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

func buildRunFile(results []TestResult, startedAt, finishedAt time.Time) runFile {
	sorted := make([]TestResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TestID < sorted[j].TestID })

	passed := 0
	for i := range sorted {
		if sorted[i].Success {
			passed++
		}
	}

	return runFile{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Total:      len(sorted),
		Passed:     passed,
		Failed:     len(sorted) - passed,
		Results:    sorted,
	}
}

// WriteResults writes the run's results as a timestamped JSON file and
// returns its path. Results are sorted by test id so consecutive runs diff
// cleanly regardless of scheduling order.
func WriteResults(dir string, results []TestResult, startedAt, finishedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	file := buildRunFile(results, startedAt, finishedAt)
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("results_%s.json", finishedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results file: %w", err)
	}
	return path, nil
}
