package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>Checkout Run {{.FinishedAt.Format "2006-01-02 15:04:05"}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f4f4f4; }
.passed { color: #0a7d33; font-weight: bold; }
.failed { color: #c0392b; font-weight: bold; }
.error { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Checkout Run</h1>
<p>{{.Passed}} passed, {{.Failed}} failed of {{.Total}} ({{.FinishedAt.Format "2006-01-02 15:04:05"}})</p>
<table>
<tr><th>Test</th><th>Option</th><th>Shipping</th><th>Payment</th><th>Status</th><th>Price</th><th>Attempts</th><th>Duration</th><th>Screenshots</th></tr>
{{range .Results}}
<tr>
<td>{{.TestID}}</td>
<td>{{.Info.Option}}</td>
<td>{{.Info.Shipping}}</td>
<td>{{.Info.Payment}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{.Price}}</td>
<td>{{.Attempts}}</td>
<td>{{.DurationMs}}ms</td>
<td>{{range .Screenshots}}<a href="{{.}}">{{.}}</a> {{end}}</td>
</tr>
{{if .Error}}<tr><td colspan="9" class="error">{{.Error}}</td></tr>{{end}}
{{end}}
</table>
</body>
</html>
`))

// WriteHTML writes an HTML rendition of the run next to the JSON results and
// returns its path.
func WriteHTML(dir string, results []TestResult, startedAt, finishedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("results_%s.html", finishedAt.Format("20060102_150405")))
	f, err := os.Create(path) //#nosec G304 -- path built from configured results dir
	if err != nil {
		return "", fmt.Errorf("failed to create html report: %w", err)
	}
	defer f.Close()

	if err := summaryTemplate.Execute(f, buildRunFile(results, startedAt, finishedAt)); err != nil {
		return "", fmt.Errorf("failed to render html report: %w", err)
	}
	return path, nil
}
