package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// PrintSummary renders the run as a console table followed by a one-line
// tally.
func PrintSummary(w io.Writer, results []TestResult) {
	sorted := make([]TestResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TestID < sorted[j].TestID })

	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(w)
	table.Header("Test", "Option", "Shipping", "Payment", "Status", "Price", "Attempts", "Duration")

	passed := 0
	for i := range sorted {
		r := &sorted[i]
		status := fail(string(StatusFailed))
		if r.Success {
			status = pass(string(StatusPassed))
			passed++
		}
		table.Append([]string{
			r.TestID,
			r.Info.Option,
			r.Info.Shipping,
			r.Info.Payment,
			status,
			r.Price,
			fmt.Sprintf("%d", r.Attempts),
			(time.Duration(r.DurationMs) * time.Millisecond).String(),
		})
	}
	table.Render()

	tally := fmt.Sprintf("%d passed, %d failed of %d", passed, len(sorted)-passed, len(sorted))
	if passed == len(sorted) {
		fmt.Fprintln(w, pass(tally))
	} else {
		fmt.Fprintln(w, fail(tally))
	}
}
