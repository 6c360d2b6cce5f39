// Package cli provides the command-line interface for checkout-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/orderlab-dev/checkout-runner/pkg/browser"
	"github.com/orderlab-dev/checkout-runner/pkg/browser/fake"
)

// Version is set at build time.
var Version = "dev"

// driverFactories maps --driver values to browser capability constructors.
// The fake driver ships in-tree for pipeline validation of case files; real
// drivers register themselves at link time via RegisterDriver.
var driverFactories = map[string]func() (browser.Browser, error){
	"fake": func() (browser.Browser, error) { return fake.NewBrowser(), nil },
}

// RegisterDriver makes a browser implementation selectable via --driver.
func RegisterDriver(name string, factory func() (browser.Browser, error)) {
	driverFactories[name] = factory
}

// App builds the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "checkout-runner",
		Usage:   "Concurrent runner for declarative checkout test flows",
		Version: Version,
		Description: `checkout-runner executes JSON/YAML checkout test cases against a web
front end, scrapes the confirmed order total, and writes JSON/HTML results.

Examples:
  checkout-runner --dir testcases/
  checkout-runner --file testcases/checkout_001.json --parallel 4`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Directory of test case files (underscore-prefixed files are skipped)",
				EnvVars: []string{"TESTCASE_DIR"},
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Single test case file",
			},
			&cli.IntFlag{
				Name:    "parallel",
				Aliases: []string{"n"},
				Usage:   "Number of concurrent workers",
				EnvVars: []string{"PARALLEL_COUNT"},
			},
			&cli.StringFlag{
				Name:    "driver",
				Aliases: []string{"d"},
				Usage:   "Browser driver to use",
				Value:   "fake",
				EnvVars: []string{"BROWSER_DRIVER"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable debug logging",
				EnvVars: []string{"RUNNER_VERBOSE"},
			},
		},
		Action: run,
	}
}

// Execute runs the CLI.
func Execute() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
