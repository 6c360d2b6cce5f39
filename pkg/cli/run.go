package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/orderlab-dev/checkout-runner/pkg/config"
	"github.com/orderlab-dev/checkout-runner/pkg/credentials"
	"github.com/orderlab-dev/checkout-runner/pkg/executor"
	"github.com/orderlab-dev/checkout-runner/pkg/flow"
	"github.com/orderlab-dev/checkout-runner/pkg/history"
	"github.com/orderlab-dev/checkout-runner/pkg/logger"
	"github.com/orderlab-dev/checkout-runner/pkg/report"
)

func run(c *cli.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}
	if c.IsSet("parallel") {
		cfg.Parallel = c.Int("parallel")
		if err := cfg.Validate(); err != nil {
			return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
		}
	}

	level := cfg.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	log, err := logger.Setup(level, cfg.LogFile)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	dir, file := c.String("dir"), c.String("file")
	var cases []*flow.TestCase
	switch {
	case dir != "" && file != "":
		return cli.Exit("--dir and --file are mutually exclusive", 1)
	case dir != "":
		cases, err = flow.LoadDirectory(dir)
	case file != "":
		cases, err = flow.LoadFile(file)
	default:
		return cli.Exit("either --dir or --file is required", 1)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load test cases: %v", err), 1)
	}
	log.WithField("count", len(cases)).Info("Test cases loaded")

	factory, ok := driverFactories[c.String("driver")]
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown browser driver %q", c.String("driver")), 1)
	}
	b, err := factory()
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to start browser driver: %v", err), 1)
	}

	shots, err := report.NewScreenshotNamer(cfg.ScreenshotDir)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	resolver := credentials.NewResolver(log, cfg.CredentialPolicy)
	runner := executor.NewCaseRunner(b, resolver, shots, cfg, log)
	pool := executor.NewPool(runner, cfg, log)

	started := time.Now()
	results := pool.Run(c.Context, cases)
	finished := time.Now()

	path, err := report.WriteResults(cfg.ResultsDir, results, started, finished)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to write results: %v", err), 1)
	}
	log.WithField("path", path).Info("Results written")

	if htmlPath, err := report.WriteHTML(cfg.ResultsDir, results, started, finished); err != nil {
		log.WithError(err).Warn("Failed to write HTML report")
	} else {
		log.WithField("path", htmlPath).Info("HTML report written")
	}

	if cfg.HistoryDB != "" {
		if store, err := history.OpenSQLite(cfg.HistoryDB, log); err != nil {
			log.WithError(err).Warn("Failed to open history database")
		} else if err := store.Record(c.Context, history.NewRun(results, started, finished)); err != nil {
			log.WithError(err).Warn("Failed to record run history")
		}
	}

	report.PrintSummary(os.Stdout, results)

	if !report.AllPassed(results) {
		failed := 0
		for i := range results {
			if !results[i].Success {
				failed++
			}
		}
		return cli.Exit(fmt.Sprintf("%d test case(s) failed", failed), 1)
	}
	return nil
}
