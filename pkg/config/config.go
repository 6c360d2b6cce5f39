// Package config loads runner configuration from the environment. A .env
// file in the working directory is merged in first, so local runs and CI
// share one mechanism.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// CredentialPolicy controls how a missing per-worker credential override is
// handled.
type CredentialPolicy string

// Credential policies.
const (
	// PolicyFallback falls back to the profile's shared pair with a warning.
	PolicyFallback CredentialPolicy = "fallback"
	// PolicyStrict fails the case instead of falling back.
	PolicyStrict CredentialPolicy = "strict"
)

// Defaults.
const (
	DefaultParallel         = 2
	DefaultMaxRetries       = 2
	DefaultRetryDelay       = 5 * time.Second
	DefaultWorkerStartDelay = 2 * time.Second
	DefaultClickRetries     = 3
	DefaultClickCooldown    = 500 * time.Millisecond
	DefaultScreenshotDir    = "screenshots"
	DefaultResultsDir       = "results"
	DefaultConfirmMarker    = "/order/confirm"
	DefaultDialogText       = "エラーが発生しました"
)

// Config is the immutable runner configuration. Credentials are not held
// here; they are resolved per case from the environment at execution time.
type Config struct {
	// Parallel is the number of concurrent workers.
	Parallel int
	// MaxRetries is the number of whole-test retries after the first attempt.
	MaxRetries int
	// RetryDelay is the base delay before a whole-test retry; the effective
	// delay grows linearly with the attempt number.
	RetryDelay time.Duration
	// WorkerStartDelay staggers worker startup.
	WorkerStartDelay time.Duration

	// ClickRetries is the recovery budget of a single click.
	ClickRetries int
	// ClickCooldown is the fixed pause between click recovery attempts.
	ClickCooldown time.Duration

	ScreenshotDir string
	ResultsDir    string

	// ConfirmURLMarker identifies the order confirmation page; a screenshot
	// taken while the URL contains it triggers price extraction.
	ConfirmURLMarker string
	// TransientDialogText is the displayed text of the dismissable error
	// dialog handled during click recovery.
	TransientDialogText string

	CredentialPolicy CredentialPolicy

	// HistoryDB is the path of the run history database. Empty disables
	// history recording.
	HistoryDB string

	LogLevel string
	LogFile  string
}

// FromEnv builds the configuration from the process environment, merging a
// .env file when one exists.
func FromEnv() (*Config, error) {
	// Missing .env is fine; real environment variables win over file values.
	_ = godotenv.Load()

	cfg := &Config{
		Parallel:            envInt("PARALLEL_COUNT", DefaultParallel),
		MaxRetries:          envInt("MAX_RETRIES", DefaultMaxRetries),
		RetryDelay:          envMillis("RETRY_DELAY_MS", DefaultRetryDelay),
		WorkerStartDelay:    envMillis("WORKER_START_DELAY_MS", DefaultWorkerStartDelay),
		ClickRetries:        envInt("CLICK_RETRIES", DefaultClickRetries),
		ClickCooldown:       envMillis("CLICK_COOLDOWN_MS", DefaultClickCooldown),
		ScreenshotDir:       envStr("SCREENSHOT_DIR", DefaultScreenshotDir),
		ResultsDir:          envStr("RESULTS_DIR", DefaultResultsDir),
		ConfirmURLMarker:    envStr("CONFIRM_URL_MARKER", DefaultConfirmMarker),
		TransientDialogText: envStr("TRANSIENT_DIALOG_TEXT", DefaultDialogText),
		CredentialPolicy:    CredentialPolicy(envStr("CREDENTIAL_POLICY", string(PolicyFallback))),
		HistoryDB:           os.Getenv("HISTORY_DB"),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		LogFile:             os.Getenv("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the runner cannot work with.
func (c *Config) Validate() error {
	if c.Parallel < 1 {
		return fmt.Errorf("parallel count must be at least 1, got %d", c.Parallel)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.ClickRetries < 1 {
		return fmt.Errorf("click retries must be at least 1, got %d", c.ClickRetries)
	}
	switch c.CredentialPolicy {
	case PolicyFallback, PolicyStrict:
	default:
		return fmt.Errorf("unknown credential policy %q", c.CredentialPolicy)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}
