package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

// stubExiter keeps cli.Exit errors from terminating the test process.
func stubExiter(t *testing.T) {
	t.Helper()
	prev := cli.OsExiter
	cli.OsExiter = func(int) {}
	t.Cleanup(func() { cli.OsExiter = prev })
}

func TestRunWithFakeDriver(t *testing.T) {
	caseDir := t.TempDir()
	caseFile := filepath.Join(caseDir, "smoke.json")
	content := `{
		"id": "smoke_001",
		"url": "https://shop.example.com/item/1",
		"actions": [{"type": "screenshot"}]
	}`
	if err := os.WriteFile(caseFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DEV_LOGIN_USER", "user@example.com")
	t.Setenv("DEV_LOGIN_PASS", "pw")
	t.Setenv("SCREENSHOT_DIR", filepath.Join(t.TempDir(), "shots"))
	t.Setenv("RESULTS_DIR", filepath.Join(t.TempDir(), "results"))
	t.Setenv("WORKER_START_DELAY_MS", "0")
	t.Setenv("RETRY_DELAY_MS", "1")
	t.Setenv("LOG_LEVEL", "panic")

	app := App()
	if err := app.Run([]string{"checkout-runner", "--dir", caseDir, "--driver", "fake"}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	entries, err := os.ReadDir(os.Getenv("RESULTS_DIR"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("expected results files, got %v (%v)", entries, err)
	}
}

func TestRunRejectsConflictingInputs(t *testing.T) {
	stubExiter(t)
	app := App()
	err := app.Run([]string{"checkout-runner", "--dir", "a", "--file", "b"})
	if err == nil {
		t.Fatal("expected error for --dir together with --file")
	}
}

func TestRunRequiresInput(t *testing.T) {
	stubExiter(t)
	app := App()
	if err := app.Run([]string{"checkout-runner"}); err == nil {
		t.Fatal("expected error when neither --dir nor --file is given")
	}
}

func TestRegisterDriver(t *testing.T) {
	RegisterDriver("custom", driverFactories["fake"])
	if _, ok := driverFactories["custom"]; !ok {
		t.Fatal("registered driver not selectable")
	}
}
