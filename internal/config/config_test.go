package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joelkehle/report-composer/internal/section"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ClaimFetchTimeout() != 15*time.Second {
		t.Fatalf("claim fetch timeout = %v", c.ClaimFetchTimeout())
	}
	if c.RunLogPath != "runs.db" {
		t.Fatalf("run log path = %q", c.RunLogPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.yaml")
	data := `
heading_patterns:
  mappings:
    - "claim mappings"
    - "mappings based"
claim_fetch:
  timeout_seconds: 5
run_log_path: /var/lib/composer/runs.db
render:
  chrome_path: /opt/chromium/chrome
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ClaimFetchTimeout() != 5*time.Second {
		t.Fatalf("timeout = %v", c.ClaimFetchTimeout())
	}
	if c.Render.ChromePath != "/opt/chromium/chrome" {
		t.Fatalf("chrome path = %q", c.Render.ChromePath)
	}

	ps, err := c.Patterns()
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	if got := ps.Primary(section.Mappings); got != "claim mappings" {
		t.Fatalf("mappings primary = %q", got)
	}
	// Untouched sections keep defaults.
	if got := ps.Primary(section.Criteria); got != "criteria for the publication search" {
		t.Fatalf("criteria primary = %q", got)
	}
}

func TestPatternsRejectsUnknownSection(t *testing.T) {
	c := Default()
	c.HeadingPatterns = map[string][]string{"mapings": {"typo"}}
	if _, err := c.Patterns(); err == nil {
		t.Fatal("expected error for unknown section name")
	}
}
