// Package config loads the composer's YAML configuration. Everything has a
// working default; a missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joelkehle/report-composer/internal/section"
)

// Config is the on-disk configuration shape.
type Config struct {
	// HeadingPatterns overrides the recognized heading substrings per
	// section, keyed by section name ("objectives", "mappings", ...).
	// Sections not listed keep their defaults.
	HeadingPatterns map[string][]string `yaml:"heading_patterns"`

	// ClaimFetch controls the Google Patents claim-text fetch.
	ClaimFetch struct {
		TimeoutSeconds int  `yaml:"timeout_seconds"`
		Disabled       bool `yaml:"disabled"`
	} `yaml:"claim_fetch"`

	// RunLogPath is the SQLite audit database. Empty disables the audit log.
	RunLogPath string `yaml:"run_log_path"`

	Render struct {
		ChromePath     string `yaml:"chrome_path"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"render"`
}

func Default() Config {
	var c Config
	c.ClaimFetch.TimeoutSeconds = 15
	c.Render.TimeoutSeconds = 30
	c.RunLogPath = "runs.db"
	return c
}

// Load reads the config file, layering it over defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if c.ClaimFetch.TimeoutSeconds <= 0 {
		c.ClaimFetch.TimeoutSeconds = 15
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = 30
	}
	return c, nil
}

func (c Config) ClaimFetchTimeout() time.Duration {
	return time.Duration(c.ClaimFetch.TimeoutSeconds) * time.Second
}

func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

var kindsByName = map[string]section.Kind{
	"title":                      section.Title,
	"objectives":                 section.Objectives,
	"other_related_references":   section.OtherRelatedReferences,
	"patent_at_issue":            section.PatentAtIssue,
	"criteria":                   section.Criteria,
	"mappings":                   section.Mappings,
	"appendix_search_strategies": section.AppendixSearchStrategies,
	"about":                      section.About,
}

// Patterns builds the effective pattern set: defaults with any configured
// overrides applied. Unknown section names are reported, not ignored, so a
// typo in the config does not silently fall back.
func (c Config) Patterns() (section.PatternSet, error) {
	ps := section.DefaultPatterns()
	for name, patterns := range c.HeadingPatterns {
		k, ok := kindsByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown section %q in heading_patterns", name)
		}
		if len(patterns) == 0 {
			return nil, fmt.Errorf("empty pattern list for section %q", name)
		}
		ps[k] = patterns
	}
	return ps, nil
}
