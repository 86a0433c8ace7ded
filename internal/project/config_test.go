package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cinder/internal/project"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), project.DefaultConfigName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "[optimize]\njobs = 4\ntimings = true\n")

	cfg, err := project.LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Optimize.Jobs != 4 {
		t.Errorf("jobs = %d, want 4", cfg.Optimize.Jobs)
	}
	if !cfg.Optimize.Timings {
		t.Error("timings must be true")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := project.LoadConfig(filepath.Join(t.TempDir(), project.DefaultConfigName))
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if cfg != (project.Config{}) {
		t.Errorf("missing file must yield the zero config, got %+v", cfg)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, "[optimize]\nworkers = 4\n")

	_, err := project.LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Errorf("unknown key must be rejected, got %v", err)
	}
}

func TestLoadConfigNegativeJobs(t *testing.T) {
	path := writeConfig(t, "[optimize]\njobs = -1\n")

	if _, err := project.LoadConfig(path); err == nil {
		t.Error("negative jobs must be rejected")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, "[optimize\n")

	if _, err := project.LoadConfig(path); err == nil {
		t.Error("malformed TOML must be rejected")
	}
}
