package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write sources file: %v", err)
	}
	return path
}

func TestLoadSources_OverridesSectionsAndKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `
football:
  - id: 140
    season: 2025
    sport: LaLiga
gaa:
  rules:
    - contains: camogie
      label: Camogie
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("load sources: %v", err)
	}
	if len(sources.Football) != 1 || sources.Football[0].ID != 140 || sources.Football[0].Sport != "LaLiga" {
		t.Fatalf("unexpected football leagues: %+v", sources.Football)
	}
	if len(sources.Rugby) != len(DefaultSources().Rugby) {
		t.Fatalf("expected default rugby competitions, got %+v", sources.Rugby)
	}
	if len(sources.GAA.Rules) != 1 || sources.GAA.Rules[0].Label != "Camogie" {
		t.Fatalf("unexpected GAA rules: %+v", sources.GAA.Rules)
	}
	if sources.GAA.DefaultSport != "GAA" {
		t.Fatalf("expected default GAA label, got %q", sources.GAA.DefaultSport)
	}
}

func TestLoadSources_RejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	path := writeSourcesFile(t, `
rugby:
  - id: 0
    season: 2026
    sport: Rugby
`)

	if _, err := LoadSources(path); err == nil {
		t.Fatalf("expected validation error for rugby id 0")
	}
}

func TestLoadSources_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadSources(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_ReadsSourcesFile(t *testing.T) {
	path := writeSourcesFile(t, `
football:
  - id: 39
    season: 2026
    sport: EPL
`)
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SOURCES_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.Sources.Football) != 1 || cfg.Sources.Football[0].Season != 2026 {
		t.Fatalf("unexpected football leagues: %+v", cfg.Sources.Football)
	}
}
