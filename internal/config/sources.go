package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/mitchellh/go-homedir"
)

type FootballLeague struct {
	ID     int    `yaml:"id" validate:"gt=0"`
	Season int    `yaml:"season" validate:"gt=0"`
	Sport  string `yaml:"sport" validate:"required"`
}

type RugbyCompetition struct {
	ID     int    `yaml:"id" validate:"gt=0"`
	Season int    `yaml:"season" validate:"gt=0"`
	Name   string `yaml:"name"`
	Sport  string `yaml:"sport" validate:"required"`
}

// ClassificationRule maps a group label containing Contains to Label.
type ClassificationRule struct {
	Contains string `yaml:"contains" validate:"required"`
	Label    string `yaml:"label" validate:"required"`
}

type GAASources struct {
	DefaultSport string               `yaml:"default_sport" validate:"required"`
	Rules        []ClassificationRule `yaml:"rules" validate:"dive"`
}

// Sources lists what each adapter fetches.
type Sources struct {
	Football []FootballLeague   `yaml:"football" validate:"dive"`
	Rugby    []RugbyCompetition `yaml:"rugby" validate:"dive"`
	GAA      GAASources         `yaml:"gaa"`
}

func DefaultSources() Sources {
	return Sources{
		Football: []FootballLeague{
			{ID: 357, Season: 2025, Sport: "LoI"},
			{ID: 39, Season: 2025, Sport: "EPL"},
			{ID: 2, Season: 2025, Sport: "UCL"},
			{ID: 3, Season: 2025, Sport: "EL"},
		},
		Rugby: []RugbyCompetition{
			{ID: 30, Season: 2025, Name: "International", Sport: "Rugby"},
			{ID: 1464, Season: 2026, Name: "Champions Cup", Sport: "Rugby"},
			{ID: 1236, Season: 2026, Name: "URC", Sport: "Rugby"},
		},
		GAA: GAASources{
			DefaultSport: "GAA",
			Rules: []ClassificationRule{
				{Contains: "football", Label: "Gaelic"},
				{Contains: "hurling", Label: "Hurling"},
			},
		},
	}
}

// LoadSources reads a YAML source list. Sections left out of the file keep
// their defaults.
func LoadSources(path string) (Sources, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Sources{}, fmt.Errorf("expand SOURCES_FILE %q: %w", path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return Sources{}, fmt.Errorf("read SOURCES_FILE: %w", err)
	}

	var parsed Sources
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return Sources{}, fmt.Errorf("parse SOURCES_FILE: %w", err)
	}

	defaults := DefaultSources()
	if len(parsed.Football) == 0 {
		parsed.Football = defaults.Football
	}
	if len(parsed.Rugby) == 0 {
		parsed.Rugby = defaults.Rugby
	}
	if parsed.GAA.DefaultSport == "" {
		parsed.GAA.DefaultSport = defaults.GAA.DefaultSport
	}
	if len(parsed.GAA.Rules) == 0 {
		parsed.GAA.Rules = defaults.GAA.Rules
	}

	if err := newValidator().Struct(parsed); err != nil {
		return Sources{}, fmt.Errorf("validate SOURCES_FILE: %w", err)
	}
	return parsed, nil
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
