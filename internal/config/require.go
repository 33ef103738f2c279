package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type remoteRequirements struct {
	AirtableAPIKey string `env:"AIRTABLE_API_KEY" validate:"required"`
	AirtableBaseID string `env:"AIRTABLE_BASE_ID" validate:"required"`
	AirtableTable  string `env:"AIRTABLE_TABLE_NAME" validate:"required"`
}

type rapidAPIRequirements struct {
	RapidAPIKey string `env:"RAPIDAPI_KEY" validate:"required"`
}

type gaaFileRequirements struct {
	GAAJSONFile string `env:"GAA_JSON_FILE" validate:"required"`
}

var requirementValidator = func() *validator.Validate {
	v := newValidator()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.TrimSpace(field.Tag.Get("env"))
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}()

// missingSettings returns the env names of empty required fields.
func missingSettings(requirements any) []string {
	err := requirementValidator.Struct(requirements)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		out = append(out, fieldErr.Field())
	}
	return out
}
