package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/postsync/pkg/schedule"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrScheduleSchema is returned when a schedules file does not match scheduleSchema.
var ErrScheduleSchema = errors.New("schedule file does not match schema")

var scheduleSchema = map[string]any{
	"type":     "object",
	"required": []any{"schedules"},
	"properties": map[string]any{
		"schedules": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":                 "object",
				"required":             []any{"cron", "niche", "user_id"},
				"additionalProperties": false,
				"properties": map[string]any{
					"cron":    map[string]any{"type": "string", "minLength": 1},
					"niche":   map[string]any{"type": "string", "minLength": 1},
					"user_id": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	},
}

// ScheduleFile is the layout of a schedules.yaml file:
//
//	schedules:
//	  - cron: "0 9 * * 1-5"
//	    niche: fitness
//	    user_id: u1
type ScheduleFile struct {
	Schedules []schedule.Entry `yaml:"schedules"`
}

// LoadSchedules reads a schedules file, checks its shape against
// scheduleSchema and validates every cron expression.
func LoadSchedules(filepath string) ([]schedule.Entry, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file %s: %w", filepath, err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML schedules: %w", err)
	}

	if err := validateScheduleSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}

	var file ScheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML schedules: %w", err)
	}

	for i, entry := range file.Schedules {
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("schedules[%d]: %w", i, err)
		}
	}

	return file.Schedules, nil
}

func validateScheduleSchema(document any) error {
	if document == nil {
		document = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(scheduleSchema), gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScheduleSchema, err)
	}

	if !result.Valid() {
		var problems []string
		for _, resultErr := range result.Errors() {
			problems = append(problems, resultErr.String())
		}

		return fmt.Errorf("%w: %s", ErrScheduleSchema, strings.Join(problems, "; "))
	}

	return nil
}
