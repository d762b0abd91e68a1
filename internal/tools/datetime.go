package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mosaic/internal/llm"
)

type Datetime struct{}

func (d *Datetime) Name() string { return "datetime" }

func (d *Datetime) Description() string {
	return "Get the current date and time, optionally in a named timezone"
}

func (d *Datetime) Schema() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"timezone": {
				Type:        "string",
				Description: "IANA timezone name, e.g. Asia/Shanghai; defaults to UTC",
			},
			"format": {
				Type:        "string",
				Description: "Output style",
				Enum:        []string{"datetime", "date", "time", "unix"},
			},
		},
		Required: []string{},
	}
}

func (d *Datetime) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Timezone string `json:"timezone"`
		Format   string `json:"format"`
	}
	if input != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("parsing datetime input: %w", err)
		}
	}

	loc := time.UTC
	if args.Timezone != "" {
		l, err := time.LoadLocation(args.Timezone)
		if err != nil {
			return "", fmt.Errorf("unknown timezone %q", args.Timezone)
		}
		loc = l
	}

	now := time.Now().In(loc)
	switch args.Format {
	case "", "datetime":
		return now.Format("2006-01-02 15:04:05 MST"), nil
	case "date":
		return now.Format("2006-01-02"), nil
	case "time":
		return now.Format("15:04:05"), nil
	case "unix":
		return fmt.Sprintf("%d", now.Unix()), nil
	default:
		return "", fmt.Errorf("unknown format: %s", args.Format)
	}
}
