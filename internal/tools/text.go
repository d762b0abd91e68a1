package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"mosaic/internal/llm"
)

// Text is the sample custom tool: small string transforms.
type Text struct{}

func (t *Text) Name() string { return "text" }

func (t *Text) Description() string {
	return "Transform or measure text (case conversion, reversal, counting)"
}

func (t *Text) Schema() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"action": {
				Type:        "string",
				Description: "Transform to apply",
				Enum:        []string{"upper", "lower", "reverse", "count"},
			},
			"text": {
				Type:        "string",
				Description: "Input text",
			},
		},
		Required: []string{"action", "text"},
	}
}

func (t *Text) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Action string `json:"action"`
		Text   string `json:"text"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing text input: %w", err)
	}

	switch args.Action {
	case "upper":
		return strings.ToUpper(args.Text), nil
	case "lower":
		return strings.ToLower(args.Text), nil
	case "reverse":
		runes := []rune(args.Text)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	case "count":
		return fmt.Sprintf("characters: %d, words: %d",
			utf8.RuneCountInString(args.Text), len(strings.Fields(args.Text))), nil
	default:
		return "", fmt.Errorf("unknown action: %s", args.Action)
	}
}
