package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"mosaic/internal/llm"
)

const wikipediaSummaryURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

type Wikipedia struct {
	client *http.Client
}

func NewWikipedia() *Wikipedia {
	return &Wikipedia{client: &http.Client{Timeout: 15 * time.Second}}
}

func (w *Wikipedia) Name() string { return "wikipedia" }

func (w *Wikipedia) Description() string {
	return "Look up the summary of a Wikipedia article"
}

func (w *Wikipedia) Schema() llm.ParameterSchema {
	return llm.ParameterSchema{
		Type: "object",
		Properties: map[string]llm.Property{
			"title": {
				Type:        "string",
				Description: "Article title to look up",
			},
		},
		Required: []string{"title"},
	}
}

func (w *Wikipedia) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("parsing wikipedia input: %w", err)
	}
	if args.Title == "" {
		return "", fmt.Errorf("title is required")
	}

	slog.Debug("wikipedia: lookup", "title", args.Title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		wikipediaSummaryURL+url.PathEscape(args.Title), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "mosaic/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Sprintf("No article found for %q.", args.Title), nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
	}

	var summary struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 100*1024))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		return "", fmt.Errorf("decoding summary: %w", err)
	}
	if summary.Extract == "" {
		return fmt.Sprintf("No summary available for %q.", args.Title), nil
	}

	return fmt.Sprintf("%s\n\n%s", summary.Title, truncate(summary.Extract)), nil
}
