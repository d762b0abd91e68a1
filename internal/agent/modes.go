package agent

import "mosaic/internal/catalog"

const defaultBackendModel = "qwen2.5:7b"

// Modes returns the statically declared agent modes. The set is fixed
// at process start; the catalog crosses it with discovered models.
func Modes() []catalog.Mode {
	return []catalog.Mode{
		{
			ID:           "chain",
			DisplayName:  "Chain Agent",
			Description:  "Single-pass conversational agent for linear tasks",
			Icon:         "🔗",
			Features:     []string{"fast responses", "simple conversation"},
			UseCases:     []string{"daily chat", "quick questions"},
			DefaultModel: defaultBackendModel,
		},
		{
			ID:           "agent",
			DisplayName:  "Tool Agent",
			Description:  "Tool-calling agent for multi-step tasks",
			Icon:         "🛠️",
			Features:     []string{"tool calling", "reasoning", "multi-step tasks"},
			UseCases:     []string{"data analysis", "file operations", "calculations"},
			DefaultModel: defaultBackendModel,
		},
		{
			ID:           "graph",
			DisplayName:  "Graph Agent",
			Description:  "State-graph agent for complex workflows",
			Icon:         "🕸️",
			Features:     []string{"state management", "workflows", "conditional branching"},
			UseCases:     []string{"multi-step analysis", "decision flows"},
			DefaultModel: defaultBackendModel,
		},
	}
}

// Recommendation pairs a task category with a suggested combination.
type Recommendation struct {
	Mode   string `json:"recommended_mode"`
	Model  string `json:"recommended_model"`
	Reason string `json:"reason"`
}

// Recommendations maps task categories to suggested mode/model pairs.
func Recommendations() map[string]Recommendation {
	return map[string]Recommendation{
		"daily_chat": {
			Mode:   "chain",
			Model:  "qwen2.5:7b",
			Reason: "fast responses, well suited to everyday conversation",
		},
		"complex_analysis": {
			Mode:   "agent",
			Model:  "qwen2.5:14b",
			Reason: "stronger reasoning with full tool-calling support",
		},
		"workflow_automation": {
			Mode:   "graph",
			Model:  "llama3.1:8b",
			Reason: "solid logical reasoning for multi-stage workflows",
		},
		"creative_writing": {
			Mode:   "chain",
			Model:  "mistral:7b",
			Reason: "strong creative output and multilingual support",
		},
	}
}
