package tools

import "mosaic/internal/llm"

// The two exporters below are independent pure transforms over the
// same registry snapshot. Names, descriptions and parameter semantics
// must stay identical between them; only the presence of a callable
// differs (the frontend never invokes tools directly).

// RuntimeExport produces the agent-runtime tool binding. The runner
// passes these specs to the provider, which maps them onto its native
// function-calling format, and dispatches invocations back through
// Registry.Get.
func RuntimeExport(r *Registry) []llm.ToolSpec {
	all := r.All()
	out := make([]llm.ToolSpec, 0, len(all))
	for _, t := range all {
		out = append(out, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return out
}

// FunctionSchema is the generic function-calling entry consumed by
// the chat frontend for display and capability negotiation.
type FunctionSchema struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Parameters  FunctionParamSchema `json:"parameters"`
}

type FunctionParamSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]llm.Property `json:"properties"`
	Required   []string                `json:"required"`
}

// FrontendExport produces the function-calling JSON view of the
// registry, with no callable attached.
func FrontendExport(r *Registry) []FunctionSchema {
	all := r.All()
	out := make([]FunctionSchema, 0, len(all))
	for _, t := range all {
		schema := t.Schema()
		required := schema.Required
		if required == nil {
			required = []string{}
		}
		props := schema.Properties
		if props == nil {
			props = map[string]llm.Property{}
		}
		out = append(out, FunctionSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters: FunctionParamSchema{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
		})
	}
	return out
}
