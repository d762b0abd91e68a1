package tools

import (
	"context"

	"mosaic/internal/llm"
)

// Category orders tool sources; registration follows this order so
// any future conflict policy can prefer earlier categories.
type Category int

const (
	CategoryBuiltin Category = iota
	CategoryCommunity
	CategoryCustom
	CategoryBridged
)

func (c Category) String() string {
	switch c {
	case CategoryBuiltin:
		return "builtin"
	case CategoryCommunity:
		return "community"
	case CategoryCustom:
		return "custom"
	case CategoryBridged:
		return "protocol-bridged"
	}
	return "unknown"
}

type Tool interface {
	Name() string
	Description() string
	Schema() llm.ParameterSchema
	Execute(ctx context.Context, input string) (string, error)
}

// Source is one tool collaborator. Discover may do I/O (the MCP
// bridge connects to servers); plain sources return fixed lists.
type Source interface {
	Category() Category
	Discover(ctx context.Context) ([]Tool, error)
}

// FixedSource wraps a static tool list as a Source.
type FixedSource struct {
	Cat   Category
	Tools []Tool
}

func (s FixedSource) Category() Category { return s.Cat }

func (s FixedSource) Discover(context.Context) ([]Tool, error) {
	return s.Tools, nil
}
