package tools

import (
	"fmt"

	"github.com/spf13/cobra"

	"mosaic/internal/config"
	itools "mosaic/internal/tools"
)

// Cmd lists the tools the gateway would register, without starting it.
var Cmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		registry := itools.NewRegistry()
		if err := registry.Load(cmd.Context(), itools.BuiltinSources(cfg)...); err != nil {
			return fmt.Errorf("loading tools: %w", err)
		}

		for _, t := range registry.All() {
			fmt.Printf("%-12s %s\n", t.Name(), t.Description())
		}
		return nil
	},
}
