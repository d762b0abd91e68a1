package main

import (
	"os"

	"github.com/spf13/cobra"

	"mosaic/cmd/mosaic/serve"
	"mosaic/cmd/mosaic/tools"
	"mosaic/internal/logger"
)

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:   "mosaic",
		Short: "Mosaic serves agent/model combinations behind an OpenAI-compatible API",
	}

	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(tools.Cmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
