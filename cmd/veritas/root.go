package main

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "veritas",
		Short:         "Veritas misinformation checker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyGinMode(ctx.ensureConfig().Server.GinMode)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))

	return rootCmd
}

// applyGinMode sets gin's process-wide mode once, before any engine is built.
// Debug mode prints route tables to stdout, so it must be chosen explicitly.
func applyGinMode(mode string) error {
	switch mode = strings.ToLower(strings.TrimSpace(mode)); mode {
	case "":
		gin.SetMode(gin.ReleaseMode)
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(mode)
	default:
		return fmt.Errorf("unknown gin mode %q (want debug, release or test)", mode)
	}
	return nil
}
