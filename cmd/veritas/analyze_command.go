package main

import (
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"Veritas/internal/app"
	"Veritas/internal/domain"
	"Veritas/internal/usecase"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "analyze [--mode auto|text|link] <input...>",
		Short: "Classify a claim or a page URL and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg := ctx.ensureConfig()
			application := app.New(cfg, ctx.logger(cmd.ErrOrStderr()))

			result, err := application.Analyzer().Analyze(signalCtx, domain.AnalysisRequest{
				Mode:  mode,
				Input: strings.Join(args, " "),
			})
			if errors.Is(err, usecase.ErrEmptyInput) {
				return fmt.Errorf("analyze: input is required")
			}
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(domain.ModeAuto), "Input mode: auto, text or link")
	return cmd
}
