package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shineum/courier/internal/parser"
	"github.com/shineum/courier/internal/provider/stdout"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.eml...",
		Short: "Print a summary of archived messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				msg, err := parser.Parse(raw)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", path, err)
				}
				if err := stdout.Print(cmd.OutOrStdout(), msg); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
