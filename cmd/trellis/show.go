package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/model"
)

var showCmd = &cobra.Command{
	Use:     "show",
	Short:   "Show the settings document",
	GroupID: "settings",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
			cfg, _ := a.Current()
			return printConfig(cmd.OutOrStdout(), cfg)
		})
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	Short:   "Replace the settings document with the contents of a file",
	GroupID: "settings",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}
		cfg, err := model.Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
			if err := a.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tiles\n", len(cfg.Tiles))
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:     "export [file]",
	Short:   "Write the settings document as JSON",
	GroupID: "settings",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
			cfg, _ := a.Current()
			data, err := model.SerializeIndent(cfg)
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if len(args) == 0 || args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(args[0], data, 0o600)
		})
	},
}
