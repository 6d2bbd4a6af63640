package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/model"
)

var secretsCmd = &cobra.Command{
	Use:     "secrets",
	Short:   "Manage widget credentials",
	GroupID: "settings",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the stored secrets",
	Long: `Replace the stored secrets. Secrets not given on the command line are
cleared, so pass every value you want to keep.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var s model.Secrets
		if cmd.Flags().Changed("owm-api-key") {
			key, _ := cmd.Flags().GetString("owm-api-key")
			if key != "" {
				s.OWMAPIKey = model.String(key)
			}
		}
		return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
			if err := a.PatchSecrets(s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "secrets updated")
			return nil
		})
	},
}

func init() {
	secretsSetCmd.Flags().String("owm-api-key", "", "OpenWeatherMap API key (empty clears it)")
	secretsCmd.AddCommand(secretsSetCmd)
}
