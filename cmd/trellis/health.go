package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/ui"
)

type healthChecker interface {
	Health(ctx context.Context) (string, error)
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the server is reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newSettingsClient()
		if err != nil {
			return err
		}
		defer c.Close()
		hc, ok := c.(healthChecker)
		if !ok {
			return fmt.Errorf("transport %q has no health check", transport)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		start := time.Now()
		status, err := hc.Health(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.RenderAccent(status), ui.RenderMuted(time.Since(start).Round(time.Millisecond).String()))
		return nil
	},
}
