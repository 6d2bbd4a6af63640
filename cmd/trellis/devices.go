package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/presence"
	"github.com/alfredjeanlab/trellis/internal/ui"
)

type devicesLister interface {
	Devices(ctx context.Context) ([]presence.Entry, error)
}

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Short:   "List the sessions recently syncing your settings",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newSettingsClient()
		if err != nil {
			return err
		}
		defer c.Close()
		dl, ok := c.(devicesLister)
		if !ok {
			return fmt.Errorf("transport %q cannot list devices; use --transport http", transport)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		devices, err := dl.Devices(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), devices)
		}
		return printDevices(cmd.OutOrStdout(), devices)
	},
}

func printDevices(w io.Writer, devices []presence.Entry) error {
	if len(devices) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no active devices"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tCLIENT\tLAST\tSEEN\tLOADS\tSAVES")
	for _, d := range devices {
		seen := time.Duration(d.IdleSecs * float64(time.Second)).Round(time.Second).String() + " ago"
		if d.Idle {
			seen = ui.RenderMuted(seen + " (idle)")
		}
		client := d.Client
		if client == "" {
			client = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			ui.RenderAccent(d.SessionID), client, d.LastOp, seen, d.Loads, d.Saves)
	}
	return tw.Flush()
}
