package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/events"
	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/ui"
)

func defaultNATSURL() string {
	if s := os.Getenv("TRELLIS_NATS_URL"); s != "" {
		return s
	}
	if r, ok := activeRemote(); ok {
		return r.NATSURL
	}
	return ""
}

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Follow settings changes",
	GroupID: "settings",
	Long: `Follow settings changes. With a NATS URL the command prints every
settings event published by servers and clients. Without one it reloads the
document every --interval and prints it whenever it changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		interval, _ := cmd.Flags().GetDuration("interval")
		if natsURL != "" {
			return watchNATS(cmd.Context(), cmd.OutOrStdout(), natsURL)
		}
		return watchPoll(cmd.Context(), cmd.OutOrStdout(), interval)
	},
}

// watchNATS prints settings events until ctx is done.
func watchNATS(ctx context.Context, w io.Writer, natsURL string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			printEvent(w, msg)
		}
	}
}

func printEvent(w io.Writer, msg events.Message) {
	ts := time.Now().Format("15:04:05")
	switch msg.Topic {
	case events.TopicSettingsSaved:
		var e events.SettingsSaved
		if err := json.Unmarshal(msg.Data, &e); err == nil {
			fmt.Fprintf(w, "%s %s user=%s tiles=%d\n", ui.RenderMuted(ts), ui.RenderAccent("saved"), e.UserID, e.Tiles)
			return
		}
	case events.TopicSettingsSaveFailed:
		var e events.SettingsSaveFailed
		if err := json.Unmarshal(msg.Data, &e); err == nil {
			fmt.Fprintf(w, "%s %s tiles=%d err=%s\n", ui.RenderMuted(ts), ui.RenderError("save failed"), e.Tiles, e.Error)
			return
		}
	}
	fmt.Fprintf(w, "%s %s %s\n", ui.RenderMuted(ts), msg.Topic, msg.Data)
}

// watchPoll reloads through an agent and prints every distinct document its
// subscription delivers.
func watchPoll(ctx context.Context, w io.Writer, interval time.Duration) error {
	return withAgent(ctx, func(ctx context.Context, a *agent.Agent) error {
		var last string
		changes := make(chan model.Config, 16)
		id, err := a.Subscribe(func(cfg model.Config) {
			select {
			case changes <- cfg:
			case <-ctx.Done():
			}
		})
		if err != nil {
			return err
		}
		defer a.Unsubscribe(id)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-changes:
				data, err := model.Serialize(cfg)
				if err != nil {
					return err
				}
				if string(data) == last {
					continue
				}
				last = string(data)
				fmt.Fprintln(w, ui.RenderMuted(time.Now().Format("15:04:05")))
				if err := printConfig(w, cfg); err != nil {
					return err
				}
			case <-ticker.C:
				if err := a.Load(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("reload failed", "err", err)
				}
			}
		}
	})
}

func init() {
	watchCmd.Flags().String("nats", defaultNATSURL(), "NATS URL for event streaming")
	watchCmd.Flags().Duration("interval", 30*time.Second, "reload interval without NATS")
}
