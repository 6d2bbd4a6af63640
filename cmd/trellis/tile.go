package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/ui"
)

var tileCmd = &cobra.Command{
	Use:     "tile",
	Short:   "Add, remove and edit dashboard tiles",
	GroupID: "tiles",
}

// tileDataFromArgs builds tile data from "clock", "weather <location>" or
// "note [text...]".
func tileDataFromArgs(args []string) (model.TileData, error) {
	switch strings.ToLower(args[0]) {
	case "clock":
		if len(args) != 1 {
			return nil, fmt.Errorf("clock takes no arguments")
		}
		return model.Clock{}, nil
	case "weather":
		if len(args) != 2 || args[1] == "" {
			return nil, fmt.Errorf("usage: weather <location-id>")
		}
		return model.Weather{LocationID: args[1]}, nil
	case "note":
		return model.Note{Text: strings.Join(args[1:], " ")}, nil
	}
	return nil, fmt.Errorf("unknown tile kind %q (must be clock, weather or note)", args[0])
}

var tileAddCmd = &cobra.Command{
	Use:   "add <clock|weather|note> [args...]",
	Short: "Append a tile",
	Example: `  trellis tile add clock
  trellis tile add weather 2643743
  trellis tile add note buy milk`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := tileDataFromArgs(args)
		if err != nil {
			return err
		}
		return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
			id, err := a.AddTile(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s tile %s\n", ui.RenderKind(data.Kind()), ui.RenderAccent(id.String()))
			return nil
		})
	},
}

var tileDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a tile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
			cfg, _ := a.Current()
			t, err := resolveTile(cfg, args[0])
			if err != nil {
				return err
			}
			ok, err := a.DeleteTile(t.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("tile %s was removed concurrently", shortID(t.ID))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted tile %s\n", ui.RenderAccent(shortID(t.ID)))
			return nil
		})
	},
}

// patchTileCmd replaces the data of a tile of the given kind.
func patchTileCmd(kind model.Kind, use, short string, build func(args []string) model.TileData) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd.Context(), func(_ context.Context, a *agent.Agent) error {
				cfg, _ := a.Current()
				t, err := resolveTile(cfg, args[0])
				if err != nil {
					return err
				}
				if t.Data.Kind() != kind {
					return fmt.Errorf("tile %s is a %s tile, not %s", shortID(t.ID), t.Data.Kind(), kind)
				}
				ok, err := a.PatchTile(t.ID, build(args[1:]))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("tile %s was removed concurrently", shortID(t.ID))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated tile %s\n", ui.RenderAccent(shortID(t.ID)))
				return nil
			})
		},
	}
}

var tileNoteCmd = patchTileCmd(model.KindNote, "note <id> <text...>", "Replace the text of a note tile",
	func(args []string) model.TileData { return model.Note{Text: strings.Join(args, " ")} })

var tileWeatherCmd = patchTileCmd(model.KindWeather, "weather <id> <location-id>", "Change the location of a weather tile",
	func(args []string) model.TileData { return model.Weather{LocationID: args[0]} })

func init() {
	tileCmd.AddCommand(tileAddCmd)
	tileCmd.AddCommand(tileDeleteCmd)
	tileCmd.AddCommand(tileNoteCmd)
	tileCmd.AddCommand(tileWeatherCmd)
}
