package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/ui"
)

const shortIDLen = 8

func shortID(id uuid.UUID) string {
	return id.String()[:shortIDLen]
}

// resolveTile finds the tile whose id is ref or starts with ref.
func resolveTile(cfg model.Config, ref string) (model.Tile, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if t, ok := cfg.FindTile(id); ok {
			return t, nil
		}
		return model.Tile{}, fmt.Errorf("no tile with id %s", ref)
	}
	ref = strings.ToLower(ref)
	var matches []model.Tile
	for _, t := range cfg.Tiles {
		if strings.HasPrefix(t.ID.String(), ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Tile{}, fmt.Errorf("no tile with id %s", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Tile{}, fmt.Errorf("tile id %s is ambiguous (%d matches)", ref, len(matches))
	}
}

func tileDetail(d model.TileData) string {
	switch v := d.(type) {
	case model.Weather:
		return "location " + v.LocationID
	case model.Note:
		text := strings.ReplaceAll(v.Text, "\n", " ")
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		return fmt.Sprintf("%q", text)
	}
	return ""
}

func tilePosition(t model.Tile) string {
	if t.Row == nil && t.Col == nil {
		return "-"
	}
	pos := func(p *uint32) string {
		if p == nil {
			return "?"
		}
		return fmt.Sprint(*p)
	}
	return pos(t.Row) + "," + pos(t.Col)
}

func printConfigTable(w io.Writer, cfg model.Config) error {
	if len(cfg.Tiles) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no tiles"))
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tPOS\tSIZE\tDETAIL")
		for _, t := range cfg.Tiles {
			width, height := t.Size()
			fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\n",
				ui.RenderAccent(shortID(t.ID)), ui.RenderKind(t.Data.Kind()), tilePosition(t), width, height, tileDetail(t.Data))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	key := ui.RenderMuted("not set")
	if cfg.Secrets.OWMAPIKey != nil {
		key = "set"
	}
	fmt.Fprintf(w, "\nOpenWeatherMap key: %s\n", key)
	return nil
}

func printConfigJSON(w io.Writer, cfg model.Config) error {
	data, err := model.SerializeIndent(cfg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printConfig(w io.Writer, cfg model.Config) error {
	if jsonOutput {
		return printConfigJSON(w, cfg)
	}
	return printConfigTable(w, cfg)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
