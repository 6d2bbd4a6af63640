package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/agent"
	"github.com/alfredjeanlab/trellis/internal/editor"
	"github.com/alfredjeanlab/trellis/internal/model"
	"github.com/alfredjeanlab/trellis/internal/ui"
)

var noteCmd = &cobra.Command{
	Use:     "note",
	Short:   "Edit note tiles",
	GroupID: "tiles",
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Stream text from stdin into a note tile",
	Long: `Read lines from stdin and make them the text of a note tile. Changes are
saved after the input has been quiet for --delay, and once more at end of
input. With --append the new lines follow the existing text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, _ := cmd.Flags().GetDuration("delay")
		appendText, _ := cmd.Flags().GetBool("append")

		return withAgent(cmd.Context(), func(ctx context.Context, a *agent.Agent) error {
			cfg, _ := a.Current()
			t, err := resolveTile(cfg, args[0])
			if err != nil {
				return err
			}
			note, ok := t.Data.(model.Note)
			if !ok {
				return fmt.Errorf("tile %s is a %s tile, not %s", shortID(t.ID), t.Data.Kind(), model.KindNote)
			}

			ed := editor.New(t.ID, note.Text, a, editor.WithDelay(delay), editor.WithLogger(logger))
			defer ed.Close()

			var prefix string
			if appendText && note.Text != "" {
				prefix = note.Text + "\n"
			}
			n, err := streamLines(ctx, cmd.InOrStdin(), prefix, ed.Input)
			if err != nil {
				return err
			}
			if err := ed.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s read %d lines into %s\n",
				ui.RenderMuted("note:"), n, ui.RenderAccent(shortID(t.ID)))
			return nil
		})
	},
}

// streamLines reads r line by line and calls input with everything read so
// far, after prefix. It stops at end of input or when ctx is done.
func streamLines(ctx context.Context, r io.Reader, prefix string, input func(string)) (int, error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	var b strings.Builder
	b.WriteString(prefix)
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return n, err
				default:
					return n, ctx.Err()
				}
			}
			if n > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
			n++
			input(b.String())
		}
	}
}

func init() {
	noteEditCmd.Flags().Duration("delay", editor.DefaultDelay, "quiet period before an edit is saved")
	noteEditCmd.Flags().Bool("append", false, "keep the existing text and append to it")
	noteCmd.AddCommand(noteEditCmd)
}
