package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/ui"
)

// helpRule colors one kind of token in Cobra's plain help text. group is the
// submatch to color; the rest of the match is kept as is.
type helpRule struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

var helpRules = []helpRule{
	// Section headers such as "Settings:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), 1, ui.RenderAccent},
	// Command names: two-space indent, a word, then two or more spaces.
	{regexp.MustCompile(`(?m)^  (\S+)  `), 1, ui.RenderCommand},
	// Flag value types, e.g. "--url string".
	{regexp.MustCompile(`--?\S+\s+(string|duration|int)\b`), 1, ui.RenderMuted},
	// Defaults, e.g. (default "http").
	{regexp.MustCompile(`(\(default [^)]*\))`), 1, ui.RenderMuted},
}

// colorizedHelpFunc returns a Cobra help function that colors the default
// usage text when stdout supports it.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, r := range helpRules {
		r := r
		s = r.re.ReplaceAllStringFunc(s, func(match string) string {
			loc := r.re.FindStringSubmatchIndex(match)
			if loc == nil || loc[2*r.group] < 0 {
				return match
			}
			start, end := loc[2*r.group], loc[2*r.group+1]
			return match[:start] + r.render(match[start:end]) + match[end:]
		})
	}
	return s
}
