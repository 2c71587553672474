// Package printer writes coloured console output for the agentia CLI.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/tatianab/agentia/internal/sim"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

// Success prints a green message with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ %s", fmt.Sprintf(format, a...))
}

func Info(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Warning prints a yellow message to stderr.
func Warning(format string, a ...any) {
	yellow.Fprintf(os.Stderr, "⚠️  %s", fmt.Sprintf(format, a...))
}

func Step(format string, a ...any) {
	cyan.Printf("→ %s", fmt.Sprintf(format, a...))
}

// Error prints a titled error with an explanation and suggestions to stderr
// and returns an error carrying only the title, for cobra to exit with.
func Error(title, explanation string, suggestions []string) error {
	red.Fprintf(os.Stderr, "%s\n\n", title)
	if explanation != "" {
		fmt.Fprintf(os.Stderr, "%s\n", explanation)
	}
	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(os.Stderr, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(os.Stderr, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
	}
	return fmt.Errorf("%s", title)
}

// Tick writes one line per agent turn plus any tick events.
func Tick(w io.Writer, rec sim.TickRecord) {
	bold.Fprintf(w, "tick %d  %s\n", rec.Tick, rec.Time)
	for _, ar := range rec.Agents {
		c := green
		switch ar.Outcome {
		case sim.OutcomeRejected:
			c = yellow
		case sim.OutcomeFailed:
			c = red
		case sim.OutcomeLocked:
			c = cyan
		}
		c.Fprintf(w, "  %s\n", ar.Summary())
		if ar.Resolution != nil && ar.Resolution.Message != "" {
			fmt.Fprintf(w, "    %s\n", ar.Resolution.Message)
		}
		for _, m := range ar.Mutations {
			mark := "+"
			if !m.Applied {
				mark = "x"
			}
			fmt.Fprintf(w, "    %s %s\n", mark, m.Summary)
		}
	}
	for _, e := range rec.Events {
		fmt.Fprintf(w, "  * %s %s: %s\n", e.Kind, e.Agent, e.Message)
	}
}

// Stats writes the end-of-run summary.
func Stats(w io.Writer, s *sim.Stats) {
	bold.Fprintf(w, "\n=== Run summary ===\n")
	fmt.Fprintf(w, "Ticks:            %d\n", s.Ticks)
	fmt.Fprintf(w, "Applied actions:  %d\n", s.TotalActions())
	fmt.Fprintf(w, "Locked turns:     %d\n", s.LockedTurns)
	fmt.Fprintf(w, "Resolver calls:   %d\n", s.ResolverCalls)
	fmt.Fprintf(w, "Mutations:        %d applied, %d dropped\n", s.Mutations, s.DroppedCommands)

	section(w, "Actions by kind", counts(s.Actions))
	section(w, "Actions by agent", counts(s.PerAgent))
	section(w, "Rejections", counts(s.Rejections))
	section(w, "Collaborator errors", counts(s.CollaboratorErrors))

	if len(s.Notable) > 0 {
		bold.Fprintf(w, "Notable events:\n")
		for _, n := range s.Notable {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
}

func section(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	bold.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "  %s\n", strings.Join(lines, "\n  "))
}

// counts renders a tally map as sorted "key: n" lines.
func counts[K ~string](m map[K]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s: %d", k, m[K(k)])
	}
	return lines
}
