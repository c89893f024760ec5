// Package render prints diff results for terminals and patches.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/compkit/compkit/pkg/differ"
)

// Colored writes each file diff under a bold blue header naming the upstream
// path. Added lines are green and removed lines red strikethrough. Colors
// follow the capabilities of w, so plain writers get plain text.
func Colored(w io.Writer, diffs []differ.FileDiff) error {
	r := lipgloss.NewRenderer(w)
	plain := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	header := plain.Bold(true).Foreground(lipgloss.Color("4"))
	added := plain.Foreground(lipgloss.Color("2"))
	removed := plain.Foreground(lipgloss.Color("1")).Strikethrough(true)

	for _, d := range diffs {
		if _, err := fmt.Fprintln(w, header.Render(d.Path)); err != nil {
			return err
		}
		for _, c := range d.Changes {
			style := plain
			switch {
			case c.Added:
				style = added
			case c.Removed:
				style = removed
			}
			for _, line := range differ.SplitLines(c.Value) {
				if _, err := fmt.Fprintln(w, style.Render(strings.TrimSuffix(line, "\n"))); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// Unified writes a unified diff per changed file, local copy first.
// Unchanged files are omitted.
func Unified(w io.Writer, diffs []differ.FileDiff) error {
	for _, d := range diffs {
		if !d.Changed() {
			continue
		}
		to := "b/" + d.Path
		if d.Removed {
			to = "/dev/null"
		}
		ud := difflib.UnifiedDiff{
			A:        terminated(differ.SplitLines(d.Old())),
			B:        terminated(differ.SplitLines(d.New())),
			FromFile: "a/" + d.Dest,
			ToFile:   to,
			Context:  3,
		}
		if err := difflib.WriteUnifiedDiff(w, ud); err != nil {
			return fmt.Errorf("writing diff for %s: %w", d.Dest, err)
		}
	}
	return nil
}

// terminated gives a final line without a newline one, so hunks stay
// line-aligned.
func terminated(lines []string) []string {
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n"
	}
	return lines
}
