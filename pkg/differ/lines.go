package differ

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Change is a run of whole lines. At most one of Added and Removed is set;
// neither means the lines are shared by both sides.
type Change struct {
	Value   string
	Count   int
	Added   bool
	Removed bool
}

// SplitLines splits s after each newline. A final line without a newline is
// kept as is, and empty input yields no lines.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Lines computes the line diff turning from into to. A replaced block is
// reported as a removal followed by an addition.
func Lines(from, to string) []Change {
	a, b := SplitLines(from), SplitLines(to)
	m := difflib.NewMatcherWithJunk(a, b, false, nil)

	var changes []Change
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			changes = append(changes, run(a[op.I1:op.I2], false, false))
		case 'd':
			changes = append(changes, run(a[op.I1:op.I2], false, true))
		case 'i':
			changes = append(changes, run(b[op.J1:op.J2], true, false))
		case 'r':
			changes = append(changes, run(a[op.I1:op.I2], false, true), run(b[op.J1:op.J2], true, false))
		}
	}
	return changes
}

func run(lines []string, added, removed bool) Change {
	return Change{Value: strings.Join(lines, ""), Count: len(lines), Added: added, Removed: removed}
}

// Old rebuilds the local side of a diff.
func (d FileDiff) Old() string {
	var sb strings.Builder
	for _, c := range d.Changes {
		if !c.Added {
			sb.WriteString(c.Value)
		}
	}
	return sb.String()
}

// New rebuilds the upstream side of a diff.
func (d FileDiff) New() string {
	var sb strings.Builder
	for _, c := range d.Changes {
		if !c.Removed {
			sb.WriteString(c.Value)
		}
	}
	return sb.String()
}
