package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"cps-console/internal/domain/project"
	"cps-console/internal/expiry"
)

const (
	timeLayout   = "2006-01-02 15:04"
	emptyCell    = "-"
	maxCellWidth = 48
)

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...any) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = cellText(cell)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func cellText(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return emptyCell
	case string:
		s = x
	case time.Time:
		if x.IsZero() {
			return emptyCell
		}
		s = x.Local().Format(timeLayout)
	case *time.Time:
		if x == nil {
			return emptyCell
		}
		return cellText(*x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		s = fmt.Sprint(x)
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return emptyCell
	}
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

func categoryName(p project.Project) string {
	if p.Category != nil {
		return p.Category.Name
	}
	return ""
}

// expiryCell renders a date with its remaining-days text.
func expiryCell(date string, status expiry.Status, now time.Time) string {
	if date == "" {
		return expiry.Text(date, now)
	}
	return fmt.Sprintf("%s (%s, %s)", date, expiry.Text(date, now), status)
}

// snapshotLines renders a documentation snapshot as sorted key: value lines.
func snapshotLines(snapshot map[string]any) []string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, snapshotValue(snapshot[k])))
	}
	return lines
}

func snapshotValue(v any) string {
	switch x := v.(type) {
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = snapshotValue(item)
		}
		return strings.Join(parts, " | ")
	case []string:
		return strings.Join(x, " | ")
	case map[string]any:
		return strings.Join(snapshotLines(x), ", ")
	default:
		return fmt.Sprint(x)
	}
}
