// SPDX-License-Identifier: MPL-2.0

package caselist

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
)

// Styles controls how Render decorates the report.
type Styles struct {
	Title  lipgloss.Style
	Group  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

// PlainStyles renders without colors.
func PlainStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle(),
		Group:  lipgloss.NewStyle(),
		Header: lipgloss.NewStyle(),
		Cell:   lipgloss.NewStyle(),
		Border: lipgloss.NewStyle(),
	}
}

// Render writes the report for entries found under rootName: a title line,
// then one table per group, in the order groups first appear.
func Render(w io.Writer, rootName string, entries []Entry, st Styles) error {
	if _, err := fmt.Fprintln(w, st.Title.Render("CORIANDER CASES in "+rootName)); err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, st.Cell.Render("no cases found"))
		return err
	}

	for _, g := range groupEntries(entries) {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if g.name != "" {
			if _, err := fmt.Fprintln(w, st.Group.Render(g.name+"/")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, renderTable(g.entries, st)); err != nil {
			return err
		}
	}
	return nil
}

type group struct {
	name    string
	entries []Entry
}

func groupEntries(entries []Entry) []group {
	var groups []group
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Group]
		if !ok {
			i = len(groups)
			index[e.Group] = i
			groups = append(groups, group{name: e.Group})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	return groups
}

func renderTable(entries []Entry, st Styles) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = Row(e)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		Headers("CASE", "PROCESSORS", "LATEST TIME", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.Header.Padding(0, 1)
			}
			return st.Cell.Padding(0, 1)
		})
	return t.String()
}

// Row formats one entry as the report columns. The processor count is blank
// for cases that are not decomposed.
func Row(e Entry) []string {
	procs := ""
	if e.Decomposed {
		procs = strconv.Itoa(e.Processors)
	}
	return []string{
		e.Name + "/",
		procs,
		fmt.Sprintf("%.4f", e.LatestTime),
		humanize.Bytes(uint64(max(e.Size, 0))),
	}
}
