package logger

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

type Table struct {
	out         io.Writer
	headers     []string
	rows        [][]string
	columnWidth []int
}

func NewTable(out io.Writer, headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	return &Table{
		out:         out,
		headers:     headers,
		columnWidth: widths,
	}
}

func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	} else if len(cells) < len(t.headers) {
		padded := make([]string, len(t.headers))
		copy(padded, cells)
		cells = padded
	}

	for i, cell := range cells {
		if n := utf8.RuneCountInString(cell); n > t.columnWidth[i] {
			t.columnWidth[i] = n
		}
	}

	t.rows = append(t.rows, cells)
}

func (t *Table) line(left, mid, right string) string {
	var sb strings.Builder
	sb.WriteString(left)
	for i, width := range t.columnWidth {
		sb.WriteString(strings.Repeat("─", width+2))
		if i < len(t.columnWidth)-1 {
			sb.WriteString(mid)
		}
	}
	sb.WriteString(right)
	sb.WriteString("\n")
	return sb.String()
}

func (t *Table) row(cells []string) string {
	var sb strings.Builder
	sb.WriteString("│")
	for i, cell := range cells {
		sb.WriteString(" ")
		sb.WriteString(cell)
		sb.WriteString(strings.Repeat(" ", t.columnWidth[i]-utf8.RuneCountInString(cell)))
		sb.WriteString(" │")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (t *Table) Print() {
	var sb strings.Builder

	sb.WriteString(t.line("┌", "┬", "┐"))
	sb.WriteString(t.row(t.headers))
	sb.WriteString(t.line("├", "┼", "┤"))
	for _, r := range t.rows {
		sb.WriteString(t.row(r))
	}
	sb.WriteString(t.line("└", "┴", "┘"))

	fmt.Fprint(t.out, sb.String())
}
