package scope

import "strings"

// Markdown renders the table as a GitHub-flavored markdown table for the
// workflow step summary.
func (t *Table) Markdown() string {
	return MarkdownTable(t.HeaderCells(), t.rowCells())
}

// MarkdownRow renders a single row under the table's header.
func (t *Table) MarkdownRow(row Row) string {
	return MarkdownTable(t.HeaderCells(), [][]string{{row.Component, row.Branch}})
}

func (t *Table) rowCells() [][]string {
	cells := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = []string{row.Component, row.Branch}
	}
	return cells
}

// MarkdownTable renders a pipe table with the given header and rows.
// Short rows are padded with empty cells to the header width.
func MarkdownTable(headers []string, rows [][]string) string {
	width := len(headers)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" " + escapePipes(cell) + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
