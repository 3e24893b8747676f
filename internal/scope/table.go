// Package scope implements the release-scope table carried in a Jira
// REL-SCOPE issue's description: decoding and re-encoding the ADF table,
// upserting component/branch rows, prerequisite checks for upserts, and
// the lookup matcher used by release pipelines.
package scope

import (
	"strings"

	"github.com/relscope/relscope/internal/adf"
)

// Default header cells written when a description has no table yet.
var defaultHeader = []string{"Component", "Branch Name"}

// Row is one data row of the release-scope table. Component is the
// identity key; comparisons are case-sensitive on trimmed values.
type Row struct {
	Component string `json:"component"`
	Branch    string `json:"branch"`
}

// Table is the decoded release-scope table. The header row is kept as the
// original ADF node so that encoding reproduces it verbatim; only data
// rows are rebuilt from Rows.
type Table struct {
	Header *adf.Node
	Rows   []Row
}

// NewTable returns an empty table with the default header, used when an
// issue's description does not contain a table yet.
func NewTable() *Table {
	cells := make([]*adf.Node, len(defaultHeader))
	for i, h := range defaultHeader {
		cells[i] = adf.TableHeaderCell(h)
	}
	return &Table{Header: adf.TableRow(cells...)}
}

// Decode extracts the release-scope table from an ADF document. The first
// table node in document order is used. The first row is treated as the
// header when all of its cells are tableHeader nodes. Every data row must
// have at least two cells: component, then branch.
func Decode(doc *adf.Node) (*Table, error) {
	tableNode := doc.FindFirst(adf.TypeTable)
	if tableNode == nil {
		return nil, ErrNoTableFound
	}

	t := &Table{}
	rows := tableNode.Content
	for i, rowNode := range rows {
		if i == 0 && isHeaderRow(rowNode) {
			t.Header = rowNode
			continue
		}
		dataIdx := len(t.Rows)
		if len(rowNode.Content) < 2 {
			return nil, &MalformedTableError{Row: dataIdx, Cells: len(rowNode.Content)}
		}
		t.Rows = append(t.Rows, Row{
			Component: strings.TrimSpace(rowNode.Content[0].PlainText()),
			Branch:    strings.TrimSpace(rowNode.Content[1].PlainText()),
		})
	}
	return t, nil
}

func isHeaderRow(row *adf.Node) bool {
	if len(row.Content) == 0 {
		return false
	}
	for _, cell := range row.Content {
		if cell.Type != adf.TypeTableHeader {
			return false
		}
	}
	return true
}

// Encode writes the table back into a copy of the original document. The
// first table node is replaced in place; every other node, and the header
// row, is preserved unchanged. When the document has no table node, the
// table is appended to the document content. A nil document yields a new
// doc containing only the table.
func Encode(t *Table, doc *adf.Node) *adf.Node {
	tableNode := t.node()

	if doc == nil {
		return adf.Doc(tableNode)
	}

	out := doc.Clone()
	if !replaceFirstTable(out, tableNode) {
		out.Content = append(out.Content, tableNode)
	}
	return out
}

func (t *Table) node() *adf.Node {
	header := t.Header
	if header == nil {
		header = NewTable().Header
	}
	content := make([]*adf.Node, 0, len(t.Rows)+1)
	content = append(content, header.Clone())
	for _, row := range t.Rows {
		content = append(content, adf.TableRow(
			adf.TableCell(row.Component),
			adf.TableCell(row.Branch),
		))
	}
	return &adf.Node{Type: adf.TypeTable, Content: content}
}

func replaceFirstTable(n *adf.Node, replacement *adf.Node) bool {
	for i, child := range n.Content {
		if child.Type == adf.TypeTable {
			n.Content[i] = replacement
			return true
		}
		if replaceFirstTable(child, replacement) {
			return true
		}
	}
	return false
}

// Find returns the row for the given component, matched case-sensitively
// on the trimmed component name.
func (t *Table) Find(component string) (Row, bool) {
	component = strings.TrimSpace(component)
	for _, row := range t.Rows {
		if row.Component == component {
			return row, true
		}
	}
	return Row{}, false
}

// Components returns the component names of all data rows in order.
func (t *Table) Components() []string {
	names := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		names[i] = row.Component
	}
	return names
}

// HeaderCells returns the displayable header cell texts.
func (t *Table) HeaderCells() []string {
	header := t.Header
	if header == nil {
		return append([]string(nil), defaultHeader...)
	}
	cells := make([]string, len(header.Content))
	for i, cell := range header.Content {
		cells[i] = strings.TrimSpace(cell.PlainText())
	}
	return cells
}
