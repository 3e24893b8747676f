// Package adf models the Atlassian Document Format (ADF) tree that Jira
// Cloud uses for rich-text fields such as issue descriptions.
//
// Only the node kinds this tool touches are named; everything else rides
// along untyped in Attrs/Marks so a parsed document can be written back
// without losing formatting we never looked at.
package adf

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Node kinds used by the release-scope table handling.
const (
	TypeDoc         = "doc"
	TypeParagraph   = "paragraph"
	TypeTable       = "table"
	TypeTableRow    = "tableRow"
	TypeTableHeader = "tableHeader"
	TypeTableCell   = "tableCell"
	TypeText        = "text"
)

// Node is a single node in an ADF document tree. Attrs and Marks are
// preserved verbatim so that re-encoding an untouched node reproduces
// the original JSON.
type Node struct {
	Type    string          `json:"type"`
	Version int             `json:"version,omitempty"` // set on the root doc node only
	Text    string          `json:"text,omitempty"`
	Attrs   json.RawMessage `json:"attrs,omitempty"`
	Marks   json.RawMessage `json:"marks,omitempty"`
	Content []*Node         `json:"content,omitempty"`
}

// Parse decodes a raw JSON description field into an ADF node tree.
// Jira returns null for empty descriptions; that parses to nil, nil.
func Parse(raw json.RawMessage) (*Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("parse ADF document: %w", err)
	}
	return &n, nil
}

// Doc wraps content nodes in a version-1 doc node.
func Doc(content ...*Node) *Node {
	return &Node{Type: TypeDoc, Version: 1, Content: content}
}

// Text creates a text leaf node.
func Text(s string) *Node {
	return &Node{Type: TypeText, Text: s}
}

// Paragraph creates a paragraph containing a single text node.
func Paragraph(text string) *Node {
	return &Node{Type: TypeParagraph, Content: []*Node{Text(text)}}
}

// TableCell creates a data cell holding one paragraph of text.
func TableCell(text string) *Node {
	return &Node{Type: TypeTableCell, Content: []*Node{Paragraph(text)}}
}

// TableHeaderCell creates a header cell holding one paragraph of text.
func TableHeaderCell(text string) *Node {
	return &Node{Type: TypeTableHeader, Content: []*Node{Paragraph(text)}}
}

// TableRow creates a row from the given cells.
func TableRow(cells ...*Node) *Node {
	return &Node{Type: TypeTableRow, Content: cells}
}

// PlainText concatenates the text of every descendant text node in
// document order, with no separators added.
func (n *Node) PlainText() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.appendText(&sb)
	return sb.String()
}

func (n *Node) appendText(sb *strings.Builder) {
	if n.Type == TypeText {
		sb.WriteString(n.Text)
	}
	for _, child := range n.Content {
		child.appendText(sb)
	}
}

// FindFirst returns the first node of the given type in a depth-first
// walk, or nil if the tree contains none.
func (n *Node) FindFirst(nodeType string) *Node {
	if n == nil {
		return nil
	}
	if n.Type == nodeType {
		return n
	}
	for _, child := range n.Content {
		if found := child.FindFirst(nodeType); found != nil {
			return found
		}
	}
	return nil
}

// Clone returns a deep copy of the node tree. Raw attr/mark bytes are
// copied so mutations of the clone never alias the source.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type:    n.Type,
		Version: n.Version,
		Text:    n.Text,
	}
	if n.Attrs != nil {
		c.Attrs = append(json.RawMessage(nil), n.Attrs...)
	}
	if n.Marks != nil {
		c.Marks = append(json.RawMessage(nil), n.Marks...)
	}
	if n.Content != nil {
		c.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = child.Clone()
		}
	}
	return c
}
