package scope

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions that carry no extra context.
var (
	// ErrNoTableFound is returned when a description contains no table node.
	ErrNoTableFound = errors.New("description has no table")

	// ErrNoTicketsFound is returned when a lookup search matches no issues.
	ErrNoTicketsFound = errors.New("no matching tickets found")
)

// MalformedTableError reports a data row with fewer than two cells.
type MalformedTableError struct {
	Row   int // zero-based data row index
	Cells int
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("malformed table: data row %d has %d cell(s), need at least 2", e.Row, e.Cells)
}

// TicketRef identifies a matched ticket in diagnostics.
type TicketRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary"`
}

// MultipleTicketsError reports an ambiguous lookup: more than one issue
// matched the project/state/issuetype filter.
type MultipleTicketsError struct {
	Tickets []TicketRef
}

func (e *MultipleTicketsError) Error() string {
	keys := make([]string, len(e.Tickets))
	for i, t := range e.Tickets {
		keys[i] = t.Key
	}
	return fmt.Sprintf("multiple matching tickets found (%d): %s", len(e.Tickets), strings.Join(keys, ", "))
}

// ComponentNotFoundError reports a lookup for a component that is not in
// the ticket's table. Available lists the components that are.
type ComponentNotFoundError struct {
	Component string
	Key       string
	Available []string
}

func (e *ComponentNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("component %q not found in ticket %s (table is empty)", e.Component, e.Key)
	}
	return fmt.Sprintf("component %q not found in ticket %s (available: %s)",
		e.Component, e.Key, strings.Join(e.Available, ", "))
}

// BranchMismatchError reports a component whose recorded branch differs
// from the expected release branch.
type BranchMismatchError struct {
	Component string
	Key       string
	Expected  string
	Actual    string
}

func (e *BranchMismatchError) Error() string {
	return fmt.Sprintf("component %q in ticket %s has branch %q, expected %q",
		e.Component, e.Key, e.Actual, e.Expected)
}
