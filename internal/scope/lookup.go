package scope

import (
	"strings"

	"github.com/relscope/relscope/internal/adf"
)

// IssueDescription is one search hit handed to the lookup matcher: the
// issue key, its summary, and its parsed description document.
type IssueDescription struct {
	Key     string
	Summary string
	Doc     *adf.Node
}

// Match is a successful lookup: the single matching ticket and the row
// whose branch equals the expected release branch. Table is the full
// decoded table, kept for summary rendering.
type Match struct {
	Key     string
	Summary string
	Row     Row
	Table   *Table
}

// Lookup expects issues to be the pre-filtered (project, state, issuetype)
// search result. Exactly one issue must match; its table must contain the
// component; and the component's branch must equal expectedBranch.
//
// Failure modes, in order: ErrNoTicketsFound, *MultipleTicketsError,
// table decode errors, *ComponentNotFoundError, *BranchMismatchError.
func Lookup(issues []IssueDescription, component, expectedBranch string) (*Match, error) {
	if len(issues) == 0 {
		return nil, ErrNoTicketsFound
	}
	if len(issues) > 1 {
		refs := make([]TicketRef, len(issues))
		for i, issue := range issues {
			refs[i] = TicketRef{Key: issue.Key, Summary: issue.Summary}
		}
		return nil, &MultipleTicketsError{Tickets: refs}
	}

	issue := issues[0]
	table, err := Decode(issue.Doc)
	if err != nil {
		return nil, err
	}

	component = strings.TrimSpace(component)
	row, found := table.Find(component)
	if !found {
		return nil, &ComponentNotFoundError{
			Component: component,
			Key:       issue.Key,
			Available: table.Components(),
		}
	}

	expectedBranch = strings.TrimSpace(expectedBranch)
	if row.Branch != expectedBranch {
		return nil, &BranchMismatchError{
			Component: component,
			Key:       issue.Key,
			Expected:  expectedBranch,
			Actual:    row.Branch,
		}
	}

	return &Match{Key: issue.Key, Summary: issue.Summary, Row: row, Table: table}, nil
}
