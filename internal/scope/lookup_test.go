package scope

import (
	"errors"
	"testing"

	"github.com/relscope/relscope/internal/adf"
)

func lookupIssue(key string) IssueDescription {
	doc := adf.Doc(&adf.Node{Type: adf.TypeTable, Content: []*adf.Node{
		adf.TableRow(adf.TableHeaderCell("Component"), adf.TableHeaderCell("Branch Name")),
		adf.TableRow(adf.TableCell("svc-a"), adf.TableCell("release/1.0")),
		adf.TableRow(adf.TableCell("svc-b"), adf.TableCell("release/2.0")),
	}})
	return IssueDescription{Key: key, Summary: "Release 2025.09 scope", Doc: doc}
}

func TestLookupSuccess(t *testing.T) {
	match, err := Lookup([]IssueDescription{lookupIssue("REL-1")}, "svc-b", "release/2.0")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if match.Key != "REL-1" {
		t.Errorf("Key = %q, want REL-1", match.Key)
	}
	if match.Row.Branch != "release/2.0" {
		t.Errorf("Row.Branch = %q, want release/2.0", match.Row.Branch)
	}
	if match.Table == nil || len(match.Table.Rows) != 2 {
		t.Errorf("Table not carried on match: %+v", match.Table)
	}
}

func TestLookupBranchMismatch(t *testing.T) {
	_, err := Lookup([]IssueDescription{lookupIssue("REL-1")}, "svc-b", "release/9.9")

	var mismatch *BranchMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *BranchMismatchError", err)
	}
	if mismatch.Expected != "release/9.9" || mismatch.Actual != "release/2.0" {
		t.Errorf("mismatch = %+v, want expected release/9.9, actual release/2.0", mismatch)
	}
}

func TestLookupComponentNotFound(t *testing.T) {
	_, err := Lookup([]IssueDescription{lookupIssue("REL-1")}, "svc-z", "release/1.0")

	var notFound *ComponentNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *ComponentNotFoundError", err)
	}
	if len(notFound.Available) != 2 || notFound.Available[0] != "svc-a" {
		t.Errorf("Available = %v, want [svc-a svc-b]", notFound.Available)
	}
}

func TestLookupNoTickets(t *testing.T) {
	_, err := Lookup(nil, "svc-a", "release/1.0")
	if !errors.Is(err, ErrNoTicketsFound) {
		t.Errorf("error = %v, want ErrNoTicketsFound", err)
	}
}

func TestLookupMultipleTickets(t *testing.T) {
	issues := []IssueDescription{lookupIssue("REL-1"), lookupIssue("REL-2")}

	_, err := Lookup(issues, "svc-a", "release/1.0")

	var multiple *MultipleTicketsError
	if !errors.As(err, &multiple) {
		t.Fatalf("error = %v, want *MultipleTicketsError", err)
	}
	if len(multiple.Tickets) != 2 {
		t.Fatalf("Tickets = %+v, want both", multiple.Tickets)
	}
	if multiple.Tickets[0].Key != "REL-1" || multiple.Tickets[1].Key != "REL-2" {
		t.Errorf("Tickets = %+v", multiple.Tickets)
	}
}

func TestLookupNoDescription(t *testing.T) {
	issue := IssueDescription{Key: "REL-1", Doc: nil}
	_, err := Lookup([]IssueDescription{issue}, "svc-a", "release/1.0")
	if !errors.Is(err, ErrNoTableFound) {
		t.Errorf("error = %v, want ErrNoTableFound", err)
	}
}
