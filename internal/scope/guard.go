package scope

import (
	"fmt"
	"strings"
)

// PermissionAllowed is the literal value the upsert-permission field must
// resolve to. Any other value, including empty or absent, blocks upserts.
const PermissionAllowed = "Allowed"

// ViolationKind classifies a failed prerequisite check.
type ViolationKind string

const (
	WrongIssueType     ViolationKind = "wrong_issue_type"
	UpsertNotPermitted ViolationKind = "upsert_not_permitted"
	BlockedByStatus    ViolationKind = "blocked_by_status"
	ComponentConflict  ViolationKind = "component_conflict"
)

// Violation is one failed check with its human-readable explanation.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Snapshot is the freshly fetched issue state the guard evaluates. It is
// never cached across invocations.
type Snapshot struct {
	Key     string
	Type    string
	Summary string
	Status  string

	// PermissionValue is the resolved value of the upsert-permission
	// field; PermissionSet records whether the field was present at all.
	PermissionValue string
	PermissionSet   bool

	// Table is the decoded release-scope table, or nil when the
	// description has none.
	Table *Table
}

// GuardOptions configures which checks run and against what.
type GuardOptions struct {
	IssueType string // expected issue type, e.g. "REL-SCOPE"

	// PermissionFieldID enables the permission check when non-empty.
	// PermissionFieldName is the display name resolved from field
	// metadata; it only affects diagnostics, never the comparison.
	PermissionFieldID   string
	PermissionFieldName string

	// BlockedStatuses are matched case-sensitively against the issue
	// status.
	BlockedStatuses []string

	// Component, when non-empty, must not already exist in the table.
	Component string
}

// GuardResult is the verdict plus every violated check. The guard never
// short-circuits: all failing conditions are collected so a single run
// reports everything that would block an upsert.
type GuardResult struct {
	OK         bool        `json:"ok"`
	Violations []Violation `json:"violations,omitempty"`

	// ConflictBranch carries the existing row's branch when a
	// ComponentConflict violation is present.
	ConflictBranch string `json:"conflict_branch,omitempty"`
}

// Err returns nil when the result passed, or an error combining every
// violation message.
func (r GuardResult) Err() error {
	if r.OK {
		return nil
	}
	msgs := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		msgs[i] = v.Message
	}
	return fmt.Errorf("upsert prerequisites not met: %s", strings.Join(msgs, "; "))
}

// CheckPrereqs evaluates every upsert prerequisite against the issue
// snapshot without mutating anything.
func CheckPrereqs(snap Snapshot, opts GuardOptions) GuardResult {
	var result GuardResult

	if opts.IssueType != "" && snap.Type != opts.IssueType {
		result.Violations = append(result.Violations, Violation{
			Kind: WrongIssueType,
			Message: fmt.Sprintf("issue %s is not of type %s (current: %s)",
				snap.Key, opts.IssueType, snap.Type),
		})
	}

	if opts.PermissionFieldID != "" {
		fieldName := opts.PermissionFieldName
		if fieldName == "" {
			fieldName = opts.PermissionFieldID
		}
		switch {
		case !snap.PermissionSet:
			result.Violations = append(result.Violations, Violation{
				Kind: UpsertNotPermitted,
				Message: fmt.Sprintf("upsert permission field %q (%s) is not accessible or does not exist",
					fieldName, opts.PermissionFieldID),
			})
		case strings.TrimSpace(snap.PermissionValue) != PermissionAllowed:
			result.Violations = append(result.Violations, Violation{
				Kind: UpsertNotPermitted,
				Message: fmt.Sprintf("upsert permission field %q is not set to %q (current value: %q)",
					fieldName, PermissionAllowed, snap.PermissionValue),
			})
		}
	}

	for _, blocked := range opts.BlockedStatuses {
		if snap.Status == blocked {
			result.Violations = append(result.Violations, Violation{
				Kind: BlockedByStatus,
				Message: fmt.Sprintf("ticket is in %q status; blocked statuses: %s",
					snap.Status, strings.Join(opts.BlockedStatuses, ", ")),
			})
			break
		}
	}

	if opts.Component != "" && snap.Table != nil {
		if row, found := snap.Table.Find(opts.Component); found {
			result.ConflictBranch = row.Branch
			result.Violations = append(result.Violations, Violation{
				Kind: ComponentConflict,
				Message: fmt.Sprintf("component %q already exists in the table with branch %q",
					row.Component, row.Branch),
			})
		}
	}

	result.OK = len(result.Violations) == 0
	return result
}
