package scope

import "strings"

// UpsertResult reports what an upsert did, for workflow outputs and the
// step summary.
type UpsertResult struct {
	Updated  bool // true when an existing row's branch was replaced
	Row      Row  // the row as it now stands
	Previous *Row // the prior row when Updated
}

// Upsert inserts or updates the row keyed by component. The first data row
// whose component matches (case-sensitive, trimmed) has its branch cell
// replaced, keeping its position; otherwise a new row is appended last.
// Applying the same (component, branch) pair twice is a no-op the second
// time.
func (t *Table) Upsert(component, branch string) UpsertResult {
	component = strings.TrimSpace(component)
	branch = strings.TrimSpace(branch)

	for i := range t.Rows {
		if t.Rows[i].Component == component {
			prev := t.Rows[i]
			t.Rows[i].Branch = branch
			return UpsertResult{Updated: true, Row: t.Rows[i], Previous: &prev}
		}
	}

	row := Row{Component: component, Branch: branch}
	t.Rows = append(t.Rows, row)
	return UpsertResult{Row: row}
}
