package scope

import (
	"reflect"
	"testing"
)

func scopeTable(rows ...Row) *Table {
	t := NewTable()
	t.Rows = rows
	return t
}

func TestUpsertAppendsNewRow(t *testing.T) {
	table := scopeTable(Row{"svc-a", "release/1.0"})

	res := table.Upsert("svc-b", "release/2.0")

	if res.Updated {
		t.Error("Updated = true, want append")
	}
	want := []Row{{"svc-a", "release/1.0"}, {"svc-b", "release/2.0"}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", table.Rows, want)
	}
}

func TestUpsertReplacesBranchInPlace(t *testing.T) {
	table := scopeTable(
		Row{"svc-a", "release/1.0"},
		Row{"svc-b", "release/2.0"},
		Row{"svc-c", "release/3.0"},
	)

	res := table.Upsert("svc-b", "release/2.1")

	if !res.Updated {
		t.Fatal("Updated = false, want update")
	}
	if res.Previous == nil || res.Previous.Branch != "release/2.0" {
		t.Errorf("Previous = %+v, want branch release/2.0", res.Previous)
	}
	want := []Row{
		{"svc-a", "release/1.0"},
		{"svc-b", "release/2.1"}, // position preserved
		{"svc-c", "release/3.0"},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", table.Rows, want)
	}
}

func TestUpsertMatchesCaseSensitively(t *testing.T) {
	table := scopeTable(Row{"Svc-A", "release/1.0"})

	table.Upsert("svc-a", "release/2.0")

	// Different case is a different component: both rows exist.
	want := []Row{{"Svc-A", "release/1.0"}, {"svc-a", "release/2.0"}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", table.Rows, want)
	}
}

func TestUpsertTrimsInput(t *testing.T) {
	table := scopeTable(Row{"svc-a", "release/1.0"})

	res := table.Upsert("  svc-a  ", " release/1.1 ")

	if !res.Updated {
		t.Error("trimmed component should match existing row")
	}
	if table.Rows[0].Branch != "release/1.1" {
		t.Errorf("Branch = %q, want release/1.1", table.Rows[0].Branch)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	table := scopeTable(Row{"svc-a", "release/1.0"})

	table.Upsert("svc-b", "release/2.0")
	once := append([]Row(nil), table.Rows...)
	table.Upsert("svc-b", "release/2.0")

	if !reflect.DeepEqual(table.Rows, once) {
		t.Errorf("second upsert changed rows: %+v -> %+v", once, table.Rows)
	}
}

func TestUpsertUpdatesFirstOfDuplicates(t *testing.T) {
	// The document format permits duplicate components; only the first
	// match is touched.
	table := scopeTable(Row{"svc-a", "release/1.0"}, Row{"svc-a", "release/9.9"})

	table.Upsert("svc-a", "release/2.0")

	want := []Row{{"svc-a", "release/2.0"}, {"svc-a", "release/9.9"}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %+v, want %+v", table.Rows, want)
	}
}
