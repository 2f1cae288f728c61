package export

import (
	"errors"
	"iter"
	"reflect"
	"testing"
)

func collect(t *testing.T, rows iter.Seq2[[]any, error]) ([][]any, error) {
	t.Helper()
	var out [][]any
	for row, err := range rows {
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

func TestRender_Layout(t *testing.T) {
	tpl := Template{
		Name: "Test Template",
		Tables: []Table{{
			Name: "Test Table",
			Headers: []Header{
				{Name: "a", Type: FieldNumber, Comment: "a_test_comment"},
				{Name: "b", Type: FieldText, Comment: "b_test_comment"},
			},
			Rows: RowsOf(Row{"a": 1, "b": 2}),
		}},
	}

	got, err := collect(t, Render(tpl))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := [][]any{
		{"Test Template", ""},
		{"", ""},
		{"Test Table", "b_test_comment"},
		{"Number", "Text"},
		{"a", "b"},
		{1, 2},
		{"", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rows =\n%v\nwant\n%v", got, want)
	}
}

func TestRender_WidthFollowsWidestTable(t *testing.T) {
	wide := make([]Header, 1000)
	for i := range wide {
		wide[i] = Header{Name: "h", Type: FieldText}
	}
	tpl := Template{
		Name: "Wide",
		Tables: []Table{
			{Name: "narrow", Headers: []Header{{Name: "x", Type: FieldText}}, Rows: RowsOf(Row{"x": "1"})},
			{Name: "wide", Headers: wide},
		},
	}
	rows, err := collect(t, Render(tpl))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i, r := range rows {
		if len(r) != 1000 {
			t.Fatalf("row %d has %d cells; want 1000", i, len(r))
		}
	}
	if rows[0][0] != "Wide" {
		t.Fatalf("title = %v", rows[0][0])
	}
}

func TestRender_NoTablesStillHasOneColumn(t *testing.T) {
	rows, err := collect(t, Render(Template{Name: "Empty"}))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := [][]any{{"Empty"}, {""}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %v; want %v", rows, want)
	}
}

func TestRender_MissingAndNilValuesAreEmpty(t *testing.T) {
	tpl := Template{
		Name: "T",
		Tables: []Table{{
			Name:    "t",
			Headers: []Header{{Name: "a", Type: FieldText}, {Name: "b", Type: FieldText}},
			Rows:    RowsOf(Row{"b": nil, "extra": "ignored"}),
		}},
	}
	rows, err := collect(t, Render(tpl))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := rows[5]; !reflect.DeepEqual(got, []any{"", ""}) {
		t.Fatalf("data row = %v", got)
	}
}

func TestRender_StopsOnRowError(t *testing.T) {
	boom := errors.New("boom")
	tpl := Template{
		Name: "T",
		Tables: []Table{{
			Name:    "t",
			Headers: []Header{{Name: "a", Type: FieldText}},
			Rows: func(yield func(Row, error) bool) {
				if !yield(Row{"a": "1"}, nil) {
					return
				}
				yield(nil, boom)
			},
		}},
	}
	rows, err := collect(t, Render(tpl))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v; want boom", err)
	}
	// title, blank, name, types, names, one data row
	if len(rows) != 6 {
		t.Fatalf("rendered %d rows before the error; want 6", len(rows))
	}
}
