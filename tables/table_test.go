package tables

import (
	"reflect"
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   [][]string
		want [][]string
	}{
		{
			name: "drops blank rows and columns",
			in: [][]string{
				{"Item", "", "Qty"},
				{"", " ", ""},
				{"Bolt", "", "4"},
			},
			want: [][]string{{"Item", "Qty"}, {"Bolt", "4"}},
		},
		{
			name: "pads ragged rows",
			in:   [][]string{{"a"}, {"b", "c"}},
			want: [][]string{{"a", ""}, {"b", "c"}},
		},
		{
			name: "all blank",
			in:   [][]string{{" ", ""}, {"\t"}},
			want: nil,
		},
		{
			name: "empty",
			in:   nil,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Clean() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	grids := [][][]string{
		{{"", "x", ""}, {"", "", ""}, {"y", "", " "}},
		{{"Name", "Total"}, {"A", "1"}},
		{{"  padded  "}, {""}},
	}
	for _, g := range grids {
		once := Clean(g)
		twice := Clean(once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("Clean not idempotent: %#v then %#v", once, twice)
		}
		for _, row := range once {
			if blankRow(row) {
				t.Fatalf("blank row survived: %#v", once)
			}
		}
		for c := range once[0] {
			empty := true
			for _, row := range once {
				if strings.TrimSpace(row[c]) != "" {
					empty = false
				}
			}
			if empty {
				t.Fatalf("blank column %d survived: %#v", c, once)
			}
		}
	}
}

func TestCleanDoesNotMutate(t *testing.T) {
	in := [][]string{{"a", ""}, {"", ""}}
	Clean(in)
	if !reflect.DeepEqual(in, [][]string{{"a", ""}, {"", ""}}) {
		t.Fatalf("input mutated: %#v", in)
	}
}

func TestPromoteHeader(t *testing.T) {
	grid := [][]string{{" Item ", "Qty\n"}, {"Bolt", "4"}, {"Nut", "9"}}
	tbl := PromoteHeader(2, 1, grid)
	if !tbl.HeaderPromoted {
		t.Fatalf("expected header promotion")
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"Item", "Qty"}) {
		t.Fatalf("unexpected columns %#v", tbl.Columns)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]string{{"Bolt", "4"}, {"Nut", "9"}}) {
		t.Fatalf("header row kept in body: %#v", tbl.Rows)
	}
	if tbl.RowCount() != 2 || tbl.ColCount() != 2 || tbl.Page != 2 || tbl.Index != 1 {
		t.Fatalf("unexpected table %+v", tbl)
	}
}

func TestPromoteHeaderSingleRow(t *testing.T) {
	tbl := PromoteHeader(1, 1, [][]string{{"a", "b", "c"}})
	if tbl.HeaderPromoted {
		t.Fatalf("single row must not be promoted")
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"0", "1", "2"}) {
		t.Fatalf("unexpected positional columns %#v", tbl.Columns)
	}
	if tbl.RowCount() != 1 {
		t.Fatalf("expected one body row, got %d", tbl.RowCount())
	}
}

func TestBuildDiscardsEmpty(t *testing.T) {
	if _, ok := Build(1, 1, [][]string{{"", " "}, {}}); ok {
		t.Fatalf("empty table must be discarded")
	}
	tbl, ok := Build(3, 2, [][]string{{"H1", "", "H2"}, {"", "", ""}, {"v1", "", "v2"}})
	if !ok {
		t.Fatalf("expected table")
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"H1", "H2"}) || tbl.RowCount() != 1 {
		t.Fatalf("unexpected table %+v", tbl)
	}
}

func TestSummaries(t *testing.T) {
	if s := Summaries(nil); s == nil || len(s) != 0 {
		t.Fatalf("expected empty non-nil summaries, got %#v", s)
	}
	s := Summaries([]Table{{Page: 1, Index: 2, Columns: []string{"a"}, Rows: [][]string{{"1"}, {"2"}}}})
	want := Summary{Page: 1, Index: 2, Rows: 2, Cols: 1, Columns: []string{"a"}}
	if !reflect.DeepEqual(s[0], want) {
		t.Fatalf("unexpected summary %+v", s[0])
	}
}
