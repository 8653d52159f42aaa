// Package tables finds tabular regions in PDF pages and turns them into
// cleaned, header-promoted tables.
package tables

import (
	"strconv"
	"strings"
)

// Table is one cleaned table found on one page. Page and Index are 1-based.
type Table struct {
	Page           int
	Index          int
	Columns        []string
	HeaderPromoted bool
	Rows           [][]string
}

// RowCount returns the number of body rows.
func (t Table) RowCount() int { return len(t.Rows) }

// ColCount returns the number of columns.
func (t Table) ColCount() int { return len(t.Columns) }

// Summary is the metadata view of a table.
type Summary struct {
	Page    int      `json:"page"`
	Index   int      `json:"table"`
	Rows    int      `json:"rows"`
	Cols    int      `json:"columns"`
	Columns []string `json:"column_names"`
}

// Summary returns the table's dimensions and column names.
func (t Table) Summary() Summary {
	return Summary{
		Page:    t.Page,
		Index:   t.Index,
		Rows:    t.RowCount(),
		Cols:    t.ColCount(),
		Columns: append([]string(nil), t.Columns...),
	}
}

// Summaries maps tables to their summaries. The result is never nil.
func Summaries(tables []Table) []Summary {
	out := make([]Summary, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Summary())
	}
	return out
}

// Clean pads ragged rows to a common width, then drops rows and columns
// whose cells are all blank. Blank means empty after trimming whitespace.
// Clean never mutates grid and is idempotent.
func Clean(grid [][]string) [][]string {
	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}

	var rows [][]string
	for _, row := range grid {
		padded := make([]string, width)
		copy(padded, row)
		if !blankRow(padded) {
			rows = append(rows, padded)
		}
	}
	if len(rows) == 0 {
		return nil
	}

	keep := make([]int, 0, width)
	for c := 0; c < width; c++ {
		for _, row := range rows {
			if strings.TrimSpace(row[c]) != "" {
				keep = append(keep, c)
				break
			}
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(keep))
		for j, c := range keep {
			out[i][j] = row[c]
		}
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// PromoteHeader turns a cleaned grid into a Table. With two or more rows the
// trimmed first row becomes the column names and is removed from the body;
// otherwise columns are named by position.
func PromoteHeader(page, index int, grid [][]string) Table {
	t := Table{Page: page, Index: index}
	if len(grid) >= 2 {
		t.Columns = make([]string, len(grid[0]))
		for i, v := range grid[0] {
			t.Columns[i] = strings.TrimSpace(v)
		}
		t.HeaderPromoted = true
		t.Rows = grid[1:]
		return t
	}
	if len(grid) == 1 {
		t.Columns = make([]string, len(grid[0]))
		for i := range t.Columns {
			t.Columns[i] = strconv.Itoa(i)
		}
	}
	t.Rows = grid
	return t
}

// Build cleans grid and promotes its header. ok is false when nothing is
// left after cleaning; such tables must be discarded.
func Build(page, index int, grid [][]string) (Table, bool) {
	cleaned := Clean(grid)
	if len(cleaned) == 0 {
		return Table{}, false
	}
	return PromoteHeader(page, index, cleaned), true
}
