package tables

import (
	"math"
	"sort"
	"strings"
)

// Glyph is one positioned run of text on a page, in PDF user space (origin
// bottom-left, Y grows upward).
type Glyph struct {
	X, Y     float64
	W        float64
	FontSize float64
	S        string
}

// Detector finds tables in a page's glyphs by layout alone. Gap thresholds
// are multiples of the font size of the glyphs involved.
type Detector struct {
	// RowTolerance is the maximum baseline difference, in points, for glyphs
	// to share a line.
	RowTolerance float64
	// WordGap separates words inside a cell.
	WordGap float64
	// CellGap separates cells on a line.
	CellGap float64
	// RowGap is the maximum distance between consecutive baselines of the
	// same table.
	RowGap float64
	// MinRows and MinCols bound the size of an accepted region.
	MinRows int
	MinCols int
}

// DefaultDetector returns the thresholds used for ordinary business
// documents.
func DefaultDetector() Detector {
	return Detector{
		RowTolerance: 3,
		WordGap:      0.3,
		CellGap:      1.5,
		RowGap:       2.5,
		MinRows:      2,
		MinCols:      2,
	}
}

type segment struct {
	x0, x1 float64
	text   strings.Builder
}

type line struct {
	y        float64
	fontSize float64
	segments []*segment
}

// Detect returns the raw cell grids of every tabular region, top to bottom.
func (d Detector) Detect(glyphs []Glyph) [][][]string {
	lines := d.lines(glyphs)

	var grids [][][]string
	var region []line
	flush := func() {
		if len(region) >= d.MinRows {
			if grid := d.grid(region); grid != nil {
				grids = append(grids, grid)
			}
		}
		region = nil
	}
	for _, ln := range lines {
		if len(ln.segments) < d.MinCols {
			flush()
			continue
		}
		if n := len(region); n > 0 {
			prev := region[n-1]
			if prev.y-ln.y > d.RowGap*fontSize(prev.fontSize, ln.fontSize) {
				flush()
			}
		}
		region = append(region, ln)
	}
	flush()
	return grids
}

func (d Detector) lines(glyphs []Glyph) []line {
	sorted := make([]Glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows [][]Glyph
	var top float64
	for _, g := range sorted {
		if n := len(rows); n > 0 && top-g.Y <= d.RowTolerance {
			rows[n-1] = append(rows[n-1], g)
			continue
		}
		rows = append(rows, []Glyph{g})
		top = g.Y
	}

	out := make([]line, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		ln := line{y: row[0].Y}
		var cur *segment
		for _, g := range row {
			ln.fontSize = math.Max(ln.fontSize, g.FontSize)
			if strings.TrimSpace(g.S) == "" {
				if cur != nil && !strings.HasSuffix(cur.text.String(), " ") {
					cur.text.WriteByte(' ')
				}
				continue
			}
			fs := fontSize(g.FontSize)
			if cur != nil {
				gap := g.X - cur.x1
				if gap >= d.CellGap*fs {
					cur = nil
				} else if gap > d.WordGap*fs && !strings.HasSuffix(cur.text.String(), " ") {
					cur.text.WriteByte(' ')
				}
			}
			if cur == nil {
				cur = &segment{x0: g.X, x1: g.X}
				ln.segments = append(ln.segments, cur)
			}
			cur.text.WriteString(g.S)
			cur.x1 = math.Max(cur.x1, g.X+g.W)
		}
		if len(ln.segments) > 0 {
			out = append(out, ln)
		}
	}
	return out
}

// grid assigns each segment of the region to a column. Columns are the
// horizontal spans obtained by merging overlapping segment extents.
func (d Detector) grid(region []line) [][]string {
	type span struct{ x0, x1 float64 }
	var spans []span
	var fs float64
	for _, ln := range region {
		fs = math.Max(fs, ln.fontSize)
		for _, s := range ln.segments {
			spans = append(spans, span{s.x0, s.x1})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].x0 < spans[j].x0 })

	tol := d.CellGap * fontSize(fs) / 2
	var cols []span
	for _, s := range spans {
		if n := len(cols); n > 0 && s.x0 <= cols[n-1].x1+tol {
			cols[n-1].x1 = math.Max(cols[n-1].x1, s.x1)
			continue
		}
		cols = append(cols, s)
	}
	if len(cols) < d.MinCols {
		return nil
	}

	grid := make([][]string, len(region))
	for r, ln := range region {
		grid[r] = make([]string, len(cols))
		for _, s := range ln.segments {
			c := sort.Search(len(cols), func(i int) bool { return cols[i].x1+tol >= s.x0 })
			if c == len(cols) {
				c = len(cols) - 1
			}
			text := strings.TrimSpace(s.text.String())
			if grid[r][c] != "" {
				text = grid[r][c] + " " + text
			}
			grid[r][c] = text
		}
	}
	return grid
}

func fontSize(sizes ...float64) float64 {
	fs := 0.0
	for _, s := range sizes {
		fs = math.Max(fs, s)
	}
	if fs <= 0 {
		return 10
	}
	return fs
}
