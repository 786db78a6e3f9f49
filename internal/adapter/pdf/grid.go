package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// glyph is one positioned run of text on the page. PDF y grows upward.
type glyph struct {
	X, Y, W float64
	S       string
}

// GridOptions tunes how glyphs are grouped into lines, cells and columns.
// Distances are in PDF points.
type GridOptions struct {
	LineTolerance   float64 // max y drift within one line
	WordGap         float64 // gaps wider than this become a space
	CellGap         float64 // gaps wider than this start a new cell
	ColumnTolerance float64 // slack when matching a cell to a header column
}

// DefaultGridOptions suits the 10-12pt table fonts used by the report.
var DefaultGridOptions = GridOptions{
	LineTolerance:   2.5,
	WordGap:         1.5,
	CellGap:         8,
	ColumnTolerance: 4,
}

type cell struct {
	x0, x1 float64
	text   string
}

type line struct {
	y      float64
	glyphs []glyph
}

// buildTable arranges glyphs into a row grid. The first line with at least
// two cells is the header and fixes the column boundaries; anything above it
// (titles, logos) is dropped. Each later line becomes one row with exactly
// as many cells as the header.
func buildTable(glyphs []glyph, opts GridOptions) domain.Table {
	lines := groupLines(glyphs, opts.LineTolerance)

	var (
		columns []float64
		table   domain.Table
	)
	for _, ln := range lines {
		cells := splitCells(ln.glyphs, opts)
		if len(cells) == 0 {
			continue
		}
		if columns == nil {
			if len(cells) < 2 {
				continue
			}
			header := make(domain.RawRow, len(cells))
			for i, c := range cells {
				columns = append(columns, c.x0)
				header[i] = c.text
			}
			table = append(table, header)
			continue
		}
		table = append(table, placeCells(cells, columns, opts.ColumnTolerance))
	}
	return table
}

// groupLines buckets glyphs by baseline, top of page first.
func groupLines(glyphs []glyph, tolerance float64) []line {
	sorted := make([]glyph, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" && g.S != " " {
			continue
		}
		sorted = append(sorted, g)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines []line
	for _, g := range sorted {
		if n := len(lines); n > 0 && math.Abs(lines[n-1].y-g.Y) <= tolerance {
			lines[n-1].glyphs = append(lines[n-1].glyphs, g)
			continue
		}
		lines = append(lines, line{y: g.Y, glyphs: []glyph{g}})
	}
	for i := range lines {
		gs := lines[i].glyphs
		sort.SliceStable(gs, func(a, b int) bool { return gs[a].X < gs[b].X })
	}
	return lines
}

// splitCells merges a line's glyphs into cells separated by wide gaps.
func splitCells(glyphs []glyph, opts GridOptions) []cell {
	var (
		cells []cell
		sb    strings.Builder
		cur   *cell
		prevR float64
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.text = strings.Join(strings.Fields(sb.String()), " ")
		if cur.text != "" {
			cells = append(cells, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, g := range glyphs {
		gap := g.X - prevR
		switch {
		case cur == nil:
			cur = &cell{x0: g.X}
		case gap > opts.CellGap:
			flush()
			cur = &cell{x0: g.X}
		case gap > opts.WordGap:
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		prevR = g.X + g.W
		cur.x1 = prevR
	}
	flush()
	return cells
}

// placeCells assigns each cell to the right-most column starting at or
// before it. Cells sharing a column are joined with a space.
func placeCells(cells []cell, columns []float64, tolerance float64) domain.RawRow {
	row := make(domain.RawRow, len(columns))
	for _, c := range cells {
		col := 0
		for i, x := range columns {
			if x <= c.x0+tolerance {
				col = i
			}
		}
		if row[col] == "" {
			row[col] = c.text
		} else {
			row[col] += " " + c.text
		}
	}
	return row
}
