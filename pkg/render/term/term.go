// Package term implements a frame.Surface on a grid of terminal cells and
// renders it as a styled string with lipgloss.
//
// Screen coordinates are virtual pixels: each cell covers CellSize of them,
// so the canvas math is the same as on a raster surface. Text is drawn at
// one cell per rune whatever size is requested.
package term

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/geom"
)

// DefaultCellSize is the number of virtual pixels one cell covers. Terminal
// cells are roughly twice as tall as wide.
var DefaultCellSize = geom.V(10, 20)

type cell struct {
	r      rune
	fg, bg string // "#rrggbb" or empty for the terminal default
}

// Surface is a cols×rows grid of cells.
type Surface struct {
	cols, rows int
	cellSize   geom.Vec2
	cells      []cell
	bg         string
}

var _ frame.Surface = (*Surface)(nil)

// New creates a blank surface. A zero cellSize selects DefaultCellSize.
func New(cols, rows int, cellSize geom.Vec2) *Surface {
	if cellSize.X <= 0 || cellSize.Y <= 0 {
		cellSize = DefaultCellSize
	}
	s := &Surface{
		cols:     max(cols, 0),
		rows:     max(rows, 0),
		cellSize: cellSize,
		bg:       hex(frame.DefaultTheme().Background),
	}
	s.cells = make([]cell, s.cols*s.rows)
	s.Clear()
	return s
}

// Bounds returns the surface in virtual pixels.
func (s *Surface) Bounds() geom.Rect {
	return geom.Rect{Max: geom.V(float64(s.cols)*s.cellSize.X, float64(s.rows)*s.cellSize.Y)}
}

// CellCenter returns the virtual pixel at the center of cell (col, row).
// Mouse events arrive as cells and go through this.
func (s *Surface) CellCenter(col, row int) geom.Vec2 {
	return geom.V((float64(col)+0.5)*s.cellSize.X, (float64(row)+0.5)*s.cellSize.Y)
}

// TextWidth is one cell per rune.
func (s *Surface) TextWidth(text string, _ float64) float64 {
	return float64(len([]rune(text))) * s.cellSize.X
}

// Theme returns the default theme with metrics snapped to the cell grid:
// one cell of padding and one row per line of text.
func Theme(cellSize geom.Vec2) frame.Theme {
	if cellSize.X <= 0 || cellSize.Y <= 0 {
		cellSize = DefaultCellSize
	}
	t := frame.DefaultTheme()
	t.Margin = max(cellSize.X, cellSize.Y)
	// Slightly over a row so accumulated line offsets never round down.
	t.TitleSize = cellSize.Y/1.6 + 0.01
	t.BodySize = cellSize.Y/1.4 + 0.01
	return t
}

// Clear resets every cell to a blank on the background color.
func (s *Surface) Clear() {
	for i := range s.cells {
		s.cells[i] = cell{r: ' ', bg: s.bg}
	}
}

// Rune returns the rune at (col, row), or 0 outside the grid.
func (s *Surface) Rune(col, row int) rune {
	if c := s.at(col, row); c != nil {
		return c.r
	}
	return 0
}

func (s *Surface) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return nil
	}
	return &s.cells[row*s.cols+col]
}

func (s *Surface) toCell(p geom.Vec2) (int, int) {
	return int(math.Floor(p.X / s.cellSize.X)), int(math.Floor(p.Y / s.cellSize.Y))
}

// cellRect returns the inclusive cell range covered by r.
func (s *Surface) cellRect(r geom.Rect) (c0, r0, c1, r1 int) {
	c0, r0 = s.toCell(r.Min)
	c1, r1 = s.toCell(r.Max.Sub(geom.V(1e-9, 1e-9)))
	return max(c0, 0), max(r0, 0), min(c1, s.cols-1), min(r1, s.rows-1)
}

func (s *Surface) plot(p geom.Vec2, r rune, fg color.Color) {
	if c := s.at(s.toCell(p)); c != nil {
		c.r = r
		c.fg = hex(fg)
	}
}

func (s *Surface) FillRoundedRect(r geom.Rect, _ float64, fill color.Color) {
	c0, r0, c1, r1 := s.cellRect(r)
	bg := hex(fill)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			s.cells[row*s.cols+col] = cell{r: ' ', bg: bg}
		}
	}
}

func (s *Surface) StrokeRoundedRect(r geom.Rect, _, _ float64, stroke color.Color) {
	fc0, fr0 := s.toCell(r.Min)
	fc1, fr1 := s.toCell(r.Max.Sub(geom.V(1e-9, 1e-9)))
	fg := hex(stroke)
	set := func(col, row int, ch rune) {
		if c := s.at(col, row); c != nil {
			c.r, c.fg = ch, fg
		}
	}
	if fc0 == fc1 || fr0 == fr1 {
		for row := fr0; row <= fr1; row++ {
			for col := fc0; col <= fc1; col++ {
				set(col, row, '▪')
			}
		}
		return
	}
	for col := fc0 + 1; col < fc1; col++ {
		set(col, fr0, '─')
		set(col, fr1, '─')
	}
	for row := fr0 + 1; row < fr1; row++ {
		set(fc0, row, '│')
		set(fc1, row, '│')
	}
	set(fc0, fr0, '╭')
	set(fc1, fr0, '╮')
	set(fc0, fr1, '╰')
	set(fc1, fr1, '╯')
}

func (s *Surface) StrokeCubic(p0, p1, p2, p3 geom.Vec2, _ float64, stroke color.Color) {
	span := p0.Sub(p1).Len() + p1.Sub(p2).Len() + p2.Sub(p3).Len()
	steps := int(math.Ceil(span / math.Min(s.cellSize.X, s.cellSize.Y) * 2))
	steps = min(max(steps, 2), 4096)
	for i := 0; i <= steps; i++ {
		p := geom.Bezier(p0, p1, p2, p3, float64(i)/float64(steps))
		if c := s.at(s.toCell(p)); c != nil && c.r == ' ' {
			c.r = '·'
			c.fg = hex(stroke)
		}
	}
}

func (s *Surface) FillCircle(center geom.Vec2, radius float64, fill color.Color) {
	r := geom.RectFromCenterSize(center, geom.V(2*radius, 2*radius))
	c0, r0, c1, r1 := s.cellRect(r)
	hit := false
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if s.CellCenter(col, row).Sub(center).Len() <= radius {
				s.cells[row*s.cols+col] = cell{r: ' ', bg: hex(fill)}
				hit = true
			}
		}
	}
	if !hit {
		s.plot(center, '•', fill)
	}
}

func (s *Surface) StrokeCircle(center geom.Vec2, radius, _ float64, stroke color.Color) {
	steps := max(int(2*math.Pi*radius/s.cellSize.X), 8)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		s.plot(center.Add(geom.V(math.Cos(a)*radius, math.Sin(a)*radius)), '∘', stroke)
	}
}

// DrawText writes text into the cell containing pos and those to its right,
// clipped at the grid edge. The background of each cell is kept.
func (s *Surface) DrawText(pos geom.Vec2, text string, _ float64, c color.Color) {
	col, row := s.toCell(pos)
	fg := hex(c)
	for _, r := range text {
		if cl := s.at(col, row); cl != nil {
			cl.r, cl.fg = r, fg
		}
		col++
	}
}

// String renders the grid, one line per row, merging runs of equal style.
func (s *Surface) String() string {
	var b strings.Builder
	for row := range s.rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := s.cells[row*s.cols : (row+1)*s.cols]
		for i := 0; i < len(line); {
			j := i
			var run strings.Builder
			for j < len(line) && line[j].fg == line[i].fg && line[j].bg == line[i].bg {
				run.WriteRune(line[j].r)
				j++
			}
			b.WriteString(style(line[i]).Render(run.String()))
			i = j
		}
	}
	return b.String()
}

// Plain returns the grid without styling. Tests and logs use it.
func (s *Surface) Plain() string {
	var b strings.Builder
	for row := range s.rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		for _, c := range s.cells[row*s.cols : (row+1)*s.cols] {
			b.WriteRune(c.r)
		}
	}
	return b.String()
}

func style(c cell) lipgloss.Style {
	st := lipgloss.NewStyle()
	if c.fg != "" {
		st = st.Foreground(lipgloss.Color(c.fg))
	}
	if c.bg != "" {
		st = st.Background(lipgloss.Color(c.bg))
	}
	return st
}

func hex(c color.Color) string {
	if c == nil {
		return ""
	}
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
