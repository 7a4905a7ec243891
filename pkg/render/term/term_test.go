package term

import (
	"context"
	"image/color"
	"strings"
	"testing"

	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/geom"
)

func TestStrokeRoundedRect(t *testing.T) {
	s := New(6, 4, geom.V(10, 20))
	s.StrokeRoundedRect(geom.Rect{Max: geom.V(60, 80)}, 0, 1, color.White)

	want := strings.Join([]string{
		"╭────╮",
		"│    │",
		"│    │",
		"╰────╯",
	}, "\n")
	if got := s.Plain(); got != want {
		t.Errorf("Plain() =\n%s\nwant\n%s", got, want)
	}
}

func TestDrawTextClipsAtEdge(t *testing.T) {
	s := New(4, 1, geom.Vec2{})
	s.DrawText(geom.V(15, 5), "hello", 12, color.White)
	if got := s.Plain(); got != " hel" {
		t.Errorf("Plain() = %q, want %q", got, " hel")
	}
}

func TestOffscreenPrimitivesAreSafe(t *testing.T) {
	s := New(4, 2, geom.Vec2{})
	s.FillRoundedRect(geom.Rect{Min: geom.V(-100, -100), Max: geom.V(-50, -50)}, 0, color.White)
	s.StrokeRoundedRect(geom.Rect{Min: geom.V(1000, 1000), Max: geom.V(2000, 2000)}, 0, 1, color.White)
	s.StrokeCubic(geom.V(-500, 0), geom.V(0, 0), geom.V(0, 0), geom.V(500, 0), 1, color.White)
	s.FillCircle(geom.V(-300, -300), 50, color.White)
	s.StrokeCircle(geom.V(-300, -300), 50, 1, color.White)
	if s.Rune(0, 0) != '·' {
		t.Errorf("curve crossing row 0 should be plotted, got %q", s.Rune(0, 0))
	}
	if s.Rune(9, 9) != 0 {
		t.Error("Rune outside the grid should be 0")
	}
}

func TestFillCircleSmall(t *testing.T) {
	s := New(3, 3, geom.Vec2{})
	s.FillCircle(s.CellCenter(1, 1).Add(geom.V(2, 2)), 1, color.White)
	if s.Rune(1, 1) != '•' {
		t.Errorf("tiny circle should plot a dot, got %q", s.Rune(1, 1))
	}
}

func TestRenderDemo(t *testing.T) {
	st := canvas.Demo(canvas.Options{})
	surf := New(120, 40, geom.Vec2{})

	d := frame.New(st, frame.Config{Render: frame.RenderOptions{Theme: Theme(geom.Vec2{})}})
	d.SetPaused(true)
	rep := d.Frame(context.Background(), surf.Bounds(), surf)
	if rep.Render.Nodes != 4 {
		t.Fatalf("drew %d nodes, want 4", rep.Render.Nodes)
	}

	plain := surf.Plain()
	for _, want := range []string{"Concept", "Research", "Visual", "Export", "Status: Ready"} {
		if !strings.Contains(plain, want) {
			t.Errorf("terminal output missing %q", want)
		}
	}
	if surf.String() == "" {
		t.Error("String() is empty")
	}
}

func TestTheme(t *testing.T) {
	th := Theme(geom.V(10, 20))
	if th.TitleSize*1.6 < 20 || th.BodySize*1.4 < 20 {
		t.Errorf("line advance below one row: title %v body %v", th.TitleSize*1.6, th.BodySize*1.4)
	}
}
