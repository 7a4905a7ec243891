package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/storyboard/internal/server"
	"github.com/matzehuels/storyboard/pkg/canvas"
	"github.com/matzehuels/storyboard/pkg/canvas/frame"
	"github.com/matzehuels/storyboard/pkg/canvas/interact"
	"github.com/matzehuels/storyboard/pkg/dispatch"
	"github.com/matzehuels/storyboard/pkg/geom"
	"github.com/matzehuels/storyboard/pkg/render/term"
)

// frameInterval paces the canvas at roughly 30 frames per second.
const frameInterval = 33 * time.Millisecond

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	grid    int
	offline bool
	serve   bool
}

// runCommand creates the run command, the interactive canvas.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open the interactive canvas in the terminal",
		Long: `Run opens the node canvas in the terminal. Drag the background to pan,
drag a node to move it, scroll to zoom.

Keys:
  1-4      add a concept, research, visual or export node at the pointer
  enter    run the selected node's operation
  e        edit the selected node's text
  l        link from the selected node (click the target, esc cancels)
  d        delete the selected node
  p        pause physics
  s        switch between cards and circles
  f        fit all nodes on screen
  q        quit

Logs go to the rotating file set in the config ([log] file).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCanvas(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.grid, "grid", 0, "open a generated grid of N nodes instead of the demo")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use mock results for every operation")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "also serve the HTTP API on the configured address")

	return cmd
}

func (c *CLI) runCanvas(ctx context.Context, opts runOpts) error {
	cfg := c.settings()
	logger, closer, err := newFileLogger(cfg, min(c.Logger.GetLevel(), parseLevel(cfg.Log.Level)))
	if err != nil {
		return err
	}
	defer closer.Close()
	ctx = withLogger(ctx, logger)
	c.Logger = logger

	backend, cleanup, err := c.newBackend(ctx, opts.offline)
	if err != nil {
		return err
	}
	defer cleanup()

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	theme := term.Theme(term.DefaultCellSize)
	d := frame.New(c.newState(opts.grid), c.frameConfig(theme))
	m := newCanvasModel(gctx, d)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(gctx))

	disp := dispatch.New(backend, d.Inbox,
		dispatch.WithMaxInFlight(cfg.Dispatch.MaxInFlight),
		dispatch.WithTimeout(cfg.Dispatch.Timeout),
		dispatch.WithLogger(logger),
		dispatch.WithNotify(func() { p.Send(resultMsg{}) }),
	)
	d.SetDispatcher(disp)
	m.inflight = func() int { return len(disp.InFlight()) }

	if opts.serve {
		svc, svcCleanup, err := c.newService(ctx, opts.offline)
		if err != nil {
			return err
		}
		defer svcCleanup()
		srv := server.New(svc, server.WithLogger(logger), server.WithAllowedOrigins(cfg.Server.AllowedOrigins...))
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })
	}
	g.Go(func() error {
		// Quitting the canvas stops the server too.
		defer cancel()
		_, err := p.Run()
		return err
	})

	err = g.Wait()
	disp.Wait()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = parent.Err()
	}
	return err
}

// =============================================================================
// Canvas Model
// =============================================================================

type (
	tickMsg   time.Time
	resultMsg struct{}
)

var (
	statusBarStyle  = lipgloss.NewStyle().Foreground(colorGray).Background(lipgloss.Color("236"))
	statusModeStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Background(lipgloss.Color("236"))
	statusNoteStyle = lipgloss.NewStyle().Foreground(colorYellow).Background(lipgloss.Color("236"))
)

// canvasModel is the bubbletea model of the run command. It owns the
// driver; every canvas mutation happens inside Update.
type canvasModel struct {
	ctx      context.Context
	driver   *frame.Driver
	surf     *term.Surface
	cellSize geom.Vec2
	style    frame.Style
	inflight func() int

	note    string
	editing canvas.NodeID
	buffer  []rune
	last    frame.Report
}

func newCanvasModel(ctx context.Context, d *frame.Driver) *canvasModel {
	return &canvasModel{
		ctx:      ctx,
		driver:   d,
		surf:     term.New(80, 23, term.DefaultCellSize),
		cellSize: term.DefaultCellSize,
		inflight: func() int { return 0 },
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *canvasModel) Init() tea.Cmd {
	return tick()
}

func (m *canvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frame()
		return m, tick()
	case resultMsg:
		m.frame()
	case tea.WindowSizeMsg:
		// Leave the last row for the status bar.
		m.surf = term.New(msg.Width, max(msg.Height-1, 1), m.cellSize)
	case tea.MouseMsg:
		m.mouse(msg)
	case tea.KeyMsg:
		if m.editing != canvas.NoNode {
			m.editKey(msg)
			return m, nil
		}
		return m, m.key(msg)
	}
	return m, nil
}

// frame runs one driver cycle and keeps the last link rejection as a note.
func (m *canvasModel) frame() {
	m.surf.Clear()
	m.last = m.driver.Frame(m.ctx, m.surf.Bounds(), m.surf)
	for _, eff := range m.last.Effects {
		if eff.Rejected != nil {
			m.note = eff.Rejected.Error()
		}
	}
	if m.editing != canvas.NoNode && !m.driver.State.Has(m.editing) {
		m.stopEdit()
	}
}

func (m *canvasModel) mouse(msg tea.MouseMsg) {
	pos := m.surf.CellCenter(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.driver.Post(interact.Scroll{Pos: pos, Delta: 1})
	case msg.Button == tea.MouseButtonWheelDown:
		m.driver.Post(interact.Scroll{Pos: pos, Delta: -1})
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.driver.Post(interact.PointerDown{Pos: pos})
	case msg.Action == tea.MouseActionMotion:
		m.driver.Post(interact.PointerMove{Pos: pos})
	case msg.Action == tea.MouseActionRelease:
		m.driver.Post(interact.PointerUp{Pos: pos})
	}
}

var addKeys = map[string]canvas.Kind{
	"1": canvas.KindConcept,
	"2": canvas.KindResearch,
	"3": canvas.KindVisual,
	"4": canvas.KindExport,
}

func (m *canvasModel) key(msg tea.KeyMsg) tea.Cmd {
	d := m.driver
	m.note = ""
	switch k := msg.String(); k {
	case "q", "ctrl+c":
		return tea.Quit
	case "1", "2", "3", "4":
		id := d.AddAt(m.surf.Bounds(), d.Input.Pointer(), addKeys[k])
		d.State.Select(id)
	case "enter":
		if err := d.TriggerSelected(m.ctx); err != nil {
			m.note = err.Error()
		}
	case "l":
		if err := d.LinkFromSelected(); err != nil {
			m.note = err.Error()
		}
	case "esc":
		d.Input.CancelLink(d.State)
	case "d", "delete":
		d.DeleteSelected()
	case "p":
		d.SetPaused(!d.Paused())
	case "s":
		if m.style == frame.Cards {
			m.style = frame.Circles
		} else {
			m.style = frame.Cards
		}
		d.SetStyle(m.style)
	case "f":
		d.State.Fit(m.surf.Bounds(), 2*m.cellSize.Y)
	case "e":
		m.startEdit()
	}
	return nil
}

// =============================================================================
// Text Editing
// =============================================================================

// editableText returns a pointer to the user-editable text of c.
func editableText(c canvas.Content) (*string, bool) {
	switch c := c.(type) {
	case *canvas.Concept:
		return &c.Text, true
	case *canvas.Research:
		return &c.Query, true
	case *canvas.Visual:
		return &c.Prompt, true
	}
	return nil, false
}

func (m *canvasModel) startEdit() {
	id, ok := m.driver.State.Selected()
	if !ok {
		m.note = "no node selected"
		return
	}
	n, _ := m.driver.State.Node(id)
	text, ok := editableText(n.Content)
	if !ok {
		m.note = n.Content.Title() + " has no text to edit"
		return
	}
	m.editing = id
	m.buffer = []rune(*text)
}

func (m *canvasModel) stopEdit() {
	m.editing = canvas.NoNode
	m.buffer = nil
}

func (m *canvasModel) editKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.stopEdit()
	case tea.KeyEnter:
		if n, ok := m.driver.State.Node(m.editing); ok {
			if text, ok := editableText(n.Content); ok {
				*text = strings.TrimSpace(string(m.buffer))
			}
		}
		m.stopEdit()
	case tea.KeyBackspace:
		if len(m.buffer) > 0 {
			m.buffer = m.buffer[:len(m.buffer)-1]
		}
	case tea.KeySpace:
		m.buffer = append(m.buffer, ' ')
	case tea.KeyRunes:
		m.buffer = append(m.buffer, msg.Runes...)
	}
}

// =============================================================================
// View
// =============================================================================

func (m *canvasModel) View() string {
	return m.surf.String() + "\n" + m.statusBar()
}

func (m *canvasModel) statusBar() string {
	d := m.driver
	if m.editing != canvas.NoNode {
		return statusModeStyle.Render(" EDIT ") + statusBarStyle.Render(" "+string(m.buffer)+"▏ enter saves, esc cancels ")
	}

	mode := d.Input.Mode(d.State).String()
	if d.Paused() {
		mode += " (paused)"
	}
	parts := []string{
		fmt.Sprintf("%d nodes", d.State.NodeCount()),
		fmt.Sprintf("%d edges", d.State.EdgeCount()),
		fmt.Sprintf("zoom %.2f", d.State.Camera.Zoom),
		fmt.Sprintf("%.0f fps", d.Stats().FPS()),
	}
	if n := m.inflight(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d running", n))
	}
	bar := statusModeStyle.Render(" "+strings.ToUpper(mode)+" ") + statusBarStyle.Render(" "+strings.Join(parts, " · ")+" ")
	if m.note != "" {
		bar += statusNoteStyle.Render(" " + m.note + " ")
	}
	return bar
}
