package cli

import (
	"cmp"
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/force"
	"github.com/matzehuels/contribnet/pkg/graph"
	"github.com/matzehuels/contribnet/pkg/viewer"
)

const (
	// exploreTick is the simulation tick period of the terminal viewer.
	exploreTick = 50 * time.Millisecond
	// sidebarWidth is the width of the legend and info column.
	sidebarWidth = 34
	// zoomStep is the factor applied by one zoom key press.
	zoomStep = 1.25
	// moveCells is how many canvas cells one arrow press moves.
	moveCells = 2
)

// exploreCommand creates the explore command running the terminal viewer.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "explore [dataset...]",
		Short: "Explore a dataset in the terminal",
		Long: `Explore a dataset in the terminal.

Runs the same viewer as 'serve' and draws its frames on a character canvas.
The simulation keeps running while you filter, drag and zoom.

Keys:
  tab / shift+tab   select next / previous node
  enter             pin the selected node's info and centre on it
  f                 focus the selected topic
  d                 start / stop dragging the selected node
  ←↑↓→              pan, or move the dragged node
  + / -             zoom in / out
  [ / ]  space      move in the legend, toggle the entry
  x                 clear the topic filter
  l                 toggle labels
  r                 reset the layout
  esc               close the info panel
  q                 quit`,
		ValidArgsFunction: datasetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd.Context(), c.datasetArgs(args), noCache)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, dataset []string, noCache bool) error {
	if len(dataset) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no dataset given and none configured")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := c.pipelineDefaults()
	opts.Dataset = dataset

	// The TUI owns the terminal, so the viewer must not log to it.
	vopts := c.viewerOptions()
	vopts.Logger = nil

	var v *viewer.Viewer
	loaded, err := runner.Load(ctx, opts)
	if err != nil {
		c.Logger.Error("load failed", "err", err)
		v = viewer.NewFailed(err, vopts)
	} else {
		v = viewer.New(loaded.Graph, vopts)
	}
	defer v.Close()

	p := tea.NewProgram(newExploreModel(v, datasetName(dataset), exploreTick), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

// tickMsg drives the simulation.
type tickMsg time.Time

// legendItem is one toggleable entry of the sidebar legend.
type legendItem struct {
	kind   string // "source", "category" or "topic"
	value  string
	label  string
	active bool
}

// exploreModel is the bubbletea model of the terminal viewer. It is the only
// owner of the viewer; every action and tick goes through Update.
type exploreModel struct {
	v        *viewer.Viewer
	frame    viewer.Frame
	title    string
	interval time.Duration

	width, height int
	cols, rows    int

	selected string
	legend   int
	dragging bool
	status   string
}

func newExploreModel(v *viewer.Viewer, title string, interval time.Duration) exploreModel {
	return exploreModel{
		v:        v,
		frame:    v.Frame(),
		title:    title,
		interval: interval,
		cols:     80,
		rows:     24,
	}
}

func (m exploreModel) Init() tea.Cmd {
	return m.tick()
}

func (m exploreModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.cols = max(msg.Width-sidebarWidth-1, 10)
		m.rows = max(msg.Height-3, 5)
		return m, nil
	case tickMsg:
		if m.v.Tick(time.Time(msg)) {
			m.frame = m.v.Frame()
		}
		return m, m.tick()
	case tea.KeyMsg:
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			return m, tea.Quit
		}
		m.dispatch(m.keyActions(msg.String())...)
	}
	return m, nil
}

// dispatch applies actions in order and stops at the first rejection, which
// is shown in the status line.
func (m *exploreModel) dispatch(actions ...viewer.Action) {
	if len(actions) == 0 {
		return
	}
	m.status = ""
	for _, a := range actions {
		if err := m.v.Update(a); err != nil {
			m.status = errors.UserMessage(err)
			break
		}
	}
	m.frame = m.v.Frame()
	if m.dragging && m.v.Dragging() == "" {
		m.dragging = false
	}
	if _, ok := m.frame.Node(m.selected); !ok {
		m.selected = ""
	}
}

// keyActions translates a key press into viewer actions. Keys that only move
// a cursor update the model and return the matching hover action.
func (m *exploreModel) keyActions(key string) []viewer.Action {
	switch key {
	case "tab":
		return m.cycle(1)
	case "shift+tab":
		return m.cycle(-1)
	case "enter":
		if m.selected != "" {
			return []viewer.Action{viewer.ClickNode{Node: m.selected}}
		}
	case "f":
		if n, ok := m.frame.Node(m.selected); ok && n.Kind == graph.KindTopic {
			return []viewer.Action{viewer.SelectTopic{Topic: n.ID}}
		}
		m.status = "select a topic to focus"
	case "d":
		if m.dragging {
			m.dragging = false
			return []viewer.Action{viewer.DragEnd{}}
		}
		if m.selected != "" {
			m.dragging = true
			return []viewer.Action{viewer.DragStart{Node: m.selected}}
		}
	case "left":
		return m.move(-moveCells, 0)
	case "right":
		return m.move(moveCells, 0)
	case "up":
		return m.move(0, -1)
	case "down":
		return m.move(0, 1)
	case "+", "=":
		return []viewer.Action{m.zoom(zoomStep)}
	case "-":
		return []viewer.Action{m.zoom(1 / zoomStep)}
	case "[":
		m.legend = max(m.legend-1, 0)
	case "]":
		m.legend = min(m.legend+1, max(len(m.legendItems())-1, 0))
	case " ", "space":
		return m.toggleLegend()
	case "x":
		return []viewer.Action{viewer.SetTopicFilter{}}
	case "l":
		return []viewer.Action{viewer.ToggleLabels{}}
	case "r":
		return []viewer.Action{viewer.ResetLayout{}}
	case "esc":
		if m.dragging {
			m.dragging = false
			return []viewer.Action{viewer.DragEnd{}}
		}
		return []viewer.Action{viewer.CloseInfo{}, viewer.Leave{}}
	}
	return nil
}

// nodeOrder lists visible node ids, topics first, each kind by name.
func (m *exploreModel) nodeOrder() []string {
	nodes := slices.Clone(m.frame.Nodes)
	slices.SortFunc(nodes, func(a, b viewer.FrameNode) int {
		return cmp.Or(cmp.Compare(b.Kind, a.Kind), cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// cycle moves the selection by step and hovers the new node.
func (m *exploreModel) cycle(step int) []viewer.Action {
	ids := m.nodeOrder()
	if len(ids) == 0 || m.dragging {
		return nil
	}
	i := slices.Index(ids, m.selected)
	switch {
	case i < 0 && step < 0:
		i = len(ids) - 1
	case i < 0:
		i = 0
	default:
		i = (i + step + len(ids)) % len(ids)
	}
	m.selected = ids[i]
	return []viewer.Action{viewer.HoverNode{Node: m.selected}}
}

// move pans the view by whole cells, or moves the dragged node.
func (m *exploreModel) move(dc, dr int) []viewer.Action {
	dx, dy := m.cellSize()
	dx *= float64(dc)
	dy *= float64(dr)
	if !m.dragging {
		return []viewer.Action{viewer.Pan{DX: -dx, DY: -dy}}
	}
	n, ok := m.frame.Node(m.selected)
	if !ok {
		return nil
	}
	p := m.frame.Transform.Apply(force.Point{X: n.X, Y: n.Y})
	return []viewer.Action{viewer.DragMove{X: p.X + dx, Y: p.Y + dy}}
}

// zoom scales around the centre of the canvas.
func (m *exploreModel) zoom(factor float64) viewer.Action {
	return viewer.Zoom{Factor: factor, X: m.frame.Width / 2, Y: m.frame.Height / 2}
}

// cellSize returns the screen size of one canvas cell.
func (m *exploreModel) cellSize() (float64, float64) {
	return m.frame.Width / float64(m.cols), m.frame.Height / float64(m.rows)
}

func (m *exploreModel) legendItems() []legendItem {
	l := m.frame.Legend
	var items []legendItem
	for _, e := range l.Sources {
		items = append(items, legendItem{"source", e.Value, fmt.Sprintf("%s (%d)", e.Value, e.Count), e.Active})
	}
	for _, e := range l.Categories {
		items = append(items, legendItem{"category", e.Value, fmt.Sprintf("%s (%d)", e.Value, e.Count), e.Active})
	}
	for _, t := range l.Topics {
		items = append(items, legendItem{"topic", t.ID, t.Name, t.Active})
	}
	return items
}

func (m *exploreModel) toggleLegend() []viewer.Action {
	items := m.legendItems()
	if m.legend >= len(items) {
		return nil
	}
	it := items[m.legend]
	switch it.kind {
	case "source":
		return []viewer.Action{viewer.ToggleSource{Source: it.value}}
	case "category":
		return []viewer.Action{viewer.ToggleCategory{Category: it.value}}
	}
	if it.active {
		return []viewer.Action{viewer.SetTopicFilter{}}
	}
	return []viewer.Action{viewer.SetTopicFilter{Topic: it.value}}
}

// =============================================================================
// View
// =============================================================================

var (
	stylePanel     = lipgloss.NewStyle().Width(sidebarWidth).PaddingLeft(1).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(colorDim)
	styleErrorBox  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorRed).Foreground(colorRed).Padding(1, 2)
	styleLegendCur = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

func (m exploreModel) View() string {
	var b strings.Builder

	s := m.frame.Stats
	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d people · %d topics · %d links  zoom %.2f",
		s.Contributors, s.Topics, s.Connections, m.frame.Transform.K)))
	if m.frame.Active {
		b.WriteString(StyleDim.Render(fmt.Sprintf("  α %.3f", m.frame.Alpha)))
	}
	b.WriteString("\n")

	var main string
	if m.frame.Failed() {
		main = lipgloss.Place(m.cols, m.rows, lipgloss.Center, lipgloss.Center, styleErrorBox.Render(m.frame.Error))
	} else {
		main = drawFrame(m.frame, m.cols, m.rows, m.selected)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, main, stylePanel.Height(m.rows).Render(m.sidebar())))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(StyleWarning.Render(m.status))
	} else {
		b.WriteString(StyleDim.Render("tab select  ⏎ pin  d drag  ←↑↓→ pan  +/- zoom  [ ] space filter  l labels  r reset  q quit"))
	}
	return b.String()
}

func (m exploreModel) sidebar() string {
	var b strings.Builder

	kind := ""
	for i, it := range m.legendItems() {
		if it.kind != kind {
			if kind != "" {
				b.WriteString("\n")
			}
			kind = it.kind
			b.WriteString(styleHeader.Render(strings.ToUpper(kind[:1])+kind[1:]+"s") + "\n")
		}
		box := "[ ]"
		if it.active {
			box = "[x]"
		}
		line := box + " " + truncate(it.label, sidebarWidth-6)
		switch {
		case i == m.legend:
			line = styleLegendCur.Render("▸" + line)
		case it.active:
			line = " " + StyleValue.Render(line)
		default:
			line = " " + StyleDim.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if info := m.frame.Info; info != nil {
		b.WriteString("\n")
		b.WriteString(infoPanel(info))
	}
	return b.String()
}

// infoPanel renders the viewer's info panel as plain lines.
func infoPanel(info *viewer.Info) string {
	var b strings.Builder
	title := info.Name
	if info.Pinned {
		title += " " + StyleDim.Render("(pinned)")
	}
	b.WriteString(StyleHighlight.Render(title) + "\n")

	line := func(key, value string) {
		if value != "" {
			b.WriteString(StyleDim.Render(key+": ") + truncate(value, sidebarWidth-len(key)-4) + "\n")
		}
	}
	line("affiliation", info.Affiliation)
	line("contact", info.Contact)
	line("source", info.Source)
	line("categories", strings.Join(info.Categories, ", "))
	line("paper", info.Format.Paper)
	line("web", info.Format.Web)
	for _, t := range info.Topics {
		b.WriteString("  " + StyleValue.Render(truncate(t, sidebarWidth-4)) + "\n")
	}
	for _, p := range info.Persons {
		b.WriteString("  " + StyleValue.Render(truncate(p.Name, sidebarWidth-4)) + "\n")
	}
	for _, name := range info.Members {
		b.WriteString("  " + StyleValue.Render(truncate(name, sidebarWidth-4)) + "\n")
	}
	return b.String()
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
