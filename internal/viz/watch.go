package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/orrery/internal/publish"
)

const (
	width           = 80
	height          = 24
	trailLength     = 120
	historyCapacity = 300
	maxBatch        = 512
	minZoom         = 1.0 / 64
	maxZoom         = 4096
)

type TickMsg time.Time

// EventsMsg carries the events read from the feed since the last one.
type EventsMsg []publish.Event

// ClosedMsg reports that the event feed has ended.
type ClosedMsg struct{}

type Option func(*Model)

func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithStats adds a side panel showing the values returned by f on every
// redraw. A key named "energy" is also charted.
func WithStats(f func() map[string]float64) Option {
	return func(m *Model) { m.stats = f }
}

func WithTheme(name string) Option {
	return func(m *Model) { m.theme = GetTheme(name) }
}

func WithSize(w, h int) Option {
	return func(m *Model) {
		if w > 0 && h > 0 {
			m.width, m.height = w, h
		}
	}
}

type Model struct {
	events <-chan publish.Event
	stats  func() map[string]float64

	title         string
	theme         Theme
	width, height int
	canvas        *Canvas

	bodies map[string]mgl64.Vec2
	trails map[string][]mgl64.Vec2
	order  []string
	tick   uint64
	seen   int

	energy []float64
	values map[string]float64

	frozen bool
	labels bool
	zoom   float64
	closed bool
	frame  string
}

// NewModel returns a viewer reading positions from events until the
// channel is closed.
func NewModel(events <-chan publish.Event, opts ...Option) Model {
	m := Model{
		events: events,
		title:  "orrery",
		theme:  ThemeNight,
		width:  width,
		height: height,
		bodies: make(map[string]mgl64.Vec2),
		trails: make(map[string][]mgl64.Vec2),
		labels: true,
		zoom:   1,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.canvas = NewCanvas(m.width, m.height)
	m.draw()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listen(m.events), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// listen blocks for one event, then takes whatever else is already queued.
func listen(events <-chan publish.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return ClosedMsg{}
		}
		batch := EventsMsg{ev}
		for len(batch) < maxBatch {
			select {
			case ev, ok := <-events:
				if !ok {
					return batch
				}
				batch = append(batch, ev)
			default:
				return batch
			}
		}
		return batch
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.frozen = !m.frozen
		case "+", "=":
			m.zoom = math.Min(maxZoom, m.zoom*1.5)
		case "-", "_":
			m.zoom = math.Max(minZoom, m.zoom/1.5)
		case "0":
			m.zoom = 1
		case "l":
			m.labels = !m.labels
		case "t":
			m.theme = nextTheme(m.theme)
		}
		if !m.frozen {
			m.draw()
		}
	case tea.WindowSizeMsg:
		w, h := msg.Width-48, msg.Height-4
		if w >= 20 && h >= 8 {
			m.width, m.height = w, h
			m.canvas = NewCanvas(w, h)
			m.draw()
		}
	case EventsMsg:
		m.apply(msg)
		return m, listen(m.events)
	case ClosedMsg:
		m.closed = true
		m.draw()
	case TickMsg:
		if m.stats != nil {
			m.values = m.stats()
			if e, ok := m.values["energy"]; ok {
				m.energy = append(m.energy, e)
				if len(m.energy) > historyCapacity {
					m.energy = m.energy[1:]
				}
			}
		}
		if !m.frozen {
			m.draw()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) apply(events []publish.Event) {
	for _, ev := range events {
		p := mgl64.Vec2{ev.X, ev.Y}
		if _, ok := m.bodies[ev.Name]; !ok {
			m.order = append(m.order, ev.Name)
			sort.Strings(m.order)
		}
		m.bodies[ev.Name] = p

		tr := append(m.trails[ev.Name], p)
		if len(tr) > trailLength {
			tr = tr[len(tr)-trailLength:]
		}
		m.trails[ev.Name] = tr

		if ev.Tick > m.tick {
			m.tick = ev.Tick
		}
		m.seen++
	}
}

// extent is the largest coordinate magnitude among the current bodies.
func (m *Model) extent() float64 {
	ext := 0.0
	for _, p := range m.bodies {
		ext = math.Max(ext, math.Max(math.Abs(p.X()), math.Abs(p.Y())))
	}
	if ext == 0 {
		return 1
	}
	return ext * 1.1
}

// project maps world coordinates to canvas sub-pixels, y up.
func (m *Model) project(p mgl64.Vec2) (int, int) {
	cw, ch := m.width*2, m.height*4
	scale := math.Min(float64(cw), float64(ch)) / 2 / m.extent() * m.zoom
	x := float64(cw)/2 + p.X()*scale
	y := float64(ch)/2 - p.Y()*scale
	return int(math.Round(x)), int(math.Round(y))
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, name := range m.order {
		for _, p := range m.trails[name] {
			x, y := m.project(p)
			m.canvas.Set(x, y)
		}
	}
	for _, name := range m.order {
		x, y := m.project(m.bodies[name])
		m.canvas.Dot(x, y, 1)
		if m.labels {
			m.canvas.Label(x, y, name)
		}
	}
	m.frame = m.canvas.String()
}

func (m Model) View() string {
	st := m.theme.styles()

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")

	status := "LIVE"
	switch {
	case m.closed:
		status = st.alert.Render("STOPPED")
	case m.frozen:
		status = st.status.Render("FROZEN")
	default:
		status = st.status.Render(status)
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", m.tick))
	row("Bodies", fmt.Sprintf("%d", len(m.bodies)))
	row("Events", fmt.Sprintf("%d", m.seen))
	row("Zoom", fmt.Sprintf("%.3gx", m.zoom))
	row("Extent", fmt.Sprintf("%.3g m", m.extent()/m.zoom))

	if len(m.values) > 0 {
		keys := make([]string, 0, len(m.values))
		for k := range m.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.WriteString("\n")
		for _, k := range keys {
			row(k, fmt.Sprintf("%.4g", m.values[k]))
		}
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	s.WriteString(st.help.Render("SP:Freeze +/-:Zoom 0:Fit\nL:Labels T:Theme Q:Quit"))

	canvasView := st.canvas.Render(m.frame)
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))
}

// Positions returns the last known position of every body.
func (m Model) Positions() map[string]mgl64.Vec2 {
	out := make(map[string]mgl64.Vec2, len(m.bodies))
	for k, v := range m.bodies {
		out[k] = v
	}
	return out
}

// Run starts the viewer on the terminal's alternate screen and blocks
// until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
