package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"halfbyte/internal/driver"
)

// statusColumn is wide enough for the longest label, "compiling".
const statusColumn = 10

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	labelStyles = map[string]lipgloss.Style{
		"done":      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"cached":    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		"loading":   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"compiling": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"writing":   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
	// share of a file's bar credited once it reaches a stage
	stageShare = map[driver.Stage]float64{
		driver.StageLoad:    0.1,
		driver.StageCompile: 0.4,
		driver.StageWrite:   0.9,
	}
)

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model
	items   []fileItem
	byPath  map[string]*fileItem
	width   int
	done    bool
}

type fileItem struct {
	path    string
	status  string
	stage   driver.Stage
	elapsed time.Duration
	err     string
}

func (it *fileItem) finished() bool {
	return it.status == "done" || it.status == "cached" || it.status == "error"
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that shows one line per file
// and an overall bar. It quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		items:   make([]fileItem, len(files)),
		byPath:  make(map[string]*fileItem, len(files)),
		width:   80,
	}
	m.spinner.Style = labelStyles["compiling"]
	m.bar.Width = m.width - 12
	for i, f := range files {
		m.items[i] = fileItem{path: f, status: "queued", stage: driver.StageLoad}
		m.byPath[f] = &m.items[i]
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.next())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 40)
		m.bar.Width = m.width - 12
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	finished, failed := 0, 0
	for i := range m.items {
		if m.items[i].finished() {
			finished++
		}
		if m.items[i].status == "error" {
			failed++
		}
	}

	var b strings.Builder
	mark := m.spinner.View()
	if m.done {
		mark = "✓"
		if failed > 0 {
			mark = "✗"
		}
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s %s %d/%d", mark, m.title, finished, len(m.items))))
	if failed > 0 {
		b.WriteString(labelStyles["error"].Render(fmt.Sprintf("  %d failed", failed)))
	}
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusColumn-12, 16)
	for i := range m.items {
		it := &m.items[i]
		label := fmt.Sprintf("%*s", statusColumn, it.status)
		if st, ok := labelStyles[it.status]; ok {
			label = st.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		line := fmt.Sprintf("  %s  %s", label, truncate(it.path, nameWidth))
		if it.finished() && it.elapsed > 0 {
			line += dimStyle.Render(" " + it.elapsed.Round(time.Millisecond).String())
		}
		b.WriteString(line + "\n")
		if it.err != "" {
			fmt.Fprintf(&b, "  %*s  %s\n", statusColumn, "", truncate(it.err, nameWidth))
		}
	}

	b.WriteString("\n  ")
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// next waits for the following build event.
func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return doneMsg{}
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	it, ok := m.byPath[ev.File]
	label := statusLabel(ev.Stage, ev.Status)
	if !ok || label == "" {
		return nil
	}
	it.status, it.stage = label, ev.Stage
	if ev.Elapsed > 0 {
		it.elapsed = ev.Elapsed
	}
	if ev.Err != nil {
		it.err = ev.Err.Error()
	}
	return m.bar.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	sum := 0.0
	for i := range m.items {
		if m.items[i].finished() {
			sum++
			continue
		}
		if m.items[i].status != "queued" {
			sum += stageShare[m.items[i].stage]
		}
	}
	return sum / float64(len(m.items))
}

func statusLabel(stage driver.Stage, status driver.Status) string {
	switch status {
	case driver.StatusQueued, driver.StatusCached, driver.StatusError:
		return string(status)
	case driver.StatusDone:
		// loading is never the last stage
		if stage != driver.StageLoad {
			return "done"
		}
	case driver.StatusWorking:
		switch stage {
		case driver.StageLoad:
			return "loading"
		case driver.StageCompile:
			return "compiling"
		case driver.StageWrite:
			return "writing"
		}
	}
	return ""
}

// truncate shortens value to width terminal cells, keeping the end of a
// path, which names the file.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	runes := []rune(value)
	for i := range runes {
		if tail := string(runes[i:]); runewidth.StringWidth(tail) <= width-3 {
			return "..." + tail
		}
	}
	return "..."
}
