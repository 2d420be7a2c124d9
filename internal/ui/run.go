package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"halfbyte/internal/driver"
)

// Mode is the --ui setting.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeTUI   Mode = "tui"
	ModePlain Mode = "plain"
	ModeOff   Mode = "off"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeTUI, ModePlain, ModeOff:
		return m, nil
	}
	return ModeOff, fmt.Errorf("invalid ui mode %q (expected auto|tui|plain|off)", s)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Resolve turns auto into tui on a terminal and off elsewhere.
func (m Mode) Resolve(w io.Writer) Mode {
	if m != ModeAuto {
		return m
	}
	if IsTerminal(w) {
		return ModeTUI
	}
	return ModeOff
}

// Progress drives a progress view for a build. Sink feeds it; Wait closes
// the view once the build is over.
type Progress struct {
	sink driver.ProgressSink
	wait func() error
}

func (p *Progress) Sink() driver.ProgressSink { return p.sink }

func (p *Progress) Wait() error {
	if p.wait == nil {
		return nil
	}
	return p.wait()
}

// Start opens the view selected by mode on out. ModeOff returns a Progress
// with no sink.
func Start(ctx context.Context, mode Mode, out io.Writer, title string, files []string) *Progress {
	switch mode.Resolve(out) {
	case ModeTUI:
		return startTUI(ctx, out, title, files)
	case ModePlain:
		return &Progress{sink: &plainSink{w: out}}
	}
	return &Progress{}
}

func startTUI(ctx context.Context, out io.Writer, title string, files []string) *Progress {
	events := make(chan driver.Event, 64)
	prog := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithContext(ctx), tea.WithInput(nil))
	done := make(chan error, 1)
	go func() {
		_, err := prog.Run()
		done <- err
	}()
	var once sync.Once
	return &Progress{
		sink: driver.ChannelSink{Ch: events},
		wait: func() error {
			once.Do(func() { close(events) })
			return <-done
		},
	}
}

// plainSink prints one line per finished step, for logs and CI.
type plainSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *plainSink) OnEvent(ev driver.Event) {
	if ev.File == "" || ev.Status == driver.StatusQueued || ev.Status == driver.StatusWorking {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf("[%-7s] %-8s %s", ev.Status, ev.Stage, ev.File)
	if ev.Err != nil {
		line += ": " + ev.Err.Error()
	}
	fmt.Fprintln(s.w, line)
}
