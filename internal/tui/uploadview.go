package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/memoriahq/memoria-go/internal/upload"
)

// uploadEventMsg carries one pipeline progress event.
type uploadEventMsg upload.Event

// uploadDoneMsg reports the finished batch.
type uploadDoneMsg struct {
	result upload.Result
	err    error
}

// pollDoneMsg reports the finished processing wait.
type pollDoneMsg struct {
	statuses []upload.ItemStatus
	err      error
}

// uploadModel is the bubbletea model for the upload console.
type uploadModel struct {
	files    []string
	theme    Theme
	progress progress.Model
	spinner  spinner.Model

	msgCh chan tea.Msg

	fileSteps map[string]string
	fileErr   string
	uploaded  int
	result    *upload.Result

	polling  bool
	wait     bool
	statuses []upload.ItemStatus
	stillPending bool
	err      error
	done     bool
}

func newUploadModel(files []string, wait bool) uploadModel {
	return uploadModel{
		files:     files,
		theme:     defaultTheme,
		progress:  progress.New(progress.WithDefaultBlend(), progress.WithWidth(40)),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		msgCh:     make(chan tea.Msg, 16),
		fileSteps: make(map[string]string),
		wait:      wait,
	}
}

// Init starts reading pipeline events.
func (m uploadModel) Init() tea.Cmd {
	return tea.Batch(m.readEvent(), m.spinner.Tick, m.progress.Init())
}

// readEvent waits for the next pipeline/poller message.
func (m uploadModel) readEvent() tea.Cmd {
	ch := m.msgCh
	return func() tea.Msg {
		return <-ch
	}
}

// Update handles messages and returns the updated model.
func (m uploadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case uploadEventMsg:
		m.fileSteps[msg.Filename] = msg.Step
		if msg.Err != nil {
			m.fileErr = msg.Filename
		} else if msg.Step == "done" {
			m.uploaded++
		}
		return m, m.readEvent()

	case uploadDoneMsg:
		m.result = &msg.result
		m.err = msg.err
		if msg.err != nil || !m.wait || len(msg.result.ItemIDs) == 0 {
			m.done = true
			return m, tea.Quit
		}
		m.polling = true
		return m, m.readEvent()

	case pollDoneMsg:
		m.polling = false
		m.done = true
		m.statuses = msg.statuses
		if errors.Is(msg.err, upload.ErrStillProcessing) {
			m.stillPending = true
		} else if msg.err != nil {
			m.err = msg.err
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the upload console.
func (m uploadModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m uploadModel) renderContent() string {
	var b strings.Builder

	for _, f := range m.files {
		name := filepath.Base(f)
		step := m.fileSteps[name]
		var glyph string
		switch {
		case name == m.fileErr:
			glyph = m.theme.errorStyle().Render("✗")
		case step == "done":
			glyph = m.theme.successStyle().Render("✓")
		case step == "":
			glyph = m.theme.hintStyle().Render("·")
		default:
			glyph = m.spinner.View()
		}
		fmt.Fprintf(&b, " %s %s", glyph, name)
		if step != "" && step != "done" && name != m.fileErr {
			b.WriteString(m.theme.hintStyle().Render("  " + step))
		}
		b.WriteString("\n")
	}

	pct := float64(m.uploaded) / float64(len(m.files))
	fmt.Fprintf(&b, "\n%s %d/%d files\n", m.progress.ViewAs(pct), m.uploaded, len(m.files))

	switch {
	case m.polling:
		b.WriteString(m.spinner.View() + " waiting for processing...\n")
		b.WriteString(m.theme.hintStyle().Render("Press q to stop waiting; processing continues server-side.") + "\n")
	case m.done:
		b.WriteString(m.finalView())
	}
	return b.String()
}

func (m uploadModel) finalView() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(m.theme.errorStyle().Render(fmt.Sprintf("✗ %v", m.err)) + "\n")
	}
	for _, s := range m.statuses {
		style := m.theme.successStyle()
		if s.Status == "failed" {
			style = m.theme.errorStyle()
		}
		fmt.Fprintf(&b, "  %s %s\n", style.Render(s.Status), s.ItemID)
	}
	if m.stillPending {
		b.WriteString(m.theme.hintStyle().Render(
			"Some items are still processing; check the timeline later.") + "\n")
	}
	return b.String()
}

// RunUpload runs the interactive upload console: the sequential batch
// first, then (when wait is set) the bounded processing poll.
func RunUpload(ctx context.Context, pipeline *upload.Pipeline, poller *upload.Poller, files []string, opts upload.Options, wait bool) error {
	m := newUploadModel(files, wait)

	opts.Progress = func(ev upload.Event) {
		m.msgCh <- uploadEventMsg(ev)
	}

	go func() {
		result, err := pipeline.UploadBatch(ctx, files, opts)
		m.msgCh <- uploadDoneMsg{result: result, err: err}
		if err == nil && wait && len(result.ItemIDs) > 0 {
			statuses, pollErr := poller.Wait(ctx, result.ItemIDs)
			m.msgCh <- pollDoneMsg{statuses: statuses, err: pollErr}
		}
	}()

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("upload UI error: %w", err)
	}

	if fm, ok := finalModel.(uploadModel); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
