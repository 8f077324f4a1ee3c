package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/memoriahq/memoria-go/internal/api"
	"github.com/memoriahq/memoria-go/internal/bus"
	"github.com/memoriahq/memoria-go/internal/timeline"
)

const fetchTimeout = 30 * time.Second

// entry is one selectable row of the focused day: an episode or a
// standalone item.
type entry struct {
	episodeID string
	item      *api.TimelineItem
	label     string
}

// rangeLoadedMsg reports a finished range/day-items load.
type rangeLoadedMsg struct{ err error }

// detailLoadedMsg reports a finished detail fetch.
type detailLoadedMsg struct{ err error }

// focusRequestMsg carries a cross-view focus request into the Update
// loop.
type focusRequestMsg bus.FocusRequest

// browserModel is the bubbletea model for the timeline browser.
type browserModel struct {
	ctrl    *timeline.Controller
	theme   Theme
	spinner spinner.Model

	loading bool
	errMsg  string
	entries []entry
	cursor  int
	width   int
	height  int
}

func newBrowserModel(ctrl *timeline.Controller) browserModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return browserModel{
		ctrl:    ctrl,
		theme:   defaultTheme,
		spinner: sp,
		loading: true,
	}
}

// Init starts the first range load.
func (m browserModel) Init() tea.Cmd {
	return tea.Batch(m.loadRange(), m.spinner.Tick)
}

// Update handles messages and returns the updated model.
func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case rangeLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.rebuildEntries()
		return m, nil

	case detailLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		return m, nil

	case focusRequestMsg:
		m.ctrl.HandleFocus(bus.FocusRequest(msg))
		return m.reload()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m browserModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "left", "h":
		m.ctrl.Step(-1)
		return m.reload()
	case "right", "l":
		m.ctrl.Step(1)
		return m.reload()

	case "d":
		m.ctrl.SetMode(timeline.ViewDay)
		return m.reload()
	case "w":
		m.ctrl.SetMode(timeline.ViewWeek)
		return m.reload()
	case "m":
		m.ctrl.SetMode(timeline.ViewMonth)
		return m.reload()
	case "y":
		m.ctrl.SetMode(timeline.ViewYear)
		return m.reload()
	case "a":
		m.ctrl.SetMode(timeline.ViewAll)
		return m.reload()

	case "r":
		m.ctrl.Invalidate()
		return m.reload()

	case "t":
		m.ctrl.SetAnchor(time.Now())
		return m.reload()

	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
			return m, m.selectEntry()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			return m, m.selectEntry()
		}

	case "g":
		// Load more of the flat list in all view.
		if m.ctrl.Mode() == timeline.ViewAll && m.ctrl.AllItems().HasMore() {
			return m, m.loadMore()
		}
	}
	return m, nil
}

func (m browserModel) reload() (tea.Model, tea.Cmd) {
	m.loading = true
	m.cursor = 0
	return m, tea.Batch(m.loadRange(), m.spinner.Tick)
}

// loadRange fetches the current range (or the flat list in all view) off
// the Update loop.
func (m browserModel) loadRange() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if ctrl.Mode() == timeline.ViewAll {
			return rangeLoadedMsg{err: ctrl.LoadAllItems(ctx, true)}
		}
		if err := ctrl.LoadRange(ctx); err != nil {
			return rangeLoadedMsg{err: err}
		}
		if ctrl.Mode() == timeline.ViewDay {
			return rangeLoadedMsg{err: ctrl.LoadDayItems(ctx, true)}
		}
		return rangeLoadedMsg{err: nil}
	}
}

func (m browserModel) loadMore() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return rangeLoadedMsg{err: ctrl.LoadAllItems(ctx, false)}
	}
}

// selectEntry activates the cursor's entry and fetches its detail.
func (m browserModel) selectEntry() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return nil
	}
	e := m.entries[m.cursor]
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if e.episodeID != "" {
			return detailLoadedMsg{err: ctrl.SelectEpisode(ctx, e.episodeID)}
		}
		return detailLoadedMsg{err: ctrl.SelectItem(ctx, e.item.ID)}
	}
}

// rebuildEntries derives the selectable rows for the focused day:
// episodes first, then items not covered by any episode.
func (m *browserModel) rebuildEntries() {
	m.entries = nil

	if m.ctrl.Mode() == timeline.ViewAll {
		items := m.ctrl.AllItems().Items()
		for i := range items {
			it := items[i]
			m.entries = append(m.entries, entry{item: &it, label: it.Label()})
		}
		return
	}

	day, ok := m.ctrl.FocusedDay()
	if !ok {
		return
	}

	inEpisode := make(map[string]bool)
	for _, ep := range day.Episodes {
		for _, id := range ep.SourceItemIDs {
			inEpisode[id] = true
		}
		m.entries = append(m.entries, entry{episodeID: ep.EpisodeID, label: ep.Title})
	}

	items := day.Items
	if more := m.ctrl.DayItems().Items(); len(more) > len(items) {
		items = more
	}
	for i := range items {
		if inEpisode[items[i].ID] {
			continue
		}
		it := items[i]
		m.entries = append(m.entries, entry{item: &it, label: it.Label()})
	}

	if m.cursor >= len(m.entries) {
		m.cursor = 0
	}
}

// View renders the browser.
func (m browserModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m browserModel) renderContent() string {
	var b strings.Builder

	header := fmt.Sprintf("%s  %s", m.ctrl.Mode(), m.ctrl.AnchorKey())
	b.WriteString(m.theme.accentStyle().Render(header))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(m.theme.errorStyle().Render(m.errMsg) + "\n\n")
	}

	left := m.renderList()
	right := m.renderDetail()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right))

	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render(
		"h/l move · d/w/m/y/a view · j/k select · g more · r reload · t today · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m browserModel) renderList() string {
	switch m.ctrl.Mode() {
	case timeline.ViewMonth, timeline.ViewYear:
		return m.renderGrid()
	}

	var b strings.Builder
	if m.ctrl.Mode() == timeline.ViewAll {
		fmt.Fprintf(&b, "%d of %d items\n", len(m.entries), m.ctrl.AllItems().Total())
	} else if day, ok := m.ctrl.FocusedDay(); ok {
		fmt.Fprintf(&b, "%d items", day.ItemCount)
		if day.DailySummary != nil {
			b.WriteString("  " + m.theme.hintStyle().Render(day.DailySummary.Summary))
		}
		b.WriteString("\n")
	}

	if len(m.entries) == 0 && !m.loading {
		b.WriteString(m.theme.hintStyle().Render("no memories") + "\n")
	}
	for i, e := range m.entries {
		label := e.label
		if e.episodeID != "" {
			label = "◆ " + label
		}
		if i == m.cursor {
			label = m.theme.selectedStyle().Render(label)
		}
		b.WriteString(label + "\n")
	}
	return b.String()
}

// renderGrid draws the month calendar with per-day item counts.
func (m browserModel) renderGrid() string {
	loc := m.ctrl.Location()
	counts := make(map[string]int)
	highlights := make(map[string]bool)
	for _, d := range m.ctrl.Days() {
		counts[d.Date] = d.ItemCount
		highlights[d.Date] = d.Highlight != nil
	}

	var b strings.Builder
	b.WriteString(m.theme.hintStyle().Render("Mo    Tu    We    Th    Fr    Sa    Su") + "\n")
	anchorKey := string(m.ctrl.AnchorKey())
	for _, week := range timeline.MonthGrid(m.ctrl.Anchor(), loc) {
		for _, key := range week {
			cell := fmt.Sprintf("%s/%-2d", string(key)[8:10], counts[string(key)])
			switch {
			case string(key) == anchorKey:
				cell = m.theme.selectedStyle().Render(cell)
			case highlights[string(key)]:
				cell = m.theme.highlightStyle().Render(cell)
			case counts[string(key)] == 0:
				cell = m.theme.hintStyle().Render(cell)
			}
			b.WriteString(cell + " ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m browserModel) renderDetail() string {
	state, _, _ := m.ctrl.Selection()

	switch state {
	case timeline.SelectionEpisode:
		d := m.ctrl.EpisodeDetail()
		if d == nil {
			return m.theme.hintStyle().Render("loading episode...")
		}
		var b strings.Builder
		b.WriteString(m.theme.accentStyle().Render(d.Title) + "\n")
		fmt.Fprintf(&b, "%s – %s\n\n", d.StartTimeUTC.Format("15:04"), d.EndTimeUTC.Format("15:04"))
		b.WriteString(d.Summary + "\n")
		for _, c := range d.Contexts {
			b.WriteString(m.theme.hintStyle().Render("· "+c.Text) + "\n")
		}
		return b.String()

	case timeline.SelectionItem:
		d := m.ctrl.ItemDetail()
		if d == nil {
			return m.theme.hintStyle().Render("loading item...")
		}
		var b strings.Builder
		b.WriteString(m.theme.accentStyle().Render(d.Label()) + "\n")
		fmt.Fprintf(&b, "%s · %s\n", d.ItemType, d.Status)
		if d.TranscriptText != nil {
			b.WriteString("\n" + *d.TranscriptText + "\n")
		}
		for _, c := range d.Contexts {
			b.WriteString(m.theme.hintStyle().Render("· "+c.Text) + "\n")
		}
		return b.String()

	case timeline.SelectionPending:
		return m.theme.hintStyle().Render("locating memory...")
	}
	return m.theme.hintStyle().Render("nothing selected")
}

// RunBrowser runs the interactive timeline browser. Focus requests
// published on focusBus while the browser is open navigate it to the
// referenced memory.
func RunBrowser(ctrl *timeline.Controller, focusBus *bus.FocusBus) error {
	p := tea.NewProgram(newBrowserModel(ctrl))
	if focusBus != nil {
		unsubscribe := focusBus.Subscribe(func(req bus.FocusRequest) {
			p.Send(focusRequestMsg(req))
		})
		defer unsubscribe()
	}
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("timeline UI error: %w", err)
	}
	return nil
}
