package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mtrack/internal/formatter"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ListView ViewState = iota
	DetailView
	StatsView
	ConfirmView
	EnrichView
	ResultView
)

// browseLimit caps how many entries of one kind are loaded into the list.
const browseLimit = 1000

// Library is the read side of the record store.
type Library interface {
	Entries(ctx context.Context, kind models.Kind, opts models.ListOptions) ([]models.LibraryEntry, error)
	Stats(ctx context.Context) (*models.LibraryStats, error)
}

// Enricher fills catalog metadata into stored records.
type Enricher interface {
	Enrich(ctx context.Context, prog chan<- tasks.ProgressUpdate, opts tasks.EnrichOpts) (*tasks.EnrichSummary, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	library      Library
	enricher     Enricher
	width        int
	height       int
	tab          int
	list         list.Model
	entries      []models.LibraryEntry
	selected     *models.LibraryEntry
	stats        *models.LibraryStats
	progressChan chan tasks.ProgressUpdate
	enrichDone   chan Msg
	progress     tasks.ProgressUpdate
	summary      *tasks.EnrichSummary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. enricher may be nil, which disables enrichment.
func NewModel(ctx context.Context, library Library, enricher Enricher) *Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	return &Model{
		ctx:      ctx,
		view:     ListView,
		library:  library,
		enricher: enricher,
		list:     l,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init loads the first kind.
func (m *Model) Init() tea.Cmd {
	return m.fetchEntries(m.kind())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ListView:
			return m.handleListKeys(msg)
		case DetailView, StatsView:
			return m.handleBackKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case EnrichView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == ListView {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgEntriesFetched:
		data := msg.data.(entriesFetched)
		if data.kind != m.kind() {
			return m, nil
		}
		m.err = data.err
		m.entries = data.entries
		cmd := m.list.SetItems(entryItems(data.entries))
		return m, cmd

	case MsgStatsFetched:
		data := msg.data.(statsFetched)
		m.stats, m.err = data.stats, data.err
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgEnrichComplete:
		data := msg.data.(enrichComplete)
		m.summary, m.err = data.summary, data.err
		m.progressChan, m.enrichDone = nil, nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress esc to go back, q to quit", m.err))
	}

	switch m.view {
	case ListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case StatsView:
		return m.renderStats()
	case ConfirmView:
		return m.renderConfirm()
	case EnrichView:
		return m.renderEnrich()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) kind() models.Kind { return models.Kinds[m.tab] }

// catalogKind reports whether the current kind can be enriched from the catalog.
func (m *Model) catalogKind() (models.CatalogKind, bool) {
	switch m.kind() {
	case models.KindAnime:
		return models.CatalogAnime, true
	case models.KindManga:
		return models.CatalogManga, true
	}
	return "", false
}

func (m *Model) switchTab(delta int) tea.Cmd {
	n := len(models.Kinds)
	m.tab = ((m.tab+delta)%n + n) % n
	m.entries = nil
	m.list.ResetFilter()
	m.list.ResetSelected()
	m.list.SetItems(nil)
	return m.fetchEntries(m.kind())
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.err != nil {
			m.err = nil
			return m, nil
		}
	case key.Matches(msg, m.keys.next):
		return m, m.switchTab(1)
	case key.Matches(msg, m.keys.prev):
		return m, m.switchTab(-1)
	case key.Matches(msg, m.keys.reload):
		return m, m.fetchEntries(m.kind())
	case key.Matches(msg, m.keys.stats):
		m.view = StatsView
		m.stats = nil
		return m, m.fetchStats()
	case key.Matches(msg, m.keys.enrich):
		if _, ok := m.catalogKind(); ok && m.enricher != nil {
			m.view = ConfirmView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(entryItem); ok {
			entry := item.entry
			m.selected = &entry
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleBackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ListView
		m.selected = nil
		m.err = nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = ListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = EnrichView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startEnrich()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.reload):
		m.view = ListView
		m.summary = nil
		m.err = nil
		return m, m.fetchEntries(m.kind())
	}
	return m, nil
}

func (m *Model) fetchEntries(kind models.Kind) tea.Cmd {
	return func() tea.Msg {
		entries, err := m.library.Entries(m.ctx, kind, models.ListOptions{Limit: browseLimit})
		return entriesFetchedMsg(kind, entries, err)
	}
}

func (m *Model) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.library.Stats(m.ctx)
		return statsFetchedMsg(stats, err)
	}
}

// startEnrich runs the enricher in the background. The completion message is queued before the
// progress channel closes, so waitForProgress always finds it.
func (m *Model) startEnrich() tea.Cmd {
	kind, _ := m.catalogKind()
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.enrichDone = progress, done

	go func() {
		summary, err := m.enricher.Enrich(m.ctx, progress, tasks.EnrichOpts{Kind: kind})
		done <- enrichCompleteMsg(summary, err)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.enrichDone
	return func() tea.Msg {
		if progress == nil {
			return enrichCompleteMsg(m.summary, m.err)
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(models.Kinds))
	for i, k := range models.Kinds {
		label := formatter.KindLabel(k)
		if i == m.tab {
			tabs[i] = styles.activeTab.Render(label)
		} else {
			tabs[i] = styles.tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.stats, m.keys.reload, m.keys.quit}
	if _, ok := m.catalogKind(); ok && m.enricher != nil {
		helpKeys = append(helpKeys[:len(helpKeys)-1], m.keys.enrich, m.keys.quit)
	}

	body := m.list.View()
	if len(m.entries) == 0 {
		body = styles.help.Render(fmt.Sprintf("No %s tracked yet.", strings.ToLower(formatter.KindLabel(m.kind()))))
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.renderTabs(), body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	e := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(e.Title))
	b.WriteString("\n")
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s %s\n", styles.label.Render(label), value)
		}
	}
	row("Kind", formatter.KindLabel(e.Kind))
	row("Also", e.Subtitle)
	row("Status", formatter.StatusLabel(e.Status))
	row("Progress", e.Progress)
	if e.Score != nil {
		row("Score", fmt.Sprintf("%g/10", *e.Score))
	}
	row("Image", e.ImageURL)
	if !e.UpdatedAt.IsZero() {
		row("Updated", e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	if e.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", e.Notes)
	}

	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
}

func (m *Model) renderStats() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	if m.stats == nil {
		return fmt.Sprintf("%s\n\nLoading...\n\n%s", styles.title.Render("Library Stats"), helpView)
	}
	s := m.stats

	lines := []string{
		fmt.Sprintf("Anime  %3d  watching %d · completed %d · planned %d · dropped %d",
			s.TotalAnime, s.AnimeWatching, s.AnimeCompleted, s.AnimePlanToWatch, s.AnimeDropped),
		fmt.Sprintf("Manga  %3d  reading %d · completed %d · planned %d · dropped %d",
			s.TotalManga, s.MangaReading, s.MangaCompleted, s.MangaPlanToRead, s.MangaDropped),
		fmt.Sprintf("Games  %3d  playing %d · completed %d", s.TotalGames, s.GamesPlaying, s.GamesCompleted),
		fmt.Sprintf("Music  %3d  listening %d · completed %d · favorites %d",
			s.TotalMusic, s.MusicListening, s.MusicCompleted, s.MusicFavorites),
		"",
		fmt.Sprintf("%d episodes watched, %d chapters and %d volumes read", s.TotalEpisodesWatched, s.TotalChaptersRead, s.TotalVolumesRead),
		fmt.Sprintf("%d hours played, %d plays", s.TotalPlaytimeHours, s.TotalPlays),
	}
	return fmt.Sprintf("%s\n%s\n\n%s", styles.title.Render("Library Stats"), strings.Join(lines, "\n"), helpView)
}

func (m *Model) renderConfirm() string {
	label := strings.ToLower(formatter.KindLabel(m.kind()))
	title := styles.title.Render(fmt.Sprintf("Enrich %s from the catalog?", label))
	info := fmt.Sprintf("\nRecords with a MAL id get missing synopsis, images and totals filled in.\n%d %s loaded.\n", len(m.entries), label)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderEnrich() string {
	title := styles.title.Render("Enriching Library")

	var phase string
	switch m.progress.Phase {
	case tasks.LoadRecords:
		phase = "Loading records..."
	case tasks.EnrichRecords:
		phase = fmt.Sprintf("Looking up records (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}
	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Enrichment failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.summary == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	s := m.summary
	title := styles.ok.Render("✓ Enrichment Complete")
	info := fmt.Sprintf("\nRecords: %d\nUpdated: %d\nUnchanged: %d\nFailed: %d", s.Total, s.Updated, s.Skipped, s.Failed)

	var failed string
	if s.Failed > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("%d lookups failed:", s.Failed))
		for _, r := range s.Results {
			if r.Err != nil {
				failed += fmt.Sprintf("\n  • %s: %v", r.Title, r.Err)
			}
		}
	}
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
