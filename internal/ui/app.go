package ui

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/splashwatch/internal/logging"
	"github.com/five82/splashwatch/internal/logtail"
	"github.com/five82/splashwatch/internal/prefs"
	"github.com/five82/splashwatch/internal/state"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Store     *state.Store
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	// LogPaths maps a source name to its deployment log for the raw pane.
	LogPaths map[string]string
	Logger   *zap.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     *state.Store
	prefsPath string
	pollTick  time.Duration
	logPaths  map[string]string
	logger    *zap.Logger

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	width    int
	height   int
	ready    bool
	showHelp bool

	// Data state
	snapshot  state.Snapshot
	continued bool

	// List state
	hideCompleted bool
	spinner       spinner.Model
	progress      progress.Model
	list          viewport.Model

	// Raw log state
	showRawLog bool
	sources    []string
	sourceIdx  int
	rawLines   []string
	rawErr     error
	raw        viewport.Model
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sources := make([]string, 0, len(opts.LogPaths))
	for name := range opts.LogPaths {
		sources = append(sources, name)
	}
	sort.Strings(sources)

	theme := GetTheme(opts.Prefs.Theme)
	m := Model{
		ctx:           ctx,
		store:         opts.Store,
		prefsPath:     prefsPath,
		pollTick:      pollTick,
		logPaths:      opts.LogPaths,
		logger:        logging.For(opts.Logger, logging.CategoryUI),
		theme:         theme,
		keys:          defaultKeyMap(),
		help:          help.New(),
		hideCompleted: opts.Prefs.HideCompleted,
		showRawLog:    opts.Prefs.ShowRawLog,
		sources:       sources,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress:      progress.New(progress.WithSolidFill(theme.Accent), progress.WithoutPercentage()),
		list:          viewport.New(0, 0),
		raw:           viewport.New(0, 0),
	}
	m.applyTheme()
	return m
}

// Continued reports whether the user dismissed the completed splash with
// the continue key rather than quitting early.
func (m Model) Continued() bool {
	return m.continued
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store), waitForChangeCmd(m.ctx, m.store))
	}
	if m.showRawLog {
		cmds = append(cmds, m.readRawLog())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case changeMsg:
		m.applySnapshot(state.Snapshot(msg))
		if m.store == nil {
			return m, nil
		}
		return m, waitForChangeCmd(m.ctx, m.store)

	case rawLogMsg:
		m.handleRawLog(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshList()
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Continue):
		m.continued = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.applyTheme()
		m.refreshList()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCompleted):
		m.hideCompleted = !m.hideCompleted
		m.refreshList()
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.ToggleRawLog):
		m.showRawLog = !m.showRawLog
		m.resize()
		m.savePrefs()
		if m.showRawLog {
			return m, m.readRawLog()
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleSource):
		if len(m.sources) == 0 {
			return m, nil
		}
		m.sourceIdx = (m.sourceIdx + 1) % len(m.sources)
		m.rawLines = nil
		m.rawErr = nil
		m.refreshRaw()
		if m.showRawLog {
			return m, m.readRawLog()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.list.LineDown(1)
	case key.Matches(msg, m.keys.Top):
		m.list.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.list.GotoBottom()
	case key.Matches(msg, m.keys.PageUp):
		m.list.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.list.HalfViewDown()
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.ctx.Err() != nil {
		return m, tea.Quit
	}
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.showRawLog {
		cmds = append(cmds, m.readRawLog())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.keys.Continue.SetEnabled(snap.Done())
	m.refreshList()
}

func (m *Model) handleRawLog(msg rawLogMsg) {
	if msg.source != m.currentSource() {
		return // stale read for a source we cycled away from
	}
	m.rawErr = msg.err
	if msg.err == nil {
		m.rawLines = msg.lines
	}
	m.refreshRaw()
	m.raw.GotoBottom()
}

func (m *Model) applyTheme() {
	m.progress.FullColor = m.theme.Accent
	m.progress.EmptyColor = m.theme.Border
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Warning))
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{
		Theme:         m.theme.Name,
		HideCompleted: m.hideCompleted,
		ShowRawLog:    m.showRawLog,
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save preferences", zap.Error(err))
	}
}

func (m Model) currentSource() string {
	if len(m.sources) == 0 {
		return ""
	}
	return m.sources[m.sourceIdx%len(m.sources)]
}

func (m Model) readRawLog() tea.Cmd {
	source := m.currentSource()
	if source == "" {
		return nil
	}
	return readRawLogCmd(source, m.logPaths[source])
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// changeMsg carries a snapshot taken because the registry signalled a change.
type changeMsg state.Snapshot

type rawLogMsg struct {
	source string
	lines  []string
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func waitForChangeCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-store.Changes():
			return changeMsg(store.Snapshot())
		case <-ctx.Done():
			return nil
		}
	}
}

func readRawLogCmd(source, path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, RawLogLines)
		return rawLogMsg{source: source, lines: lines, err: err}
	}
}

// Run starts the Bubble Tea UI and blocks until it exits. It reports whether
// the user continued past a completed splash.
func Run(opts Options) (bool, error) {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	if fm, ok := final.(Model); ok {
		return fm.Continued(), nil
	}
	return false, nil
}
