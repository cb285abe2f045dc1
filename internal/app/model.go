package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"sidediff/internal/clipboard"
	"sidediff/internal/config"
	"sidediff/internal/diffjob"
	"sidediff/internal/diffview"
	gitint "sidediff/internal/git"
	"sidediff/internal/layout"
	"sidediff/internal/linediff"
	"sidediff/internal/session"
)

type focusPane int

const (
	focusFiles focusPane = iota
	focusDiff
)

const (
	filePaneWidthDefault = 32
	alertDuration        = 3 * time.Second
)

// FilePair names two files compared directly, outside of git.
type FilePair struct {
	Base   string
	Target string
}

// Options wires a Model. Pair selects two-file mode; otherwise Root is a git work tree.
type Options struct {
	Config    config.AppConfig
	Logger    *slog.Logger
	Root      string
	Pair      *FilePair
	Status    gitint.StatusService
	Revisions gitint.RevisionService
	Runner    *diffjob.Runner
	Terminal  io.Writer // receives OSC 52 clipboard sequences when no clipboard tool exists
}

type fileEntry struct {
	Label  string
	Status string
	item   gitint.FileItem
	pair   *FilePair
}

// names returns the paths shown in patch headers.
func (e fileEntry) names() (string, string) {
	if e.pair != nil {
		return e.pair.Base, e.pair.Target
	}
	if e.item.OrigPath != "" {
		return e.item.OrigPath, e.item.Path
	}
	return e.item.Path, e.item.Path
}

type filesLoadedMsg struct {
	items []gitint.FileItem
	err   error
}

type openFileMsg struct {
	index int
}

type diffResultMsg struct {
	res diffjob.Result
	ok  bool
}

type budgetExpiredMsg struct {
	gen uint64
}

type toggleFlushMsg struct {
	seq uint64
}

type clipboardResultMsg struct {
	err error
}

type alertTickMsg struct{}

// Model is the Bubble Tea state container for the app.
type Model struct {
	keys   KeyMap
	help   help.Model
	cfg    config.Engine
	logger *slog.Logger
	styles diffview.Styles

	root        string
	pair        *FilePair
	statusSvc   gitint.StatusService
	revisionSvc gitint.RevisionService
	runner      *diffjob.Runner
	term        io.Writer

	focus    focusPane
	width    int
	height   int
	ready    bool
	helpOpen bool

	files        []fileEntry
	fileCursor   int
	selected     int
	loadingFiles bool

	session     *session.Session
	highlight   *diffview.Highlighter
	lead        layout.Side
	cursor      int
	top         int
	pendingGen  uint64
	loadingDiff bool
	loaded      bool

	baseView   viewport.Model
	targetView viewport.Model

	alertMsg   string
	alertUntil time.Time
	err        error
}

func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := Model{
		keys:        defaultKeyMap(),
		help:        help.New(),
		cfg:         opts.Config.Diff,
		logger:      logger,
		styles:      diffview.DefaultStyles(),
		root:        opts.Root,
		pair:        opts.Pair,
		statusSvc:   opts.Status,
		revisionSvc: opts.Revisions,
		runner:      opts.Runner,
		term:        opts.Terminal,
		focus:       focusFiles,
		selected:    -1,
		session:     session.New(opts.Config.Diff, logger),
		lead:        layout.SideTarget,
		baseView:    viewport.New(1, 1),
		targetView:  viewport.New(1, 1),
	}
	if m.statusSvc == nil {
		m.statusSvc = gitint.NewStatusService()
	}
	if m.revisionSvc == nil {
		m.revisionSvc = gitint.NewRevisionService()
	}
	if m.pair != nil {
		m.files = []fileEntry{{Label: m.pair.Target, Status: "pair", pair: m.pair}}
		m.focus = focusDiff
	} else {
		m.loadingFiles = true
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForResultCmd(), alertTickCmd()}
	if m.pair != nil {
		cmds = append(cmds, func() tea.Msg { return openFileMsg{index: 0} })
	} else {
		cmds = append(cmds, m.loadFilesCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.ensureCursorVisible()
		return m, nil

	case filesLoadedMsg:
		m.loadingFiles = false
		m.err = msg.err
		if msg.err != nil {
			m.logger.Error("list changed files", "err", msg.err)
			return m, nil
		}
		prev := ""
		if m.selected >= 0 && m.selected < len(m.files) {
			prev = m.files[m.selected].Label
		}
		m.files = make([]fileEntry, 0, len(msg.items))
		for _, item := range msg.items {
			m.files = append(m.files, fileEntry{Label: item.Path, Status: item.Status, item: item})
		}
		if len(m.files) == 0 {
			m.selected = -1
			m.fileCursor = 0
			m.loaded = false
			return m, nil
		}
		idx := indexOfLabel(m.files, prev)
		if idx < 0 {
			idx = min(max(m.selected, 0), len(m.files)-1)
		}
		m.fileCursor = idx
		cmd := m.open(idx)
		return m, cmd

	case openFileMsg:
		cmd := m.open(msg.index)
		return m, cmd

	case diffResultMsg:
		if !msg.ok {
			return m, nil
		}
		next := m.waitForResultCmd()
		if msg.res.Gen != m.pendingGen || !m.loadingDiff {
			m.logger.Debug("ignoring stale diff result", "key", msg.res.Key, "gen", msg.res.Gen, "want", m.pendingGen)
			return m, next
		}
		m.loadingDiff = false
		m.loaded = true
		m.cursor, m.top = 0, 0
		if msg.res.Err != nil {
			m.session.LoadError(msg.res.Err)
			m.highlight = nil
			return m, next
		}
		m.session.Load(msg.res.Base, msg.res.Target, msg.res.Segments)
		m.highlight = diffview.NewHighlighter(msg.res.Key)
		m.logger.Info("diff ready", "key", msg.res.Key, "elapsed", msg.res.Elapsed, "identical", m.session.Identical())
		return m, next

	case budgetExpiredMsg:
		if msg.gen != m.pendingGen || !m.loadingDiff {
			return m, nil
		}
		m.runner.Abandon(msg.gen)
		m.loadingDiff = false
		m.loaded = true
		m.cursor, m.top = 0, 0
		m.session.LoadError(fmt.Errorf("%w (%s)", diffjob.ErrBudgetExceeded, m.cfg.DiffBudget))
		return m, nil

	case toggleFlushMsg:
		m.flushToggles(msg.seq)
		return m, nil

	case clipboardResultMsg:
		if msg.err != nil {
			m.setAlert(fmt.Sprintf("copy failed: %v", msg.err))
			return m, nil
		}
		m.setAlert("Copied unified patch to clipboard.")
		return m, nil

	case alertTickMsg:
		if m.alertMsg != "" && !m.alertUntil.IsZero() && time.Now().After(m.alertUntil) {
			m.alertMsg = ""
			m.alertUntil = time.Time{}
		}
		return m, alertTickCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.helpOpen = !m.helpOpen
			m.help.ShowAll = m.helpOpen
			return m, nil
		case key.Matches(msg, m.keys.ToggleFocus):
			if !m.filesHidden() {
				if m.focus == focusFiles {
					m.focus = focusDiff
				} else {
					m.focus = focusFiles
				}
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.pair != nil {
				cmd := m.open(0)
				return m, cmd
			}
			m.loadingFiles = true
			return m, m.loadFilesCmd()
		case key.Matches(msg, m.keys.ToggleCollapse):
			cmd := m.queueToggle()
			return m, cmd
		case key.Matches(msg, m.keys.CopyPatch):
			return m, m.copyPatchCmd()
		}
		if m.focus == focusFiles {
			return m.updateFilesPane(msg)
		}
		return m.updateDiffPane(msg)
	}

	return m, nil
}

func (m Model) updateFilesPane(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.fileCursor = max(m.fileCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.fileCursor = max(min(m.fileCursor+1, len(m.files)-1), 0)
	case key.Matches(msg, m.keys.Top):
		m.fileCursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.fileCursor = max(len(m.files)-1, 0)
	case key.Matches(msg, m.keys.Open):
		if len(m.files) == 0 {
			return m, nil
		}
		m.focus = focusDiff
		cmd := m.open(m.fileCursor)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateDiffPane(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.diffBodyHeight())
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.diffBodyHeight())
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-m.session.Len(m.lead))
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(m.session.Len(m.lead))
	case key.Matches(msg, m.keys.Open):
		m.expandAtCursor()
	case key.Matches(msg, m.keys.NextChange):
		m.jumpToChange(1)
	case key.Matches(msg, m.keys.PrevChange):
		m.jumpToChange(-1)
	case key.Matches(msg, m.keys.SwapLead):
		m.cursor = m.session.SyncRow(m.lead, m.cursor)
		m.top = m.session.SyncRow(m.lead, m.top)
		m.lead = m.lead.Other()
		m.ensureCursorVisible()
	}
	return m, nil
}

// open submits the diff of file i and arms the budget timer.
func (m *Model) open(i int) tea.Cmd {
	if i < 0 || i >= len(m.files) {
		return nil
	}
	m.selected = i
	entry := m.files[i]
	gen, err := m.runner.Submit(diffjob.Request{Key: entry.Label, Load: m.loadFunc(entry)})
	if err != nil {
		m.setAlert(fmt.Sprintf("cannot load %s: %v", entry.Label, err))
		return nil
	}
	m.pendingGen = gen
	m.loadingDiff = true
	m.logger.Debug("diff requested", "key", entry.Label, "gen", gen)

	budget := m.cfg.DiffBudget
	return tea.Tick(budget, func(time.Time) tea.Msg {
		return budgetExpiredMsg{gen: gen}
	})
}

func (m Model) loadFunc(e fileEntry) diffjob.LoadFunc {
	if e.pair != nil {
		pair := *e.pair
		return func(context.Context) (linediff.Revision, linediff.Revision, error) {
			base, err := gitint.ReadFile(pair.Base)
			if err != nil {
				return linediff.Revision{}, linediff.Revision{}, err
			}
			target, err := gitint.ReadFile(pair.Target)
			if err != nil {
				return linediff.Revision{}, linediff.Revision{}, err
			}
			return linediff.DecodeRevisions(base, target)
		}
	}
	svc, root, item := m.revisionSvc, m.root, e.item
	return func(ctx context.Context) (linediff.Revision, linediff.Revision, error) {
		base, target, err := svc.Revisions(ctx, root, item)
		if err != nil {
			return linediff.Revision{}, linediff.Revision{}, err
		}
		return linediff.DecodeRevisions(base, target)
	}
}

func (m *Model) queueToggle() tea.Cmd {
	if !m.loaded {
		return nil
	}
	seq := m.session.QueueToggle()
	if m.cfg.ToggleDebounce <= 0 {
		m.flushToggles(seq)
		return nil
	}
	return tea.Tick(m.cfg.ToggleDebounce, func(time.Time) tea.Msg {
		return toggleFlushMsg{seq: seq}
	})
}

// flushToggles applies queued toggles and keeps the cursor on the same source line.
func (m *Model) flushToggles(seq uint64) {
	line, ok := m.session.MapRowToLine(m.lead, m.cursor)
	if _, applied := m.session.FlushToggles(seq); !applied {
		return
	}
	if ok {
		if row, found := m.session.MapLineToRow(m.lead, line); found {
			m.cursor = row
		}
	}
	m.clampCursor()
	m.ensureCursorVisible()
}

func (m *Model) expandAtCursor() {
	row, ok := m.session.RowAt(m.lead, m.cursor)
	if !ok || row.Kind != layout.RowCollapsed {
		return
	}
	if _, err := m.session.ExpandRegion(row.Region); err != nil {
		if errors.Is(err, session.ErrRegionNotFound) {
			m.logger.Debug("stale region at cursor", "region", row.Region.String())
		}
		return
	}
	m.ensureCursorVisible()
}

// jumpToChange moves the cursor to the next (dir > 0) or previous change block in the lead pane.
func (m *Model) jumpToChange(dir int) {
	blocks := m.session.Blocks()
	if dir > 0 {
		for _, b := range blocks {
			if start := m.blockStart(b); start > m.cursor {
				m.cursor = start
				break
			}
		}
	} else {
		for i := len(blocks) - 1; i >= 0; i-- {
			if start := m.blockStart(blocks[i]); start < m.cursor {
				m.cursor = start
				break
			}
		}
	}
	m.clampCursor()
	m.scrollCursorWithPadding(m.diffBodyHeight() / 3)
}

func (m Model) blockStart(b layout.Block) int {
	if m.lead == layout.SideBase {
		return b.Base.Start
	}
	return b.Target.Start
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.ensureCursorVisible()
}

func (m *Model) clampCursor() {
	m.cursor = max(min(m.cursor, m.session.Len(m.lead)-1), 0)
}

func (m *Model) ensureCursorVisible() {
	h := m.diffBodyHeight()
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+h {
		m.top = m.cursor - h + 1
	}
	m.top = max(min(m.top, m.session.Len(m.lead)-h), 0)
}

func (m *Model) scrollCursorWithPadding(padding int) {
	h := m.diffBodyHeight()
	padding = min(padding, (h-1)/2)
	if m.cursor-padding < m.top {
		m.top = m.cursor - padding
	}
	if m.cursor+padding >= m.top+h {
		m.top = m.cursor + padding - h + 1
	}
	m.top = max(min(m.top, m.session.Len(m.lead)-h), 0)
}

func (m Model) filesHidden() bool {
	return m.pair != nil
}

func (m Model) footer() string {
	lines := []string{m.help.View(m.keys)}
	if m.alertMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true).Render(truncateLinesToWidth(m.alertMsg, m.width)))
	}
	return strings.Join(lines, "\n")
}

// paneContentHeight is the content height of the bordered panes.
func (m Model) paneContentHeight() int {
	return max(1, m.height-lipgloss.Height(m.footer())-2)
}

// diffBodyHeight is the number of rows visible in each diff pane.
func (m Model) diffBodyHeight() int {
	return max(1, m.paneContentHeight()-2)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	footer := m.footer()
	leftW, rightW := paneWidths(m.width, filePaneWidthDefault, m.filesHidden())
	baseW, targetW := splitDiffPanes(rightW)
	height := m.paneContentHeight()

	content := m.renderDiffPanes(baseW, targetW, height)
	if !m.filesHidden() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.renderFilesPane(leftW, height), content)
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, footer)
}

func (m Model) renderFilesPane(width, height int) string {
	borderColor := lipgloss.Color("245")
	if m.focus == focusFiles {
		borderColor = lipgloss.Color("39")
	}
	paneStyle := lipgloss.NewStyle().
		Width(max(1, width)).
		Height(max(1, height)).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor)

	title := fmt.Sprintf("Files (%d)", len(m.files))
	if m.loadingFiles {
		title += " (loading...)"
	}
	bodyLines := []string{title, ""}

	if len(m.files) == 0 && !m.loadingFiles {
		bodyLines = append(bodyLines, "No changed files")
	}
	pageSize := max(1, height-2)
	start := max(0, min(m.fileCursor-pageSize/2, len(m.files)-pageSize))
	end := min(len(m.files), start+pageSize)
	for i := start; i < end; i++ {
		entry := m.files[i]
		prefix := "  "
		if i == m.fileCursor {
			prefix = "> "
		}
		lineStyle := lipgloss.NewStyle().Width(width).MaxWidth(width)
		if i == m.selected {
			lineStyle = lineStyle.Bold(true)
		}
		if i == m.fileCursor {
			lineStyle = lineStyle.Foreground(lipgloss.Color("39"))
		}
		bodyLines = append(bodyLines, lineStyle.Render(fmt.Sprintf("%s[%s] %s", prefix, entry.Status, entry.Label)))
	}

	if m.err != nil {
		bodyLines = append(bodyLines, "", fmt.Sprintf("error: %v", m.err))
	}
	return paneStyle.Render(strings.Join(bodyLines, "\n"))
}

func (m Model) renderDiffPanes(baseW, targetW, height int) string {
	bodyH := max(1, height-2)
	baseBody, targetBody, gutter := m.diffBodies(baseW, targetW, bodyH)

	baseTitle, targetTitle := "Base", "Target"
	if m.selected >= 0 && m.selected < len(m.files) {
		baseName, targetName := m.files[m.selected].names()
		if m.pair == nil {
			baseName = "HEAD:" + baseName
		}
		baseTitle += ": " + baseName
		targetTitle += ": " + targetName
	}
	if m.session.State() == session.StateEnabled {
		targetTitle += " [collapsed]"
	} else {
		targetTitle += " [expanded]"
	}
	if m.loaded && m.session.Unavailable() == nil && m.session.Identical() {
		targetTitle += " (no differences)"
	}
	if m.loadingDiff {
		targetTitle += " (loading...)"
	}

	m.baseView.Width, m.baseView.Height = baseW, bodyH
	m.targetView.Width, m.targetView.Height = targetW, bodyH
	m.baseView.SetContent(strings.Join(baseBody, "\n"))
	m.targetView.SetContent(strings.Join(targetBody, "\n"))

	gutterCol := append([]string{"", "", ""}, gutter...)
	gutterCol = append(gutterCol, "")
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderDiffSidePane(baseW, height, baseTitle, m.baseView.View(), m.lead == layout.SideBase),
		lipgloss.NewStyle().Width(diffview.GutterWidth).Render(strings.Join(gutterCol, "\n")),
		m.renderDiffSidePane(targetW, height, targetTitle, m.targetView.View(), m.lead == layout.SideTarget),
	)
}

// diffBodies renders the visible rows of both panes and the connector gutter between them.
func (m Model) diffBodies(baseW, targetW, bodyH int) ([]string, []string, []string) {
	notice := ""
	switch {
	case m.session.Unavailable() != nil:
		notice = "diff unavailable: " + m.session.Unavailable().Error()
	case !m.loaded && m.loadingDiff:
		notice = "Computing diff..."
	case !m.loaded && len(m.files) == 0 && !m.loadingFiles:
		notice = "No changed files found in this repository."
	case !m.loaded:
		notice = "Select a file to load its diff."
	}
	if notice != "" {
		style := m.styles.Folded
		return diffview.Message(notice, baseW, bodyH, style), diffview.Message(notice, targetW, bodyH, style), make([]string, bodyH)
	}

	other := m.lead.Other()
	tops := map[layout.Side]int{m.lead: m.top, other: m.session.SyncRow(m.lead, m.top)}
	cursors := map[layout.Side]int{m.lead: m.cursor, other: m.session.SyncRow(m.lead, m.cursor)}
	rows := m.session.Rows()

	render := func(side layout.Side, width int, rows []layout.VisualRow, src linediff.Revision) []string {
		p := diffview.Pane{
			Side:      side,
			Rows:      rows,
			Source:    src,
			Width:     width,
			Cursor:    cursors[side],
			MaxCount:  m.cfg.MaxDisplayedLineCount,
			Highlight: m.highlight,
			Styles:    m.styles,
		}
		lines := p.Render(tops[side], tops[side]+bodyH)
		for len(lines) < bodyH {
			lines = append(lines, strings.Repeat(" ", width))
		}
		return lines
	}

	base := render(layout.SideBase, baseW, rows.Base, m.session.Base())
	target := render(layout.SideTarget, targetW, rows.Target, m.session.Target())
	gutter := diffview.Gutter(m.session.Blocks(), tops[layout.SideBase], tops[layout.SideTarget], bodyH, m.styles)
	return base, target, gutter
}

func (m Model) renderDiffSidePane(width, height int, title, body string, lead bool) string {
	borderColor := lipgloss.Color("245")
	if m.focus == focusDiff {
		borderColor = lipgloss.Color("39")
		if !lead {
			borderColor = lipgloss.Color("31")
		}
	}

	paneStyle := lipgloss.NewStyle().
		Width(max(1, width)).
		Height(max(1, height)).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor)

	innerW := max(1, width)
	header := lipgloss.NewStyle().Bold(lead).Width(innerW).MaxWidth(innerW).Render(ansi.Truncate(title, innerW, "…"))
	return paneStyle.Render(header + "\n\n" + body)
}

func (m Model) loadFilesCmd() tea.Cmd {
	root := m.root
	service := m.statusSvc
	return func() tea.Msg {
		items, err := service.ListChangedFiles(context.Background(), root)
		return filesLoadedMsg{items: items, err: err}
	}
}

func (m Model) waitForResultCmd() tea.Cmd {
	if m.runner == nil {
		return nil
	}
	results := m.runner.Results()
	return func() tea.Msg {
		res, ok := <-results
		return diffResultMsg{res: res, ok: ok}
	}
}

func (m Model) copyPatchCmd() tea.Cmd {
	if !m.loaded || m.session.Unavailable() != nil || m.selected < 0 {
		return nil
	}
	baseName, targetName := m.files[m.selected].names()
	patch, err := diffview.Unified(baseName, targetName, m.session.Base(), m.session.Target(), m.session.Segments(), m.cfg.ContextLines)
	term := m.term
	return func() tea.Msg {
		if err != nil {
			return clipboardResultMsg{err: err}
		}
		if len(patch) == 0 {
			return clipboardResultMsg{err: errors.New("no differences to copy")}
		}
		return clipboardResultMsg{err: clipboard.CopyText(string(patch), term)}
	}
}

func indexOfLabel(files []fileEntry, label string) int {
	if label == "" {
		return -1
	}
	for i, f := range files {
		if f.Label == label {
			return i
		}
	}
	return -1
}

func alertTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return alertTickMsg{}
	})
}

func (m *Model) setAlert(msg string) {
	m.alertMsg = msg
	m.alertUntil = time.Now().Add(alertDuration)
}

func truncateLinesToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "")
	}
	return strings.Join(lines, "\n")
}
