// Package ui provides optional terminal interfaces.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/nibzard/roadmap-go/internal/schedule"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// debounceInterval coalesces editor write bursts into one regenerate.
const debounceInterval = 250 * time.Millisecond

// Generator produces a fresh roadmap from the current catalog state.
type Generator func(ctx context.Context) (*schedule.Roadmap, error)

// StatusWriter persists task status overrides between generations.
type StatusWriter interface {
	SetStatus(ctx context.Context, templateID string, status templates.Status) error
}

// Options wires the TUI to the rest of the tool.
type Options struct {
	// TemplatesPath is watched for changes; empty disables watching.
	TemplatesPath string

	// Generate builds the displayed roadmap. Required.
	Generate Generator

	// Statuses persists status cycling. Nil disables the s key.
	Statuses StatusWriter
}

// RunTUI starts the roadmap browser.
func RunTUI(ctx context.Context, opts Options) error {
	if opts.Generate == nil {
		return errors.New("tui needs a generator")
	}
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	var changes chan struct{}
	if opts.TemplatesPath != "" {
		changes = make(chan struct{}, 1)
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go watchTemplates(watchCtx, opts.TemplatesPath, changes)
	}

	model := newTUIModel(ctx, opts, changes)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		// Killed by the surrounding context, not a TUI failure.
		return ctx.Err()
	}
	return err
}

// watchTemplates forwards debounced template file changes to ch. The
// directory is watched and events matched by basename because editors
// replace files via rename.
func watchTemplates(ctx context.Context, path string, ch chan<- struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return
	}
	base := filepath.Base(path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	notify := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceInterval, func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.EqualFold(filepath.Base(ev.Name), base) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				notify()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

type tuiModel struct {
	ctx     context.Context
	opts    Options
	changes <-chan struct{}

	roadmap    *schedule.Roadmap
	genErr     error
	generating bool

	rows       []int // indexes into roadmap.Tasks after filtering
	cursor     int
	selectedID string

	categories    []string
	categoryIdx   int // 0 = all, i>0 = categories[i-1]
	conflictsOnly bool
	showHelp      bool
	note          string

	width  int
	height int
}

type roadmapMsg struct {
	roadmap *schedule.Roadmap
	err     error
}

type fileChangedMsg struct{}

func newTUIModel(ctx context.Context, opts Options, changes <-chan struct{}) *tuiModel {
	return &tuiModel{
		ctx:        ctx,
		opts:       opts,
		changes:    changes,
		generating: true,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.regenerateCmd()}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

func (m *tuiModel) regenerateCmd() tea.Cmd {
	return func() tea.Msg {
		rm, err := m.opts.Generate(m.ctx)
		return roadmapMsg{roadmap: rm, err: err}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return fileChangedMsg{}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case roadmapMsg:
		m.generating = false
		if msg.err != nil {
			m.genErr = msg.err
			return m, nil
		}
		m.genErr = nil
		m.roadmap = msg.roadmap
		m.categories = msg.roadmap.Categories()
		if m.categoryIdx > len(m.categories) {
			m.categoryIdx = 0
		}
		m.rebuildRows()
		return m, nil

	case fileChangedMsg:
		m.note = "templates changed, regenerating"
		m.generating = true
		return m, tea.Batch(m.regenerateCmd(), waitForChange(m.changes))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "h", "?":
		m.showHelp = !m.showHelp
		return m, nil
	case "esc":
		m.showHelp = false
		m.note = ""
		return m, nil
	}
	if m.showHelp {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "s":
		return m.cycleStatus()
	case "c":
		m.categoryIdx = (m.categoryIdx + 1) % (len(m.categories) + 1)
		if cat := m.activeCategory(); cat != "" {
			m.note = "category: " + cat
		} else {
			m.note = "category filter cleared"
		}
		m.rebuildRows()
	case "x":
		m.conflictsOnly = !m.conflictsOnly
		if m.conflictsOnly {
			m.note = "showing conflicts only"
		} else {
			m.note = "showing all tasks"
		}
		m.rebuildRows()
	case "r":
		m.note = "regenerating"
		m.generating = true
		return m, m.regenerateCmd()
	}
	return m, nil
}

func (m *tuiModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.selectedID = m.roadmap.Tasks[m.rows[m.cursor]].ID
}

// cycleStatus advances the selected task's status and persists it as an
// override, then regenerates so the engine re-applies policy.
func (m *tuiModel) cycleStatus() (tea.Model, tea.Cmd) {
	if m.opts.Statuses == nil {
		m.note = "status store not available"
		return m, nil
	}
	task := m.selectedTask()
	if task == nil {
		return m, nil
	}
	next := nextStatus(task.Status)
	if err := m.opts.Statuses.SetStatus(m.ctx, task.ID, next); err != nil {
		m.note = "save status: " + err.Error()
		return m, nil
	}
	m.note = fmt.Sprintf("%s status set to %s", task.ID, next)
	m.generating = true
	return m, m.regenerateCmd()
}

func nextStatus(s templates.Status) templates.Status {
	order := templates.ValidStatuses()
	for i, st := range order {
		if st == s {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

func (m *tuiModel) activeCategory() string {
	if m.categoryIdx == 0 || m.categoryIdx > len(m.categories) {
		return ""
	}
	return m.categories[m.categoryIdx-1]
}

// rebuildRows recomputes the visible rows and keeps the selection on the
// same task when it survives the filter.
func (m *tuiModel) rebuildRows() {
	m.rows = m.rows[:0]
	if m.roadmap == nil {
		m.cursor = 0
		return
	}
	category := m.activeCategory()
	for i := range m.roadmap.Tasks {
		t := &m.roadmap.Tasks[i]
		if category != "" && t.Category != category {
			continue
		}
		if m.conflictsOnly && !t.Conflict {
			continue
		}
		m.rows = append(m.rows, i)
	}

	m.cursor = 0
	for pos, idx := range m.rows {
		if m.roadmap.Tasks[idx].ID == m.selectedID {
			m.cursor = pos
			break
		}
	}
	if len(m.rows) == 0 {
		m.selectedID = ""
		return
	}
	m.selectedID = m.roadmap.Tasks[m.rows[m.cursor]].ID
}

func (m *tuiModel) selectedTask() *schedule.ScheduledTask {
	if m.roadmap == nil || len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.roadmap.Tasks[m.rows[m.cursor]]
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	if m.genErr != nil {
		b.WriteString("Generation failed:\n")
		b.WriteString("  " + m.genErr.Error() + "\n\n")
		b.WriteString("Fix the templates file and press r to retry.\n\n")
		writeFooter(&b)
		return b.String()
	}
	if m.roadmap == nil {
		b.WriteString("Generating...\n\n")
		writeFooter(&b)
		return b.String()
	}

	m.writeSummary(&b)
	m.writeTable(&b)
	m.writeDetail(&b)

	if m.note != "" {
		b.WriteString(m.note + "\n")
	} else if m.generating {
		b.WriteString("regenerating...\n")
	} else {
		b.WriteString("\n")
	}
	writeFooter(&b)
	return b.String()
}

func (m *tuiModel) writeSummary(b *strings.Builder) {
	fmt.Fprintf(b, "%d tasks, %d in conflict, generated %s\n",
		len(m.roadmap.Tasks), m.roadmap.Conflicts,
		m.roadmap.GeneratedAt.Format("2006-01-02 15:04:05"))

	var filters []string
	if cat := m.activeCategory(); cat != "" {
		filters = append(filters, "category="+cat)
	}
	if m.conflictsOnly {
		filters = append(filters, "conflicts only")
	}
	if len(filters) > 0 {
		b.WriteString("Filter: " + strings.Join(filters, ", ") + "\n")
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeTable(b *strings.Builder) {
	if len(m.rows) == 0 {
		b.WriteString("  No tasks match the current filter.\n\n")
		return
	}

	fmt.Fprintf(b, "     %-4s  %-34s  %-10s  %-10s  %-10s  %s\n",
		"ID", "Title", "Category", "Start", "End", "Status")

	visible := m.visibleRows()
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for pos := start; pos < end; pos++ {
		t := &m.roadmap.Tasks[m.rows[pos]]
		mark := "  "
		if pos == m.cursor {
			mark = "> "
		}
		conflict := " "
		if t.Conflict {
			conflict = "*"
		}
		fmt.Fprintf(b, "%s%s %-4s  %-34s  %-10s  %s  %s  %s %s\n",
			mark, conflict, t.ID,
			truncate(t.Title, 34), truncate(t.Category, 10),
			schedule.FormatDate(t.Start), schedule.FormatDate(t.End),
			statusIcon(t.Status), t.Status)
	}
	if end < len(m.rows) {
		fmt.Fprintf(b, "  ... %d more\n", len(m.rows)-end)
	}
	b.WriteString("\n")
}

func (m *tuiModel) writeDetail(b *strings.Builder) {
	task := m.selectedTask()
	if task == nil {
		return
	}
	fmt.Fprintf(b, "Selected: %s %s\n", task.ID, task.Title)
	if task.Conflict {
		b.WriteString("  conflict: " + task.Reason + "\n")
	} else {
		b.WriteString("  on schedule\n")
	}
	b.WriteString("\n")
}

// visibleRows bounds the table to the terminal, leaving room for the
// title, summary, detail, and footer chrome.
func (m *tuiModel) visibleRows() int {
	if m.height == 0 {
		return 20
	}
	visible := m.height - 12
	if visible < 3 {
		return 3
	}
	return visible
}

func writeTitle(b *strings.Builder) {
	title := "Roadmap"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  up/k, down/j Move selection\n")
	b.WriteString("  s            Cycle selected task's status (saved as override)\n")
	b.WriteString("  c            Cycle category filter\n")
	b.WriteString("  x            Toggle conflicts-only view\n")
	b.WriteString("  r            Regenerate now\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  esc          Close help, clear message\n\n")
	b.WriteString("The roadmap also regenerates when the templates file changes.\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString("Press h for help | q to quit\n")
}

func statusIcon(s templates.Status) string {
	switch s {
	case templates.StatusPending:
		return "."
	case templates.StatusInProgress:
		return ">"
	case templates.StatusDone:
		return "x"
	case templates.StatusBlocked:
		return "!"
	case templates.StatusSkipped:
		return "~"
	}
	return " "
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, _ := f.Stat()
	return (info.Mode() & os.ModeCharDevice) != 0
}
