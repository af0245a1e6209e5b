// Package ui renders the live filtered stream in the terminal.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/sift/internal/feed"
)

// refreshInterval drives periodic re-renders of the live document.
const refreshInterval = 500 * time.Millisecond

// Snapshot is what the UI shows on each refresh: a consistent view of
// the document plus pipeline status. App never reaches into the
// pipeline directly; it receives snapshots via messages.
type Snapshot struct {
	Items      []feed.ItemView
	State      string
	Generation int
	CacheSize  int
}

// RefreshTick requests a new snapshot.
type RefreshTick struct{}

// SnapshotLoaded delivers a fresh snapshot.
type SnapshotLoaded struct {
	Snap Snapshot
}

// App is the root Bubble Tea model.
type App struct {
	loadSnapshot func() tea.Cmd
	repass       func() tea.Cmd

	snap       Snapshot
	cursor     int
	showHidden bool
	width      int
	height     int
	spin       spinner.Model
}

// NewApp creates the stream view. loadSnapshot returns a Cmd producing
// a SnapshotLoaded; repass asks the pipeline for a full re-pass.
func NewApp(loadSnapshot func() tea.Cmd, repass func() tea.Cmd) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return App{
		loadSnapshot: loadSnapshot,
		repass:       repass,
		spin:         sp,
	}
}

// Init starts the spinner and the first snapshot load.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spin.Tick, tick()}
	if a.loadSnapshot != nil {
		cmds = append(cmds, a.loadSnapshot())
	}
	return tea.Batch(cmds...)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return RefreshTick{}
	})
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case RefreshTick:
		cmds := []tea.Cmd{tick()}
		if a.loadSnapshot != nil {
			cmds = append(cmds, a.loadSnapshot())
		}
		return a, tea.Batch(cmds...)

	case SnapshotLoaded:
		a.snap = msg.Snap
		if visible := len(a.visibleItems()); a.cursor >= visible && visible > 0 {
			a.cursor = visible - 1
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "j", "down":
		if a.cursor < len(a.visibleItems())-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}

	case "h":
		a.showHidden = !a.showHidden
		a.cursor = 0

	case "r":
		if a.repass != nil {
			return a, a.repass()
		}
	}
	return a, nil
}

// visibleItems applies the hidden-item toggle.
func (a App) visibleItems() []feed.ItemView {
	if a.showHidden {
		return a.snap.Items
	}
	shown := make([]feed.ItemView, 0, len(a.snap.Items))
	for _, it := range a.snap.Items {
		if !it.Hidden {
			shown = append(shown, it)
		}
	}
	return shown
}

// View renders the stream.
func (a App) View() string {
	var b strings.Builder

	b.WriteString(a.statusLine())
	b.WriteString("\n\n")

	items := a.visibleItems()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("  waiting for content..."))
		b.WriteString("\n")
	}

	maxRows := a.height - 5
	if maxRows < 1 {
		maxRows = len(items)
	}
	for i, it := range items {
		if i >= maxRows {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(items)-maxRows)))
			b.WriteString("\n")
			break
		}
		b.WriteString(a.renderItem(it, i == a.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k move · h toggle hidden · r re-filter · q quit"))
	return b.String()
}

func (a App) statusLine() string {
	hidden := 0
	for _, it := range a.snap.Items {
		if it.Hidden {
			hidden++
		}
	}

	status := a.snap.State
	if status != "ready" {
		status = a.spin.View() + " " + status
	}

	return titleStyle.Render("sift") + "  " +
		statusStyle.Render(fmt.Sprintf("%s · %d items · %d hidden · gen %d · cache %d",
			status, len(a.snap.Items), hidden, a.snap.Generation, a.snap.CacheSize))
}

func (a App) renderItem(it feed.ItemView, selected bool) string {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("> ")
	}

	title := it.Title
	if title == "" {
		title = dimStyle.Render("(untitled)")
	}

	line := marker + titleFor(it).Render(title)
	if it.Channel != "" {
		line += " " + channelStyle.Render(it.Channel)
	}
	for _, label := range it.Labels {
		line += " " + badgeStyle.Render(label)
	}
	return line
}

// titleFor picks the title style: hidden items are struck and dimmed.
func titleFor(it feed.ItemView) lipgloss.Style {
	if it.Hidden {
		return hiddenStyle
	}
	return itemStyle
}
