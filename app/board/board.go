// Package board is the interactive terminal view over the task list. The
// user picks tags and sees only the tasks carrying all of them.
package board

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todo-tags/app/filter"
	"todo-tags/app/models"
)

// Fetcher loads tasks and tags. *client.Client satisfies it.
type Fetcher interface {
	ListTasks(ctx context.Context, tagIDs []int64) ([]models.Task, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
}

const fetchTimeout = 10 * time.Second

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	cursorStyle   = lipgloss.NewStyle().Bold(true)
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#565f89"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

type loadedMsg struct {
	tasks []models.Task
	tags  []models.Tag
}

type errMsg struct{ err error }

// Model is the bubbletea model of the board.
type Model struct {
	fetch    Fetcher
	keys     KeyMap
	tasks    []models.Task
	tags     []models.Tag
	selected filter.Selection
	cursor   int
	loading  bool
	err      error
	width    int
}

// New creates a board backed by fetch.
func New(fetch Fetcher) *Model {
	return &Model{
		fetch:    fetch,
		keys:     DefaultKeyMap(),
		selected: filter.NewSelection(),
		loading:  true,
	}
}

// Init starts the first fetch.
func (m *Model) Init() tea.Cmd {
	return m.load
}

func (m *Model) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	tasks, err := m.fetch.ListTasks(ctx, nil)
	if err != nil {
		return errMsg{err}
	}
	tags, err := m.fetch.ListTags(ctx)
	if err != nil {
		return errMsg{err}
	}
	return loadedMsg{tasks: tasks, tags: tags}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case loadedMsg:
		m.loading, m.err = false, nil
		m.tasks, m.tags = msg.tasks, msg.tags
		m.pruneSelection()
		if m.cursor >= len(m.tags) {
			m.cursor = max(0, len(m.tags)-1)
		}
		return m, nil

	case errMsg:
		m.loading, m.err = false, msg.err
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.tags)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.tags) > 0 {
				m.selected.Toggle(m.tags[m.cursor].ID)
			}
		case key.Matches(msg, m.keys.Clear):
			m.selected = filter.NewSelection()
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.load
		}
	}
	return m, nil
}

// pruneSelection drops selected tags that no longer exist.
func (m *Model) pruneSelection() {
	known := make(map[int64]bool, len(m.tags))
	for _, tag := range m.tags {
		known[tag.ID] = true
	}
	for _, id := range m.selected.IDs() {
		if !known[id] {
			m.selected.Toggle(id)
		}
	}
}

// Visible returns the tasks matching the current selection.
func (m *Model) Visible() []models.Task {
	return filter.Tasks(m.tasks, m.selected)
}

// Selected returns the selected tag ids in ascending order.
func (m *Model) Selected() []int64 {
	return m.selected.IDs()
}

func tagStyle(tag models.Tag) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(tag.DisplayColor()))
}

// View renders the board.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tags"))
	b.WriteString("\n")
	if len(m.tags) == 0 {
		b.WriteString(dimStyle.Render("  no tags"))
		b.WriteString("\n")
	}
	for i, tag := range m.tags {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		style := tagStyle(tag)
		if m.selected.Has(tag.ID) {
			box = "[x]"
			style = style.Inherit(selectedStyle)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, box, style.Render(tag.Name))
	}

	visible := m.Visible()
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Tasks (%d/%d)", len(visible), len(m.tasks))))
	b.WriteString("\n")
	for _, task := range visible {
		name := task.Name
		if task.Done {
			name = doneStyle.Render(name)
		}
		labels := make([]string, 0, len(task.Tags))
		for _, tag := range task.Tags {
			labels = append(labels, tagStyle(tag).Render("#"+tag.Name))
		}
		fmt.Fprintf(&b, "  %s %s\n", name, strings.Join(labels, " "))
	}

	b.WriteString("\n")
	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("loading..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	help := make([]string, 0, len(m.keys.Help()))
	for _, binding := range m.keys.Help() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(dimStyle.Render(strings.Join(help, " • ")))
	return b.String()
}
