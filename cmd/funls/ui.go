package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"funls/internal/index"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type moduleItem struct {
	name, desc string
}

func (i moduleItem) Title() string       { return i.name }
func (i moduleItem) Description() string { return i.desc }
func (i moduleItem) FilterValue() string { return i.name + i.desc }

type model struct {
	list       list.Model
	summary    index.ScanSummary
	lastUpdate time.Time
}

type scanMsg struct {
	summary index.ScanSummary
	modules []moduleItem
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case scanMsg:
		m.summary = msg.summary
		m.lastUpdate = time.Now()
		m.list.SetItems(toListItems(msg.modules))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last scan: %v | %d files | %v",
		m.lastUpdate.Format("15:04:05"), m.summary.Files, m.summary.Duration.Round(time.Millisecond)))

	summary := countStyle.Render(fmt.Sprintf("%d modules | %d symbols",
		m.summary.Modules, m.summary.Symbols))

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Fun Workspace Index"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func toListItems(modules []moduleItem) []list.Item {
	items := make([]list.Item, 0, len(modules))
	for _, mod := range modules {
		items = append(items, mod)
	}
	return items
}

func initialModel(summary index.ScanSummary, modules []moduleItem) model {
	l := list.New(toListItems(modules), list.NewDefaultDelegate(), 0, 0)
	l.Title = "Indexed Modules"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		summary:    summary,
		lastUpdate: time.Now(),
	}
}
