// Package tui is the interactive terminal browser for the working set.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/eshop-analytics/internal/cli"
	"github.com/Veraticus/eshop-analytics/internal/geo"
	"github.com/Veraticus/eshop-analytics/internal/model"
	"github.com/Veraticus/eshop-analytics/internal/pipeline"
	"github.com/Veraticus/eshop-analytics/internal/session"
	"github.com/Veraticus/eshop-analytics/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// chromeHeight is the number of lines around the table: title, tabs, box
// borders, table header, status and help.
const chromeHeight = 8

// Source is what the browser reads and mutates. *session.Session satisfies it.
type Source interface {
	Views() pipeline.Views
	Records() model.Collection
	Delete(ctx context.Context, id string) (session.Result, error)
}

type deletedMsg struct {
	err     error
	warning error
	id      string
}

// Model holds the browser state.
type Model struct {
	ctx         context.Context
	source      Source
	cities      *geo.Table
	theme       themes.Theme
	status      string
	statusStyle lipgloss.Style
	views       pipeline.Views
	recordIDs   []string
	help        help.Model
	keymap      KeyMap
	tables      [tabCount]table.Model
	width       int
	height      int
	active      Tab
	quitting    bool
}

// NewModel builds a browser over source. A nil table uses the built-in cities.
func NewModel(ctx context.Context, source Source, cities *geo.Table) Model {
	if cities == nil {
		cities = geo.Default()
	}

	m := Model{
		ctx:    ctx,
		source: source,
		cities: cities,
		theme:  themes.Default,
		keymap: DefaultKeyMap(),
		help:   help.New(),
		active: TabCustomers,
	}

	styles := table.DefaultStyles()
	styles.Header = m.theme.TableHeader
	styles.Selected = m.theme.Selected
	for i := range m.tables {
		m.tables[i] = table.New(
			table.WithColumns(tabColumns[i]),
			table.WithHeight(15),
			table.WithStyles(styles),
		)
	}
	m.tables[m.active].Focus()
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		for i := range m.tables {
			m.tables[i].SetHeight(max(msg.Height-chromeHeight, 3))
			m.tables[i].SetWidth(msg.Width - 2)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Delete failed: %v", msg.err), m.theme.StatusError)
			return m, nil
		}
		m.reload()
		if msg.warning != nil {
			m.setStatus("Deleted locally; store not updated: "+msg.warning.Error(), m.theme.StatusWarning)
		} else {
			m.setStatus("Deleted record "+msg.id, m.theme.StatusInfo)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.NextTab):
			m.switchTab((m.active + 1) % tabCount)
			return m, nil
		case key.Matches(msg, m.keymap.PrevTab):
			m.switchTab((m.active + tabCount - 1) % tabCount)
			return m, nil
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keymap.Refresh):
			m.reload()
			m.setStatus("Refreshed", m.theme.StatusInfo)
			return m, nil
		case key.Matches(msg, m.keymap.Delete):
			return m, m.deleteSelected()
		}
	}

	var cmd tea.Cmd
	m.tables[m.active], cmd = m.tables[m.active].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	metrics := m.views.Metrics
	summary := m.theme.Muted.Render(fmt.Sprintf("%s revenue · %d customers · %d cities · %d records",
		cli.FormatBRL(metrics.TotalRevenue), metrics.TotalCustomers, metrics.CitiesServed, metrics.TotalRecords))
	header := m.theme.Title.Render(cli.ShopIcon+" E-Shop Brasil") + "  " + summary

	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		style := m.theme.InactiveTab
		if t == m.active {
			style = m.theme.ActiveTab
		}
		tabs = append(tabs, style.Render(t.String()))
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n")
	b.WriteString(m.theme.BorderedBox.Render(m.tables[m.active].View()) + "\n")
	if m.status != "" {
		b.WriteString(m.statusStyle.Render(m.status))
	}
	b.WriteString("\n" + m.help.View(m.keymap))
	return b.String()
}

// Active returns the tab on screen.
func (m Model) Active() Tab {
	return m.active
}

func (m *Model) switchTab(t Tab) {
	m.tables[m.active].Blur()
	m.active = t
	m.tables[m.active].Focus()
	m.status = ""
}

func (m *Model) setStatus(text string, style lipgloss.Style) {
	m.status = text
	m.statusStyle = style
}

// reload re-reads the source and refreshes every table.
func (m *Model) reload() {
	m.views = m.source.Views()
	records := m.source.Records()

	m.recordIDs = make([]string, 0, len(records))
	for _, r := range records {
		m.recordIDs = append(m.recordIDs, r.ID)
	}

	rows := tabRows(m.views, records, m.cities)
	for i := range m.tables {
		m.tables[i].SetRows(rows[i])
		if last := len(rows[i]) - 1; m.tables[i].Cursor() > last {
			m.tables[i].SetCursor(max(last, 0))
		}
	}
}

func (m *Model) deleteSelected() tea.Cmd {
	if m.active != TabRecords {
		m.setStatus("Switch to the Records view to delete a sale", m.theme.StatusWarning)
		return nil
	}
	cursor := m.tables[TabRecords].Cursor()
	if cursor < 0 || cursor >= len(m.recordIDs) {
		return nil
	}

	id := m.recordIDs[cursor]
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		res, err := source.Delete(ctx, id)
		return deletedMsg{id: id, warning: res.Warning, err: err}
	}
}
