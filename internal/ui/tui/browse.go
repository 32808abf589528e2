package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/persona/internal/model"
	"github.com/klauern/persona/internal/tree"
)

// BrowseAction is what the user chose when leaving the browser.
type BrowseAction int

const (
	// BrowseActionNone means the user quit.
	BrowseActionNone BrowseAction = iota
	// BrowseActionPrint means the user wants the selected document printed.
	BrowseActionPrint
	// BrowseActionPath means the user wants the selected path printed.
	BrowseActionPath
)

// BrowseResult is returned by RunBrowse.
type BrowseResult struct {
	Action BrowseAction
	Entity model.Entity
}

type browseKeyMap struct {
	Detail   key.Binding
	Print    key.Binding
	Path     key.Binding
	Filter   key.Binding
	ClearFlt key.Binding
	Help     key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultBrowseKeyMap() browseKeyMap {
	return browseKeyMap{
		Detail: key.NewBinding(
			key.WithKeys("enter", "v"),
			key.WithHelp("enter/v", "details"),
		),
		Print: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "print document"),
		),
		Path: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "print path"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		ClearFlt: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear filter"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

var browseStyles = struct {
	Title       lipgloss.Style
	Help        lipgloss.Style
	Filter      lipgloss.Style
	FilterInput lipgloss.Style
	Status      lipgloss.Style
	Section     lipgloss.Style
	Label       lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Help:        lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Filter:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	FilterInput: lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	Section:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	Label:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

type browsePhase int

const (
	browsePhaseList browsePhase = iota
	browsePhaseDetail
)

const (
	browseNameWidth     = 24
	browseCategoryWidth = 24
	browseDescWidth     = 50
	browseColumnPadding = 2
	browseColumnCount   = 3
	browseChromeHeight  = 8
)

type browseColumnWidths struct {
	name     int
	category int
	desc     int
}

// BrowseModel is the BubbleTea model for browsing catalog entities.
type BrowseModel struct {
	table     table.Model
	entries   []tree.Entry
	filtered  []tree.Entry
	keys      browseKeyMap
	widths    browseColumnWidths
	result    BrowseResult
	filter    string
	filtering bool
	showHelp  bool
	width     int
	height    int
	phase     browsePhase
	detail    tree.Entry
	viewport  viewport.Model
	ready     bool
	quitting  bool
}

// NewBrowseModel creates a browser over entries, kept in the given order.
func NewBrowseModel(entries []tree.Entry) BrowseModel {
	columns, widths := browseColumns(0)

	m := BrowseModel{
		entries:  entries,
		filtered: entries,
		keys:     defaultBrowseKeyMap(),
		widths:   widths,
		phase:    browsePhaseList,
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(m.rows(entries)),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m.table = t
	return m
}

func browseColumns(totalWidth int) ([]table.Column, browseColumnWidths) {
	widths := browseColumnWidths{
		name:     browseNameWidth,
		category: browseCategoryWidth,
		desc:     browseDescWidth,
	}

	base := widths.name + widths.category + widths.desc + browseColumnPadding*browseColumnCount
	if extra := totalWidth - base; totalWidth > 0 && extra > 0 {
		widths.name += extra / 4
		widths.category += extra / 4
		widths.desc += extra - 2*(extra/4)
	}

	return []table.Column{
		{Title: "Name", Width: widths.name},
		{Title: "Category", Width: widths.category},
		{Title: "Description", Width: widths.desc},
	}, widths
}

func (m BrowseModel) rows(entries []tree.Entry) []table.Row {
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			truncateText(e.Entity.Name, m.widths.name),
			truncateText(categoryLabel(e.Category), m.widths.category),
			truncateText(e.Entity.Description, m.widths.desc),
		}
	}
	return rows
}

// Init implements tea.Model.
func (m BrowseModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.phase == browsePhaseDetail {
		return m.updateDetail(msg)
	}
	return m.updateList(msg)
}

func (m BrowseModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-browseChromeHeight, 5))
		columns, widths := browseColumns(msg.Width)
		m.widths = widths
		m.table.SetColumns(columns)
		m.table.SetRows(m.rows(m.filtered))

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg), nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, nil

		case key.Matches(msg, m.keys.ClearFlt):
			m.filter = ""
			m.applyFilter()
			return m, nil

		case key.Matches(msg, m.keys.Detail):
			if e, ok := m.selected(); ok {
				m.detail = e
				m.phase = browsePhaseDetail
				m.ready = false
				m.ensureViewport()
			}
			return m, nil

		case key.Matches(msg, m.keys.Print):
			return m.finish(BrowseActionPrint)

		case key.Matches(msg, m.keys.Path):
			return m.finish(BrowseActionPath)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m BrowseModel) updateFilter(msg tea.KeyMsg) BrowseModel {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
	case tea.KeyEsc:
		m.filter = ""
		m.filtering = false
		m.applyFilter()
	case tea.KeyBackspace:
		if r := []rune(m.filter); len(r) > 0 {
			m.filter = string(r[:len(r)-1])
			m.applyFilter()
		}
	case tea.KeySpace:
		m.filter += " "
		m.applyFilter()
	case tea.KeyRunes:
		m.filter += string(msg.Runes)
		m.applyFilter()
	}
	return m
}

func (m BrowseModel) finish(action BrowseAction) (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.result = BrowseResult{Action: action, Entity: e.Entity}
	m.quitting = true
	return m, tea.Quit
}

func (m BrowseModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureViewport()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.phase = browsePhaseList
			return m, nil
		case key.Matches(msg, m.keys.Print):
			m.result = BrowseResult{Action: BrowseActionPrint, Entity: m.detail.Entity}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// applyFilter keeps entries whose name, category or description contain
// the filter, case-insensitively.
func (m *BrowseModel) applyFilter() {
	if m.filter == "" {
		m.filtered = m.entries
	} else {
		needle := strings.ToLower(m.filter)
		var filtered []tree.Entry
		for _, e := range m.entries {
			if strings.Contains(strings.ToLower(e.Entity.Name), needle) ||
				strings.Contains(strings.ToLower(e.Category), needle) ||
				strings.Contains(strings.ToLower(e.Entity.Description), needle) {
				filtered = append(filtered, e)
			}
		}
		m.filtered = filtered
	}
	m.table.SetRows(m.rows(m.filtered))
	m.table.SetCursor(0)
}

func (m BrowseModel) selected() (tree.Entry, bool) {
	cursor := m.table.Cursor()
	if cursor >= 0 && cursor < len(m.filtered) {
		return m.filtered[cursor], true
	}
	return tree.Entry{}, false
}

// View implements tea.Model.
func (m BrowseModel) View() string {
	if m.quitting {
		return ""
	}
	if m.phase == browsePhaseDetail {
		return m.viewDetail()
	}

	var b strings.Builder
	b.WriteString(browseStyles.Title.Render("Persona Catalog"))
	b.WriteString("\n\n")

	if m.filter != "" || m.filtering {
		val := browseStyles.FilterInput.Render(m.filter)
		if m.filtering {
			val += "█"
		}
		b.WriteString(browseStyles.Filter.Render("Filter: ") + val + "\n\n")
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")

	status := fmt.Sprintf("%d entities", len(m.filtered))
	if m.filter != "" {
		status = fmt.Sprintf("%d of %d entities (filtered)", len(m.filtered), len(m.entries))
	}
	b.WriteString(browseStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(browseStyles.Help.Render(browseFullHelp))
	} else {
		b.WriteString(browseStyles.Help.Render(strings.Join([]string{
			"↑/↓ navigate", "enter details", "o print", "p path", "/ filter", "? help", "q quit",
		}, " • ")))
	}
	return b.String()
}

func (m BrowseModel) viewDetail() string {
	m.ensureViewport()
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(browseStyles.Title.Render(m.detail.Entity.Name))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	status := fmt.Sprintf("Scroll: %d%% • Press b or Esc to go back", int(m.viewport.ScrollPercent()*100))
	b.WriteString(browseStyles.Status.Render(status))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(browseStyles.Help.Render(browseDetailHelp))
	} else {
		b.WriteString(browseStyles.Help.Render("↑/↓ scroll • o print • b back • ? help • q quit"))
	}
	return b.String()
}

func (m *BrowseModel) ensureViewport() {
	if m.width <= 0 || m.height <= 0 {
		return
	}

	height := max(m.height-browseChromeHeight, 5)
	if !m.ready {
		m.viewport = viewport.New(m.width-2, height)
		m.ready = true
	} else {
		m.viewport.Width = m.width - 2
		m.viewport.Height = height
	}
	m.viewport.SetContent(detailContent(m.detail, m.viewport.Width))
}

// detailContent renders the fields and body of one entity.
func detailContent(e tree.Entry, width int) string {
	var b strings.Builder
	width = max(width, 20)

	label := func(name, value string) {
		b.WriteString("  " + browseStyles.Label.Render(name+":") + " " + value + "\n")
	}

	b.WriteString(browseStyles.Section.Render("Entity"))
	b.WriteString("\n")
	label("Name", e.Entity.Name)
	label("Category", categoryLabel(e.Category))
	label("Path", e.Entity.Path)
	for _, f := range e.Entity.Other {
		label(f.Name(), fieldText(f.Value))
	}

	b.WriteString("\n")
	b.WriteString(browseStyles.Section.Render("Description"))
	b.WriteString("\n")
	b.WriteString(wrapText(e.Entity.Description, width))
	b.WriteString("\n\n")

	b.WriteString(browseStyles.Section.Render("Document"))
	b.WriteString("\n")
	b.WriteString(e.Entity.Body)
	return b.String()
}

// Result returns the outcome of the interaction.
func (m BrowseModel) Result() BrowseResult {
	return m.result
}

const browseFullHelp = `Navigation:
  ↑/k      Move up
  ↓/j      Move down
  g/Home   Go to top
  G/End    Go to bottom

Actions:
  Enter/v  View details
  o        Print the document and quit
  p        Print the document path and quit

Filter:
  /        Start filtering (by name, category or description)
  Esc      Clear filter
  Enter    Finish filtering

General:
  ?        Toggle full help
  q        Quit`

const browseDetailHelp = `Navigation:
  ↑/k      Scroll up
  ↓/j      Scroll down

Actions:
  o        Print the document and quit
  b/Esc    Back to list

General:
  ?        Toggle full help
  q        Quit`

// RunBrowse runs the interactive browser over entries.
func RunBrowse(entries []tree.Entry) (BrowseResult, error) {
	if len(entries) == 0 {
		return BrowseResult{}, nil
	}

	final, err := Run(NewBrowseModel(entries))
	if err != nil {
		return BrowseResult{}, err
	}
	if m, ok := final.(BrowseModel); ok {
		return m.Result(), nil
	}
	return BrowseResult{}, nil
}
