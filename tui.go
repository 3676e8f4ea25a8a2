package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
)

// ==== Modo TUI (Bubble Tea) ====

const (
	nameWidth = 28
	cellWidth = 12
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	badgeStyles = map[Intent]lipgloss.Style{
		IntentFavor:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		IntentContra:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		IntentAbstencion: lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		IntentAusente:    lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		IntentSinVoto:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		IntentOtro:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

// datasetLoadedMsg leva a xeración da carga que o produciu.
type datasetLoadedMsg struct {
	gen     uint64
	records []PersonRecord
	err     error
}

type tuiModel struct {
	loader  *Loader
	cat     Catalogue
	list    list.Model
	input   textinput.Model
	spin    spinner.Model
	view    View
	q       string
	page    int
	perPage int
	colOff  int
	maxCols int
	status  string
	focus   int // 0=list, 1=busca
	pending tea.Cmd
}

type datasetItem Dataset

func (i datasetItem) FilterValue() string { return i.Name }
func (i datasetItem) Title() string       { return i.Label }
func (i datasetItem) Description() string { return i.Source }

func initialTUI(loader *Loader, cat Catalogue, def string) tuiModel {
	items := make([]list.Item, len(cat.Datasets))
	sel := 0
	for i, d := range cat.Datasets {
		items[i] = datasetItem(d)
		if d.Name == def {
			sel = i
		}
	}
	l := list.New(items, list.NewDefaultDelegate(), 24, 20)
	l.Title = "Datasets"
	l.SetShowHelp(false)
	l.Select(sel)

	in := textinput.New()
	in.Placeholder = "Buscar congresista por nombre... (/ para focar)"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := tuiModel{loader: loader, cat: cat, list: l, input: in, spin: sp, page: 1, perPage: 15, maxCols: 6}
	if ds, ok := cat.Lookup(def); ok {
		m.pending = m.selectDataset(ds)
	}
	m.refresh()
	return m
}

func (m tuiModel) Init() tea.Cmd { return m.pending }

// selectDataset descarta o estado anterior e lanza a carga nova.
func (m *tuiModel) selectDataset(ds Dataset) tea.Cmd {
	gen, ctx := m.loader.Begin(context.Background(), ds)
	m.page, m.colOff = 1, 0
	m.refresh()
	loader := m.loader
	load := func() tea.Msg {
		records, err := loader.Fetch(ctx, ds)
		return datasetLoadedMsg{gen: gen, records: records, err: err}
	}
	return tea.Batch(load, m.spin.Tick)
}

func (m *tuiModel) refresh() {
	m.view = Resolve(m.loader.State(), m.q)
	if v, ok := m.view.(ReadyView); ok {
		pages := max(1, (len(v.Records)+m.perPage-1)/m.perPage)
		m.page = min(max(m.page, 1), pages)
		m.colOff = min(m.colOff, max(0, len(v.Columns)-1))
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case datasetLoadedMsg:
		if m.loader.Finish(msg.gen, msg.records, msg.err) {
			m.refresh()
		}
		return m, nil
	case spinner.TickMsg:
		if _, loading := m.view.(LoadingView); !loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width/4, msg.Height-5)
		m.maxCols = max(1, (msg.Width*3/4-nameWidth-2)/(cellWidth+1))
		m.perPage = max(5, msg.Height-16)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if m.focus == 1 {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "ctrl+c", "Q":
			return m, tea.Quit
		case "/":
			m.focus = 1
			return m, m.input.Focus()
		case "enter":
			if it, ok := m.list.SelectedItem().(datasetItem); ok {
				m.status = ""
				return m, m.selectDataset(Dataset(it))
			}
		case "N":
			m.page++
			m.refresh()
			return m, nil
		case "P":
			m.page--
			m.refresh()
			return m, nil
		case "]":
			m.colOff += m.maxCols
			m.refresh()
			return m, nil
		case "[":
			m.colOff = max(0, m.colOff-m.maxCols)
			return m, nil
		case "E", "X", "S":
			m.status = m.export(msg.String())
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m tuiModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.focus = 0
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != m.q {
		m.q = m.input.Value()
		m.page = 1
		m.refresh()
	}
	return m, cmd
}

func (m tuiModel) export(key string) string {
	v, ok := m.view.(ReadyView)
	if !ok {
		return "Non hai datos para exportar"
	}
	var (
		fn  string
		err error
	)
	now := time.Now()
	switch key {
	case "E":
		fn = exportFileName(v, "csv", now)
		err = saveCSV(fn, v)
	case "X":
		fn = exportFileName(v, "xlsx", now)
		err = saveXLSX(fn, v)
	case "S":
		fn = exportFileName(v, "sqlite", now)
		err = writeSQLite(fn, v)
	}
	if err != nil {
		return err.Error()
	}
	return "Exportado " + fn
}

func saveCSV(fn string, v ReadyView) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "create %s", fn)
	}
	defer f.Close()
	return writeCSV(f, v)
}

func saveXLSX(fn string, v ReadyView) error {
	f, err := buildXLSX(v)
	if err != nil {
		return err
	}
	defer f.Close()
	return errors.Wrapf(f.SaveAs(fn), "save %s", fn)
}

func (m tuiModel) View() string {
	left := lipgloss.NewStyle().Width(30).Render(m.list.View())

	b := strings.Builder{}
	st := m.loader.State()
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Observatorio de votaciones · "+st.Dataset.Label))
	fmt.Fprintf(&b, "Busca [/]: %s\n", m.input.View())

	switch v := m.view.(type) {
	case LoadingView:
		fmt.Fprintf(&b, "\n%s %s\n", m.spin.View(), loadingMessage)
	case ErrorView:
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render(v.Message))
	case ReadyView:
		line := countLabel(len(v.Records))
		if strings.TrimSpace(v.Query) != "" {
			line += mutedStyle.Render(fmt.Sprintf("  Filtrando por “%s”", v.Query))
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", line, renderSummary(v.Summary))
		if v.Empty() {
			fmt.Fprintf(&b, "%s\n", noMatchMessage(v.Query))
		} else {
			fmt.Fprintf(&b, "%s\n", m.renderMatrix(v))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", mutedStyle.Render("[enter] dataset  [N/P] páx  [[/]] leis  [E] CSV  [X] XLSX  [S] SQLite  [Q] saír"))
	fmt.Fprintf(&b, "%s", m.status)
	right := lipgloss.NewStyle().Render(b.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func renderSummary(items []SummaryEntry) string {
	parts := make([]string, 0, len(items))
	for _, e := range items {
		st := badgeStyles[IntentOf(VoteValue(e.Status))]
		parts = append(parts, st.Render(fmt.Sprintf("%s %d", e.Status, e.Count)))
	}
	return strings.Join(parts, "  ")
}

func (m tuiModel) renderMatrix(v ReadyView) string {
	cols := v.Columns
	if m.colOff < len(cols) {
		cols = cols[m.colOff:]
	}
	if len(cols) > m.maxCols {
		cols = cols[:m.maxCols]
	}
	name := lipgloss.NewStyle().Width(nameWidth)
	cell := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)

	head := []string{headerStyle.Inherit(name).Render("Congresista")}
	for _, c := range cols {
		head = append(head, headerStyle.Inherit(cell).Render(truncate(c, cellWidth)))
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, head...)}

	start := (m.page - 1) * m.perPage
	end := min(start+m.perPage, len(v.Records))
	for _, r := range v.Records[start:end] {
		row := []string{name.Render(truncate(r.Name, nameWidth-1))}
		for _, c := range cols {
			vote := r.Vote(c)
			row = append(row, badgeStyles[IntentOf(vote)].Inherit(cell).Render(truncate(string(vote), cellWidth-1)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	pages := max(1, (len(v.Records)+m.perPage-1)/m.perPage)
	lines = append(lines, mutedStyle.Render(fmt.Sprintf("Páx %d/%d · leis %d-%d de %d", m.page, pages, m.colOff+1, m.colOff+len(cols), len(v.Columns))))
	return strings.Join(lines, "\n")
}
