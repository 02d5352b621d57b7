package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/kgview/pkg/view"
)

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// memberPreview is how many cluster or component members are listed inline.
const memberPreview = 5

// =============================================================================
// Panels
// =============================================================================

// panel is one tab of the inspector: a titled table.
type panel struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// inspectPanels derives the inspector tabs from a view model.
func inspectPanels(vm *view.ViewModel) []panel {
	return []panel{
		{Title: "Stats", Headers: []string{"Metric", "Value"}, Rows: statsRows(vm.Stats)},
		{Title: "Clusters", Headers: []string{"Kind", "Cluster", "Size", "Members"}, Rows: clusterRows(vm)},
		{Title: "Top entities", Headers: []string{"#", "Entity", "Degree", "In", "Out", "Cluster"}, Rows: topEntityRows(vm.TopEntities)},
		{Title: "Top relations", Headers: []string{"#", "Predicate", "Count", "Cluster"}, Rows: topRelationRows(vm.TopRelations)},
		{Title: "Components", Headers: []string{"#", "Size", "Members"}, Rows: componentRows(vm.Components)},
	}
}

func clusterRows(vm *view.ViewModel) [][]string {
	rows := make([][]string, 0, len(vm.Clusters)+len(vm.EdgeClusters))
	for _, cl := range vm.Clusters {
		rows = append(rows, []string{"entity", cl.Label, strconv.Itoa(cl.Size), preview(cl.Members)})
	}
	for _, cl := range vm.EdgeClusters {
		rows = append(rows, []string{"edge", cl.Label, strconv.Itoa(cl.Size), preview(cl.Members)})
	}
	return rows
}

func topEntityRows(top []view.TopEntity) [][]string {
	rows := make([][]string, len(top))
	for i, e := range top {
		rows[i] = []string{
			strconv.Itoa(i + 1), e.Label, strconv.Itoa(e.Degree),
			strconv.Itoa(e.Indegree), strconv.Itoa(e.Outdegree), deref(e.Cluster),
		}
	}
	return rows
}

func topRelationRows(top []view.TopRelation) [][]string {
	rows := make([][]string, len(top))
	for i, r := range top {
		rows[i] = []string{strconv.Itoa(i + 1), r.Predicate, strconv.Itoa(r.Count), deref(r.Cluster)}
	}
	return rows
}

func componentRows(comps []view.Component) [][]string {
	rows := make([][]string, len(comps))
	for i, c := range comps {
		rows[i] = []string{strconv.Itoa(i + 1), strconv.Itoa(c.Size), preview(c.Members)}
	}
	return rows
}

// preview joins the first members and counts the rest.
func preview(members []string) string {
	if len(members) <= memberPreview {
		return strings.Join(members, ", ")
	}
	return fmt.Sprintf("%s, … +%d", strings.Join(members[:memberPreview], ", "), len(members)-memberPreview)
}

func deref(s *string) string {
	if s == nil {
		return "—"
	}
	return *s
}

// =============================================================================
// InspectModel - Interactive view model browser
// =============================================================================

// InspectModel is the bubbletea model of the inspect command.
type InspectModel struct {
	Title  string
	Panels []panel
	Active int
	Offset int
	Height int
}

// NewInspectModel creates an inspector for vm.
func NewInspectModel(title string, vm *view.ViewModel) InspectModel {
	return InspectModel{
		Title:  title,
		Panels: inspectPanels(vm),
		Height: 15,
	}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.Active = (m.Active + 1) % len(m.Panels)
			m.Offset = 0
		case "shift+tab", "left", "h":
			m.Active = (m.Active + len(m.Panels) - 1) % len(m.Panels)
			m.Offset = 0
		case "down", "j":
			if m.Offset+m.Height < len(m.Panels[m.Active].Rows) {
				m.Offset++
			}
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 9
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	tabs := make([]string, len(m.Panels))
	for i, p := range m.Panels {
		if i == m.Active {
			tabs[i] = tabActiveStyle.Render(p.Title)
		} else {
			tabs[i] = tabInactiveStyle.Render(p.Title)
		}
	}
	b.WriteString(strings.Join(tabs, listDimStyle.Render(" │ ")))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⇥/←/→ switch  ↑/↓ scroll  q quit"))
	b.WriteString("\n\n")

	p := m.Panels[m.Active]
	if len(p.Rows) == 0 {
		b.WriteString(listDimStyle.Render("  (none)"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(p.Rows))
	b.WriteString(renderTable(p.Headers, p.Rows[m.Offset:end]))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d-%d/%d]", m.Offset+1, end, len(p.Rows))))
	return b.String()
}

// plainView renders every panel one after another, for non-interactive use.
func plainView(title string, vm *view.ViewModel) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	for _, p := range inspectPanels(vm) {
		b.WriteString("\n")
		b.WriteString(StyleTitle.Render(p.Title))
		b.WriteString("\n")
		if len(p.Rows) == 0 {
			b.WriteString(listDimStyle.Render("  (none)"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(renderTable(p.Headers, p.Rows))
		b.WriteString("\n")
	}
	return b.String()
}
