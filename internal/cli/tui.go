package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/feedsolve/pkg/render"
	"github.com/matzehuels/feedsolve/pkg/selection"
	"github.com/matzehuels/feedsolve/pkg/solver"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// CandidateListModel - Interactive version choice
// =============================================================================

// CandidateListModel is the bubbletea model for choosing one implementation
// of an interface from its ranked candidates. Unsuitable candidates are
// shown with their reason but cannot be chosen.
type CandidateListModel struct {
	Interface  string
	Candidates []*solver.Candidate
	Cursor     int
	Selected   *solver.Candidate
	Height     int
	Offset     int
}

// NewCandidateListModel creates a candidate list with the cursor on the
// first candidate.
func NewCandidateListModel(uri string, candidates []*solver.Candidate) CandidateListModel {
	return CandidateListModel{
		Interface:  uri,
		Candidates: candidates,
		Height:     15,
	}
}

func (m CandidateListModel) Init() tea.Cmd {
	return nil
}

func (m CandidateListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Candidates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Candidates) == 0 {
				return m, nil
			}
			c := m.Candidates[m.Cursor]
			if !c.Suitable() {
				return m, nil
			}
			m.Selected = c
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m CandidateListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select version of " + shortURI(m.Interface)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Candidates) == 0 {
		b.WriteString(listDimStyle.Render("  no candidates"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Candidates))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		c := m.Candidates[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		status := c.Reason.String()
		if c.Suitable() {
			status = iconFetch
			if c.Cached {
				status = iconCached
			}
		}
		rows = append(rows, []string{
			cursor,
			c.Impl.Version.String(),
			c.Stability.String(),
			c.Impl.Architecture.String(),
			render.Source(selection.FromImplementation(c.Impl)),
			status,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Version", "Stability", "Arch", "Source", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Candidates) {
				return lipgloss.NewStyle()
			}
			c := m.Candidates[idx]
			base := lipgloss.NewStyle()
			switch {
			case !c.Suitable():
				base = base.Foreground(colorDim)
			case col == 5 && c.Cached:
				base = base.Foreground(colorGreen)
			case col == 5:
				base = base.Foreground(colorGray)
			}
			if idx == m.Cursor {
				if c.Suitable() && col != 5 {
					return base.Foreground(colorCyan).Bold(true)
				}
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Candidates))))

	return b.String()
}
