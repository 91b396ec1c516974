package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"bqexplore/chart"
	"bqexplore/core/format"
)

// refreshResults re-renders the viewport content: the formatted table
// followed by the chart for the current chart kind.
func (m *Model) refreshResults() {
	if m.result == nil || m.result.IsEmpty() {
		m.results.SetContent(m.styles.Muted.Render("No results to display."))
		return
	}

	var b strings.Builder

	out, err := m.result.Format(format.NewTable(), 0, -1)
	if err != nil {
		m.results.SetContent(m.styles.Error.Render("render: " + err.Error()))
		return
	}
	b.Write(out)
	b.WriteString("\n")

	header := m.result.Header()
	rows, err := m.result.Rows(0, -1)
	if err == nil && len(header) >= 2 {
		plot, chartErr := chart.Render(header, rows, m.chartKind, header[0], header[len(header)-1], chart.Options{
			Width: max(m.results.Width-8, 20),
		})
		if chartErr == nil && plot != "" {
			b.WriteString(m.styles.Section.Render(m.chartKind.String() + " chart") + "\n")
			b.WriteString(plot)
		}
	}

	m.results.SetContent(b.String())
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var sections []string

	sections = append(sections, m.styles.Title.Render("BigQuery Explorer"))

	editorBox := m.styles.BlurredBox
	if m.focus == focusEditor {
		editorBox = m.styles.FocusedBox
	}
	sections = append(sections,
		m.styles.Section.Render("Query")+"\n"+editorBox.Render(m.editor.View()))

	sections = append(sections, m.viewParams())

	status := ""
	switch {
	case m.running:
		status = m.spin.View() + " running query..."
	case m.err != nil:
		status = m.styles.Error.Render("Error: " + m.err.Error())
	case m.status != "":
		status = m.styles.Success.Render(m.status)
	}
	if status != "" {
		sections = append(sections, status)
	}

	resultsBox := m.styles.BlurredBox
	if m.focus == focusResults {
		resultsBox = m.styles.FocusedBox
	}
	sections = append(sections,
		m.styles.Section.Render("Results")+"\n"+resultsBox.Render(m.results.View()))

	sections = append(sections, m.styles.Muted.Render(
		"tab: switch focus • ctrl+r: run query • ctrl+p: run with parameters • c: cycle chart • ctrl+c: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewParams() string {
	var picks []string
	for i, s := range states {
		if i == m.stateIdx {
			picks = append(picks, m.styles.SelectorPick.Render("["+s+"]"))
		} else {
			picks = append(picks, m.styles.SelectorItem.Render(" "+s+" "))
		}
	}
	stateLabel := "State: "
	if m.focus == focusState {
		stateLabel = m.styles.SelectorPick.Render("State: ")
	}
	stateRow := stateLabel + strings.Join(picks, " ")

	prefixRow := fmt.Sprintf("Name prefix: %s", m.prefix.View())
	limitRow := fmt.Sprintf("Limit: %s", m.limit.View())

	return m.styles.Section.Render("Parameters") + "\n" +
		stateRow + "\n" + prefixRow + "\n" + limitRow
}
