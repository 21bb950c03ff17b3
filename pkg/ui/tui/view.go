package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"cdli/pkg/progress"
)

// View renders the title, one line per entry and a summary footer
func (m Model) View() string {
	sections := []string{m.renderTitle()}

	for _, e := range m.entries {
		sections = append(sections, m.renderEntry(e))
	}

	sections = append(sections, m.renderFooter())

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.finished {
		view += "\n"
	}
	return view
}

func (m Model) renderTitle() string {
	if m.finished {
		return titleStyle.Render(m.title)
	}
	return titleStyle.Render(m.spinner.View() + " " + m.title)
}

func (m Model) renderEntry(e progress.Entry) string {
	label := labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, e.Label))

	var status string
	switch {
	case e.State.Failed():
		return label + " " + errorStyle.Render("✗ "+e.State.Error)
	case e.State.Status == progress.Done:
		status = doneStyle.Render("✓")
	default:
		status = " "
	}

	var detail string
	switch {
	case e.State.Page <= 0:
		detail = e.State.Status.String()
	case e.State.LastPage <= 0:
		detail = fmt.Sprintf("page: %d", e.State.Page)
	default:
		fraction := float64(e.State.Page) / float64(e.State.LastPage)
		bar := m.bar
		bar.Width = m.barWidth()
		detail = bar.ViewAs(min(fraction, 1)) + fmt.Sprintf(" %d/%d", e.State.Page, e.State.LastPage)
	}

	if e.State.Retry > 0 {
		detail += retryStyle.Render(fmt.Sprintf(", retry %d", e.State.Retry))
	}

	return label + " " + status + " " + detail
}

func (m Model) renderFooter() string {
	done, failed, running := m.counts()
	elapsed := time.Since(m.start).Round(100 * time.Millisecond)

	parts := []string{
		fmt.Sprintf("%d done", done),
		fmt.Sprintf("%d failed", failed),
		fmt.Sprintf("%d running", running),
		elapsed.String(),
	}
	footer := strings.Join(parts, " · ")
	if !m.finished {
		footer += " · ctrl+c to abort"
	}
	return footerStyle.Render(footer)
}
