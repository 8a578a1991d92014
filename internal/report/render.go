// Package report renders a suite report for the console.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vk/forgegrid/internal/scheduler"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	builtStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	blockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// Render formats the suite report as styled console text.
func Render(r *scheduler.Report) string {
	var b strings.Builder

	title := "Suite finished"
	if r.Cancelled {
		title = "Suite cancelled"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(builtStyle.Render(fmt.Sprintf("  built   %d", len(r.Built))))
	b.WriteString("\n")
	b.WriteString(failedStyle.Render(fmt.Sprintf("  failed  %d", len(r.Failed))))
	b.WriteString("\n")
	b.WriteString(blockedStyle.Render(fmt.Sprintf("  blocked %d", len(r.Blocked))))
	b.WriteString("\n")

	if len(r.Failed) > 0 {
		b.WriteString("\n")
		b.WriteString(failedStyle.Render("Failures:"))
		b.WriteString("\n")
		for _, name := range r.Failed {
			unit := r.Units[name]
			b.WriteString(fmt.Sprintf("  %s  ", name))
			b.WriteString(detailStyle.Render(fmt.Sprintf("phase=%s %s", unit.FailedPhase, unit.Reason)))
			b.WriteString("\n")
			for i, summary := range unit.RemediationSummaries {
				b.WriteString(detailStyle.Render(fmt.Sprintf("    remediation %d: %s", i+1, summary)))
				b.WriteString("\n")
			}
		}
	}

	if len(r.Blocked) > 0 {
		b.WriteString("\n")
		b.WriteString(blockedStyle.Render("Blocked (never attempted):"))
		b.WriteString("\n")
		for _, name := range r.Blocked {
			b.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}

	if n := r.TotalRemediations(); n > 0 {
		b.WriteString("\n")
		b.WriteString(detailStyle.Render(fmt.Sprintf("%d remediation attempt(s) across the suite", n)))
		b.WriteString("\n")
	}

	return b.String()
}
