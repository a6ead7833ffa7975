package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	codeStyle    = lipgloss.NewStyle().Width(8)
)

// RenderCallTable lists calls grouped by category.
func RenderCallTable(defs []spec.CallDef) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("NCP calls (%d)", len(defs)))}
	var current spec.CallCategory
	for i, d := range defs {
		if i == 0 || d.Category != current {
			current = d.Category
			lines = append(lines, "", sectionStyle.Render(fmt.Sprintf("%s (%#04x)", current, uint16(current)<<8)))
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			codeStyle.Render(fmt.Sprintf("0x%04x", uint16(d.Code))),
			d.Name,
			metaStyle.Render(fmt.Sprintf("+%d", d.Code.Offset()))))
	}
	if len(defs) == 0 {
		lines = append(lines, metaStyle.Render("  (no calls)"))
	}
	return strings.Join(lines, "\n")
}

// RenderStatusTable lists status ids grouped by category.
func RenderStatusTable(ids []spec.StatusID) string {
	lines := []string{titleStyle.Render(fmt.Sprintf("NCP statuses (%d)", len(ids)))}
	var current spec.StatusCategory
	for i, id := range ids {
		cat, code := id.Decompose()
		if i == 0 || cat != current {
			current = cat
			lines = append(lines, "", sectionStyle.Render(cat.String()))
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			codeStyle.Render(fmt.Sprintf("0x%04x", uint16(id))),
			id.Name(),
			metaStyle.Render(fmt.Sprintf("code %d", code))))
	}
	if len(ids) == 0 {
		lines = append(lines, metaStyle.Render("  (no statuses)"))
	}
	return strings.Join(lines, "\n")
}
