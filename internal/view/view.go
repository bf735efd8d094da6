// Package view dibuja companions y listados en la terminal.
package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"companion-api/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	listStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(72)

	// loadingStyle atenua el listado mientras hay un pedido en curso.
	loadingStyle = listStyle.
			BorderForeground(lipgloss.Color("#6B7280")).
			Faint(true)

	subjectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

const loadingLabel = "refreshing..."

// Row es una linea del listado para un companion.
func Row(c domain.Companion) string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Subject != "" {
		b.WriteString(" ")
		b.WriteString(subjectStyle.Render("[" + c.Subject + "]"))
	}
	if c.Topic != "" {
		b.WriteString(" ")
		b.WriteString(c.Topic)
	}
	if c.Duration > 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" %d min", c.Duration)))
	}
	var flags []string
	if c.Bookmarked {
		flags = append(flags, "★")
	}
	if c.IsAuthor {
		flags = append(flags, "mine")
	}
	if len(flags) > 0 {
		b.WriteString(" ")
		b.WriteString(flagStyle.Render(strings.Join(flags, " ")))
	}
	b.WriteString(mutedStyle.Render("  " + c.ID))
	return b.String()
}

// List dibuja un listado con titulo. Con loading el cuerpo se atenua y se agrega la marca
// de refresco, manteniendo los datos anteriores visibles.
func List(title string, items []domain.Companion, loading bool) string {
	var body strings.Builder
	if len(items) == 0 {
		body.WriteString(mutedStyle.Render("no companions yet"))
	}
	for i, c := range items {
		if i > 0 {
			body.WriteString("\n")
		}
		fmt.Fprintf(&body, "%2d. %s", i+1, Row(c))
	}

	header := titleStyle.Render(title)
	box := listStyle
	if loading {
		header += " " + mutedStyle.Render(loadingLabel)
		box = loadingStyle
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, box.Render(body.String()))
}

// Detail dibuja un companion completo.
func Detail(c domain.Companion) string {
	lines := []string{
		titleStyle.Render(c.Name),
		"subject:  " + c.Subject,
		"topic:    " + c.Topic,
		"voice:    " + c.Voice,
		"style:    " + c.Style,
		fmt.Sprintf("duration: %d min", c.Duration),
		fmt.Sprintf("author:   %s", c.Author),
		fmt.Sprintf("bookmark: %t", c.Bookmarked),
		mutedStyle.Render("id: " + c.ID),
	}
	return listStyle.Render(strings.Join(lines, "\n"))
}

func Error(err error) string {
	return errorStyle.Render("error: " + err.Error())
}
