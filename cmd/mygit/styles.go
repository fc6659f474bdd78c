package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles renders command output. Colors are only emitted when the writer is
// a terminal.
type styles struct {
	current  lipgloss.Style
	hash     lipgloss.Style
	added    lipgloss.Style
	modified lipgloss.Style
	deleted  lipgloss.Style
	conflict lipgloss.Style
	header   lipgloss.Style
	dim      lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		current:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		hash:     r.NewStyle().Foreground(lipgloss.Color("3")),
		added:    r.NewStyle().Foreground(lipgloss.Color("2")),
		modified: r.NewStyle().Foreground(lipgloss.Color("3")),
		deleted:  r.NewStyle().Foreground(lipgloss.Color("1")),
		conflict: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		header:   r.NewStyle().Bold(true),
		dim:      r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
