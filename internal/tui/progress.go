// Package tui renders live run progress. It is a pure observer: it consumes
// the run loop's progress reports and never influences termination.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/fdtdlab/fdtdlab/internal/runner"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Faint(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	borderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const barWidth = 40

// ReportMsg wraps a run loop progress report for the bubbletea program.
type ReportMsg runner.Report

// DoneMsg signals that the run loop returned.
type DoneMsg struct{}

type Model struct {
	last    runner.Report
	decayDB []float64
	done    bool
}

func NewModel() Model { return Model{} }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case ReportMsg:
		m.last = runner.Report(msg)
		if m.last.DecayDB > 0 {
			m.decayDB = append(m.decayDB, m.last.DecayDB)
			if len(m.decayDB) > 60 {
				m.decayDB = m.decayDB[1:]
			}
		}
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("fdtdlab") + "\n\n")

	filled := int(m.last.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := barStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", barWidth-filled)
	b.WriteString(fmt.Sprintf("%s %6.2f%%\n", bar, m.last.Percent))

	b.WriteString(labelStyle.Render("timestep") + fmt.Sprintf("  %d / %d\n", m.last.Timestep, m.last.Budget))
	b.WriteString(labelStyle.Render("speed") + fmt.Sprintf("     %.1f MCells/s\n", m.last.MCellsPerSec))
	b.WriteString(labelStyle.Render("decay") + fmt.Sprintf("     %.2f dB\n", m.last.DecayDB))
	b.WriteString(labelStyle.Render("elapsed") + fmt.Sprintf("   %s\n", m.last.Elapsed.Truncate(time.Second)))

	if len(m.decayDB) > 1 {
		graph := asciigraph.Plot(m.decayDB, asciigraph.Height(8), asciigraph.Caption("energy decay (dB)"))
		b.WriteString("\n" + graph + "\n")
	}

	if m.done {
		b.WriteString("\n" + doneStyle.Render(fmt.Sprintf("finished: %s", m.last.State)) + "\n")
	} else {
		b.WriteString("\n" + labelStyle.Render("q to detach") + "\n")
	}
	return borderStyle.Render(b.String()) + "\n"
}
