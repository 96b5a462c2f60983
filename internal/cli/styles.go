package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessColor = lipgloss.Color("#4ECDC4")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")

	// IncomeColor and ExpenseColor tint the category type everywhere it is shown.
	IncomeColor  = lipgloss.Color("#2E9E44")
	ExpenseColor = lipgloss.Color("#D64545")

	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
)

// TypeStyle returns the style used to print a transaction type label.
func TypeStyle(t string) lipgloss.Style {
	switch t {
	case "income":
		return lipgloss.NewStyle().Foreground(IncomeColor)
	case "expense":
		return lipgloss.NewStyle().Foreground(ExpenseColor)
	default:
		return lipgloss.NewStyle()
	}
}
