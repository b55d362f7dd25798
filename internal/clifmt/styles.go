// Package clifmt renders one-shot command output: styled fragments and
// a width-aware name/detail table.
package clifmt

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func Headerf(format string, args ...any) string {
	return headerStyle.Render(fmt.Sprintf(format, args...))
}

func Success(s string) string { return successStyle.Render(s) }

func Warn(s string) string { return warnStyle.Render(s) }

func Key(s string) string { return keyStyle.Render(s) }

func Dim(s string) string { return dimStyle.Render(s) }
