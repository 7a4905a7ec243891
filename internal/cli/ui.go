package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/storyboard/pkg/canvas"
)

// =============================================================================
// Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // notes and warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // muted
)

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleLabel       = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

// =============================================================================
// Status Lines
// =============================================================================

type statusKind struct {
	icon  string
	style lipgloss.Style
}

var (
	statusSuccess = statusKind{"✓", lipgloss.NewStyle().Foreground(colorGreen)}
	statusError   = statusKind{"✗", lipgloss.NewStyle().Foreground(colorRed)}
	statusInfo    = statusKind{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func printStatus(k statusKind, format string, args ...any) {
	fmt.Println(k.style.Render(k.icon) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { printStatus(statusSuccess, format, args...) }
func printError(format string, args ...any)   { printStatus(statusError, format, args...) }
func printInfo(format string, args ...any)    { printStatus(statusInfo, format, args...) }

// printDetail prints an indented muted line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints "  → path" for a written file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleLabel.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep suggests a command to run next.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() { fmt.Println() }

// printStats prints "  4 nodes · 3 edges · 2 results" for s. The result
// count is green once any node holds one.
func printStats(s *canvas.State) {
	results := 0
	for _, n := range s.Nodes() {
		if canvas.HasResult(n.Content) {
			results++
		}
	}
	resultStyle := StyleDim
	if results > 0 {
		resultStyle = StyleSuccess
	}

	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", s.NodeCount())),
		StyleDim.Render(fmt.Sprintf("%d edges", s.EdgeCount())),
		resultStyle.Render(fmt.Sprintf("%d results", results)),
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}
