package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════════════════╗
    ║ ▀█▀ █ █ █ █▀▀ █▀▀ ▀█▀   █▀▀ █   █▀█ █ █ █▀▄                ║
    ║  █  ▀▄▀▄▀ ██▄ ██▄  █    █▄▄ █▄▄ █▄█ █▄█ █▄▀                ║
    ║        KEYWORD COLLECTOR & WORD CLOUD RENDERER             ║
    ╚════════════════════════════════════════════════════════════╝
`

// Out receives everything the print helpers write
var Out io.Writer = os.Stdout

// Color functions for terminal output
var (
	Cyan    = colorize(lipgloss.Color("#00FFFF"), false)
	Yellow  = colorize(lipgloss.Color("#FFFF00"), false)
	Red     = colorize(lipgloss.Color("#FF0000"), true)
	Green   = colorize(lipgloss.Color("#39FF14"), false)
	Magenta = colorize(lipgloss.Color("#FF00FF"), false)
	Dim     = colorize(lipgloss.Color("#626262"), false)
)

// colorize returns a function that renders text in the given color
func colorize(color lipgloss.Color, bold bool) func(string) string {
	style := lipgloss.NewStyle().Foreground(color).Bold(bold)
	return func(text string) string {
		return style.Render(text)
	}
}

// SetQuiet discards all helper output when quiet is true
func SetQuiet(quiet bool) {
	if quiet {
		Out = io.Discard
	} else {
		Out = os.Stdout
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	fmt.Fprint(Out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Out, Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Out, Magenta(msg))
}
