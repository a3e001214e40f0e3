package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// User-facing output. These write to Stdout/Stderr directly for CLI output,
// separate from the structured debug logging.

var (
	// Stdout receives info and success lines.
	Stdout io.Writer = os.Stdout
	// Stderr receives warnings and errors.
	Stderr io.Writer = os.Stderr
)

var (
	infoMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Render("→")
	successMark = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true).Render("✓")
	warningMark = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Render("⚠")
	errorMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true).Render("error:")

	// Highlight renders a jail name or command the way user output refers to it.
	Highlight = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Render
	// Dim renders secondary details.
	Dim = lipgloss.NewStyle().Faint(true).Render
)

// UserInfo prints a progress message to stdout.
func UserInfo(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, infoMark+" "+format+"\n", args...)
}

// UserSuccess prints a success message to stdout.
func UserSuccess(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, successMark+" "+format+"\n", args...)
}

// UserWarning prints a warning message to stderr.
func UserWarning(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, warningMark+" "+format+"\n", args...)
}

// UserError prints an error message to stderr.
func UserError(format string, args ...interface{}) {
	fmt.Fprintf(Stderr, errorMark+" "+format+"\n", args...)
}
