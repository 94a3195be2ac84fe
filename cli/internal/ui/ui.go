package ui

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Out is where results are written.
var Out io.Writer = os.Stdout

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...any) {
	fmt.Fprintln(Out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// PrintStep prints a step indicator
func PrintStep(step int, total int, message string) {
	stepStyle := SecondaryStyle.Render(fmt.Sprintf("[%d/%d]", step, total))
	fmt.Fprintf(Out, "%s %s\n", stepStyle, message)
}

// PrintRows prints a result set as a table.
func PrintRows(columns []string, rows []map[string]any) error {
	data := pterm.TableData{columns}
	for _, row := range rows {
		line := make([]string, len(columns))
		for i, col := range columns {
			line[i] = FormatValue(row[col])
		}
		data = append(data, line)
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(Out).WithData(data).Render()
}

// FormatValue renders a column value for display.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "0x" + strings.ToUpper(hex.EncodeToString(v))
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}

	fmt.Fprint(Out, out)
	return nil
}

// PrintProgressBar creates a progress bar
func PrintProgressBar(title string, total int) *pterm.ProgressbarPrinter {
	return pterm.DefaultProgressbar.WithTotal(total).WithTitle(title).WithWriter(Out)
}

// Confirm asks a yes/no question; the default answer is no.
func Confirm(message string) (bool, error) {
	var ok bool
	if err := survey.AskOne(&survey.Confirm{Message: message}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Echo prints an executed statement.
func Echo(slot string, sql string, elapsed time.Duration, err error) {
	prefix := color.New(color.FgCyan, color.Bold).Sprintf("[%s]", slot)
	took := color.New(color.Faint).Sprintf("(%v)", elapsed.Round(time.Microsecond))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s %s %s\n", prefix, sql, took, color.RedString(err.Error()))
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s %s\n", prefix, sql, took)
}
