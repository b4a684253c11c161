// Package output renders command results for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/data-desk-eco/notebook-index/internal/domain"
)

// UI writes results to Out and diagnostics to ErrOut.
type UI struct {
	Out    io.Writer
	ErrOut io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

var (
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	warningPrefix = color.New(color.FgHiYellow).Sprint("!")
	cyan          = color.New(color.FgHiCyan).SprintFunc()
)

// Success prints a green check line to ErrOut, keeping Out clean for piped JSON.
func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

// Warning reports a problem that did not fail the command.
func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

// Error prints a red cross line to ErrOut.
func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

// JSON pretty-prints v to Out.
func (u *UI) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(u.Out, string(data))
	return err
}

// Projects prints records as an aligned, borderless table.
func (u *UI) Projects(records []domain.ProjectRecord) error {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header([]string{"NAME", "CREATED", "URL", "DESCRIPTION"})
	for _, r := range records {
		if err := table.Append([]string{cyan(r.Name), r.CreatedAt.Format("2006-01-02"), r.URL, r.Description}); err != nil {
			return err
		}
	}
	return table.Render()
}
