package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kvarga/constify/internal/report"
)

// DiagnosticList renders the diagnostics of one run in compiler style: one
// line per record, warnings highlighted, a trailing count.
type DiagnosticList struct {
	Diagnostics []report.Diagnostic `json:"diagnostics"`
	Warnings    int                 `json:"warnings"`
	Notes       int                 `json:"notes"`
}

// NewDiagnosticList wraps a slice of diagnostics with its severity counts.
func NewDiagnosticList(diags []report.Diagnostic) *DiagnosticList {
	l := &DiagnosticList{Diagnostics: diags}
	for _, d := range diags {
		if d.Severity == report.SeverityWarning {
			l.Warnings++
		} else {
			l.Notes++
		}
	}
	return l
}

func (l *DiagnosticList) RenderData() any {
	return l
}

func (l *DiagnosticList) RenderText(w io.Writer, colored bool) error {
	for _, d := range l.Diagnostics {
		loc := fmt.Sprintf("%s:%d:%d:", d.File, d.Line, d.Column)
		sev := d.Severity.String()
		if colored {
			loc = color.New(color.Bold).Sprint(loc)
			if d.Severity == report.SeverityWarning {
				sev = color.New(color.FgMagenta, color.Bold).Sprint(sev)
			} else {
				sev = color.New(color.FgCyan).Sprint(sev)
			}
		}
		fmt.Fprintf(w, "%s %s: %s\n", loc, sev, d.Message)
	}
	if l.Warnings > 0 {
		fmt.Fprintf(w, "%d warning(s) generated\n", l.Warnings)
	}
	return nil
}

func (l *DiagnosticList) RenderMarkdown(w io.Writer) error {
	t := NewTable("Diagnostics",
		[]string{"Location", "Severity", "Message"},
		l.rows(), nil, l)
	return t.RenderMarkdown(w)
}

func (l *DiagnosticList) rows() [][]string {
	rows := make([][]string, len(l.Diagnostics))
	for i, d := range l.Diagnostics {
		rows[i] = []string{
			fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column),
			d.Severity.String(),
			d.Message,
		}
	}
	return rows
}
