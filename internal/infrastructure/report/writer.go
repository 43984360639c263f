package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

const defaultTailLines = 40

type Writer struct {
	// TailLines limits the output of a failing step shown in text format.
	TailLines int
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func (wr Writer) Write(w io.Writer, outcomes []domain.DispatchOutcome, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		return writeJSON(w, outcomes)
	case application.OutputBrief:
		return writeBrief(w, outcomes)
	case application.OutputText, "":
		return wr.writeText(w, outcomes)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

type jsonResult struct {
	domain.ExecutionResult
	Error string `json:"error,omitempty"`
}

type jsonOutcome struct {
	domain.DispatchOutcome
	Results []jsonResult `json:"results"`
	Error   string       `json:"error,omitempty"`
}

func writeJSON(w io.Writer, outcomes []domain.DispatchOutcome) error {
	payload := struct {
		Outcomes []jsonOutcome `json:"outcomes"`
		Summary  summary       `json:"summary"`
	}{
		Outcomes: make([]jsonOutcome, 0, len(outcomes)),
		Summary:  summarize(outcomes),
	}
	for _, o := range outcomes {
		jo := jsonOutcome{DispatchOutcome: o, Results: make([]jsonResult, 0, len(o.Results)), Error: errString(o.Err)}
		for _, r := range o.Results {
			r.Stdout = stripansi.Strip(r.Stdout)
			r.Stderr = stripansi.Strip(r.Stderr)
			jo.Results = append(jo.Results, jsonResult{ExecutionResult: r, Error: errString(r.Err)})
		}
		payload.Outcomes = append(payload.Outcomes, jo)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

type summary struct {
	Pass        bool `json:"pass"`
	Targets     int  `json:"targets"`
	Passed      int  `json:"passed"`
	Failed      int  `json:"failed"`
	Unsupported int  `json:"unsupported"`
}

func summarize(outcomes []domain.DispatchOutcome) summary {
	s := summary{Targets: len(outcomes)}
	for _, o := range outcomes {
		switch o.Verdict {
		case domain.VerdictSuccess:
			s.Passed++
		case domain.VerdictUnsupported:
			s.Unsupported++
		default:
			s.Failed++
		}
	}
	s.Pass = s.Targets > 0 && s.Passed == s.Targets
	return s
}

func (wr Writer) writeText(w io.Writer, outcomes []domain.DispatchOutcome) error {
	colorize := colorEnabled(w)
	for i, o := range outcomes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := fmt.Sprintf("%s %s %s (%s)", verdictLabel(o.Verdict, colorize), o.Ecosystem, o.Target, formatDuration(o.Duration))
		if o.Fallback {
			header += " [fallback]"
		}
		fmt.Fprintln(w, header)

		if len(o.Results) > 0 {
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "  Step\tCommand\tExit\tDuration\tStatus")
			for _, r := range o.Results {
				_, _ = fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%s\n", r.Step, r.Command, r.ExitCode, formatDuration(r.Duration), stepStatus(r, colorize))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
		for _, m := range o.Missing {
			fmt.Fprintf(w, "  missing: %s needs %s\n", m.Ecosystem, m.Tool)
		}
		if o.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", o.Err)
		}
		if failed, ok := o.FailedResult(); ok {
			wr.writeTail(w, failed, colorize)
		}
	}

	if len(outcomes) > 1 {
		fmt.Fprintln(w)
		return writeSummaryTable(w, outcomes, colorize)
	}
	return nil
}

func (wr Writer) writeTail(w io.Writer, r domain.ExecutionResult, colorize bool) {
	limit := wr.TailLines
	if limit <= 0 {
		limit = defaultTailLines
	}
	output := strings.TrimRight(r.Stdout, "\n")
	if stderr := strings.TrimRight(r.Stderr, "\n"); stderr != "" {
		if output != "" {
			output += "\n"
		}
		output += stderr
	}
	if output == "" {
		return
	}
	if !colorize {
		output = stripansi.Strip(output)
	}
	lines := strings.Split(output, "\n")
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	title := fmt.Sprintf("  output of %q (last %d lines):", r.Step, len(lines))
	if colorize {
		title = dimStyle.Render(title)
	}
	fmt.Fprintln(w, title)
	for _, line := range lines {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

func verdictLabel(v domain.Verdict, colorize bool) string {
	switch v {
	case domain.VerdictSuccess:
		return render(passStyle, "PASS", colorize)
	case domain.VerdictUnsupported:
		return render(warnStyle, "UNSUPPORTED", colorize)
	default:
		return render(failStyle, "FAIL", colorize)
	}
}

func stepStatus(r domain.ExecutionResult, colorize bool) string {
	switch {
	case r.Succeeded():
		return render(passStyle, "ok", colorize)
	case r.Recovered:
		return render(warnStyle, "recovered", colorize)
	case r.Optional:
		return render(warnStyle, "ignored", colorize)
	default:
		return render(failStyle, "failed", colorize)
	}
}

func render(style lipgloss.Style, s string, colorize bool) string {
	if !colorize {
		return s
	}
	return style.Render(s)
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

// writeBrief outputs one line per target, optimized for agents and CI logs.
// Format: STATUS | ecosystem | target | N steps | duration [| detail]
func writeBrief(w io.Writer, outcomes []domain.DispatchOutcome) error {
	var sb strings.Builder
	for _, o := range outcomes {
		status := "PASS"
		switch o.Verdict {
		case domain.VerdictUnsupported:
			status = "UNSUPPORTED"
		case domain.VerdictFailure:
			status = "FAIL"
		}
		sb.WriteString(fmt.Sprintf("%s | %s | %s | %d steps | %s", status, o.Ecosystem, o.Target, len(o.Results), formatDuration(o.Duration)))
		if o.Err != nil {
			sb.WriteString(" | " + stripansi.Strip(o.Err.Error()))
		}
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
