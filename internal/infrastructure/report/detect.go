package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/ngr/internal/application"
	"github.com/felixgeelhaar/ngr/internal/domain"
)

// WriteDetect renders the plan of a dry run.
func (Writer) WriteDetect(w io.Writer, res application.DetectResult, format application.OutputFormat) error {
	steps := make([]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		line := s.CommandLine()
		if s.Dir != "" {
			line += " (in " + s.Dir + ")"
		}
		if s.Optional {
			line += " [optional]"
		}
		if s.Fallback != nil {
			line += " || " + s.Fallback.CommandLine()
		}
		steps = append(steps, line)
	}
	candidates := names(res.Candidates)

	switch format {
	case application.OutputJSON:
		payload := struct {
			Target     string                    `json:"target"`
			Candidates []string                  `json:"candidates"`
			Selected   string                    `json:"selected,omitempty"`
			Fallback   bool                      `json:"fallback,omitempty"`
			Tool       string                    `json:"tool,omitempty"`
			Missing    []domain.ToolMissingError `json:"missing,omitempty"`
			Steps      []string                  `json:"steps"`
			Error      string                    `json:"error,omitempty"`
		}{
			Target:     res.Target,
			Candidates: candidates,
			Selected:   string(res.Selected),
			Fallback:   res.Fallback,
			Tool:       res.Tool,
			Missing:    res.Missing,
			Steps:      steps,
			Error:      errString(res.Err),
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case application.OutputBrief:
		_, err := fmt.Fprintf(w, "%s | %s | %s\n", res.Selected, res.Target, strings.Join(steps, " && "))
		return err
	case application.OutputText, "":
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	fmt.Fprintf(w, "Target:      %s\n", res.Target)
	fmt.Fprintf(w, "Candidates:  %s\n", orNone(strings.Join(candidates, ", ")))
	selected := res.Selected.String()
	if res.Tool != "" {
		selected += " (" + res.Tool + ")"
	}
	if res.Fallback {
		selected += " [fallback]"
	}
	fmt.Fprintf(w, "Selected:    %s\n", selected)
	for _, m := range res.Missing {
		fmt.Fprintf(w, "Missing:     %s needs %s\n", m.Ecosystem, m.Tool)
	}
	if len(steps) > 0 {
		fmt.Fprintln(w, "Steps:")
		for i, s := range steps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
	if res.Err != nil {
		fmt.Fprintf(w, "Error:       %v\n", res.Err)
	}
	return nil
}

// WriteEcosystems lists the supported ecosystems.
func (Writer) WriteEcosystems(w io.Writer, ecosystems []domain.Ecosystem, format application.OutputFormat) error {
	list := names(ecosystems)
	if format == application.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	_, err := fmt.Fprintln(w, strings.Join(list, "\n"))
	return err
}

func names(ecosystems []domain.Ecosystem) []string {
	out := make([]string, 0, len(ecosystems))
	for _, e := range ecosystems {
		out = append(out, e.String())
	}
	return out
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
