package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/felixgeelhaar/ngr/internal/domain"
)

// writeSummaryTable renders one row per target plus a totals footer.
func writeSummaryTable(w io.Writer, outcomes []domain.DispatchOutcome, colorize bool) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	s := summarize(outcomes)
	t.SetTitle(fmt.Sprintf("Test Results (%d/%d passed)", s.Passed, s.Targets))

	t.AppendHeader(table.Row{"Target", "Ecosystem", "Steps", "Duration", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Target", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Steps", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	for _, o := range outcomes {
		t.AppendRow(table.Row{
			o.Target,
			o.Ecosystem.String(),
			len(o.Results),
			formatDuration(o.Duration),
			verdictLabel(o.Verdict, colorize),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Failed", s.Failed + s.Unsupported})

	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
