package report

import (
	"fmt"
	"io"
	"time"

	"github.com/bitrise-io/go-utils/colorstring"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/guidewright/e2e-testing-guide/models"
)

// ConsoleSink prints the run summary table and the finding details.
type ConsoleSink struct {
	out    io.Writer
	logger log.Logger
}

func NewConsoleSink(out io.Writer, logger log.Logger) ConsoleSink {
	return ConsoleSink{out: out, logger: logger}
}

// Print renders a per-document summary table, then lists every finding.
func (s ConsoleSink) Print(run Run) {
	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetTitle("Guide check results (%s)", formatDuration(run.Duration()))
	t.AppendHeader(table.Row{"Document", "Errors", "Warnings", "Flaky", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Document", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Warnings", Align: text.AlignRight},
		{Name: "Flaky", Align: text.AlignRight},
	})

	for _, doc := range run.Documents {
		t.AppendRow(table.Row{doc.Path, doc.Errors, doc.Warnings, doc.Flaky, statusString(doc)})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d document(s)", run.Stats.Documents),
		run.Stats.Errors,
		run.Stats.Warnings,
		run.Stats.Flaky,
		fmt.Sprintf("%.0f%% clean", run.Stats.PassRate),
	})
	t.Render()

	printedAny := false
	for _, doc := range run.Documents {
		for _, finding := range doc.Findings {
			if !printedAny {
				s.logger.Println()
				printedAny = true
			}
			if finding.Severity == models.SeverityError {
				s.logger.Errorf("%s", finding)
			} else {
				s.logger.Warnf("%s", finding)
			}
		}
	}
	if printedAny {
		s.logger.Println()
		s.logger.Printf("Open the HTML report for the full context of each finding.")
	}
}

func statusString(result DocumentResult) string {
	switch {
	case result.Errors > 0:
		return colorstring.Red("fail")
	case result.Warnings+result.Flaky > 0:
		return colorstring.Yellow("warn")
	default:
		return colorstring.Green("pass")
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
