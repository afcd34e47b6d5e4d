package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"

	"github.com/bitrise-io/go-utils/v2/log"
)

// HTMLReportFilename is the name of the standalone HTML report.
const HTMLReportFilename = "guidecheck-report.html"

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// HTMLSink renders the run into a single self-contained HTML file, no
// external assets.
type HTMLSink struct {
	logger log.Logger
}

func NewHTMLSink(logger log.Logger) HTMLSink {
	return HTMLSink{logger: logger}
}

// Write renders the report to pth.
func (s HTMLSink) Write(run Run, pth string) error {
	tmpl, err := template.New("report.html.tmpl").Funcs(template.FuncMap{
		"severityClass": severityClass,
		"duration":      formatDuration,
	}).ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, run); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}

	if err := os.WriteFile(pth, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML report to %s: %w", pth, err)
	}
	s.logger.Debugf("HTML report written to %s", pth)
	return nil
}

func severityClass(severity interface{}) string {
	return fmt.Sprintf("severity-%v", severity)
}
