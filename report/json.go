package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/guidewright/e2e-testing-guide/models"
)

// JSONReportFilename is the default file name of the machine readable report.
const JSONReportFilename = "guidecheck-results.json"

// The json* types pin the file schema. Renaming a Run field must not change
// what consumers of the JSON file see.
type jsonReport struct {
	RunID       string         `json:"run_id"`
	ToolVersion string         `json:"tool_version"`
	DocDir      string         `json:"doc_dir"`
	Checks      []string       `json:"checks"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	DurationMS  int64          `json:"duration_ms"`
	Stats       jsonStats      `json:"stats"`
	Documents   []jsonDocument `json:"documents"`
}

type jsonStats struct {
	Documents int     `json:"documents"`
	Findings  int     `json:"findings"`
	Errors    int     `json:"errors"`
	Warnings  int     `json:"warnings"`
	Flaky     int     `json:"flaky"`
	PassRate  float64 `json:"pass_rate"`
}

type jsonDocument struct {
	Path     string        `json:"path"`
	Title    string        `json:"title"`
	Clean    bool          `json:"clean"`
	Findings []jsonFinding `json:"findings"`
}

type jsonFinding struct {
	Check    string `json:"check"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Target   string `json:"target,omitempty"`
	Message  string `json:"message"`
}

// JSONSink writes the run results as a JSON file.
type JSONSink struct {
	logger log.Logger
}

func NewJSONSink(logger log.Logger) JSONSink {
	return JSONSink{logger: logger}
}

// Write renders run into the stable JSON schema at pth.
func (s JSONSink) Write(run Run, pth string) error {
	data, err := json.MarshalIndent(toJSONReport(run), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON report: %w", err)
	}

	if err := os.WriteFile(pth, data, 0644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}

	s.logger.Debugf("JSON report written to %s", pth)

	return nil
}

func toJSONReport(run Run) jsonReport {
	report := jsonReport{
		RunID:       run.ID,
		ToolVersion: run.ToolVersion,
		DocDir:      run.DocDir,
		Checks:      run.Checks,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		DurationMS:  run.Duration().Milliseconds(),
		Stats: jsonStats{
			Documents: run.Stats.Documents,
			Findings:  run.Stats.Findings,
			Errors:    run.Stats.Errors,
			Warnings:  run.Stats.Warnings,
			Flaky:     run.Stats.Flaky,
			PassRate:  run.Stats.PassRate,
		},
	}

	for _, doc := range run.Documents {
		jsonDoc := jsonDocument{
			Path:     doc.Path,
			Title:    doc.Title,
			Clean:    doc.Clean(),
			Findings: []jsonFinding{},
		}
		for _, finding := range doc.Findings {
			jsonDoc.Findings = append(jsonDoc.Findings, toJSONFinding(finding))
		}
		report.Documents = append(report.Documents, jsonDoc)
	}

	return report
}

func toJSONFinding(finding models.Finding) jsonFinding {
	return jsonFinding{
		Check:    string(finding.Check),
		Severity: string(finding.Severity),
		Line:     finding.Line,
		Target:   finding.Target,
		Message:  finding.Message,
	}
}
