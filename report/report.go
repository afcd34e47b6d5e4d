package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// Run is the complete outcome of one guide check execution.
type Run struct {
	ID          string
	ToolVersion string
	DocDir      string
	// Checks lists the checker names that ran.
	Checks     []string
	StartedAt  time.Time
	FinishedAt time.Time
	Documents  []DocumentResult
	Stats      Stats
}

// Duration is the wall clock time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// DocumentResult groups the findings of a single guide document. Documents
// without findings are listed too, so the report shows what was covered.
type DocumentResult struct {
	Path     string
	Title    string
	Findings []models.Finding
	Errors   int
	Warnings int
	Flaky    int
}

// Clean reports whether the document produced no findings at all.
func (d DocumentResult) Clean() bool {
	return len(d.Findings) == 0
}

// Stats aggregates finding counts across the whole guide.
type Stats struct {
	Documents int
	Findings  int
	Errors    int
	Warnings  int
	Flaky     int
	// PassRate is the share of documents without error findings, in percent.
	PassRate float64
}

// Meta carries run level information into the report.
type Meta struct {
	ToolVersion string
	DocDir      string
	Checks      []string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Build assembles the run record: every guide document gets a result entry,
// findings are grouped per document and ordered by line, the run gets a
// fresh ID. Findings that reference a document outside the loaded guide,
// for example one that failed to load, get their own entry too.
func Build(g *guide.Guide, findings []models.Finding, meta Meta) Run {
	run := Run{
		ID:          uuid.New().String(),
		ToolVersion: meta.ToolVersion,
		DocDir:      meta.DocDir,
		Checks:      meta.Checks,
		StartedAt:   meta.StartedAt,
		FinishedAt:  meta.FinishedAt,
	}

	perDocument := map[string][]models.Finding{}
	for _, finding := range findings {
		perDocument[finding.Document] = append(perDocument[finding.Document], finding)
	}

	for _, doc := range g.Documents {
		run.Documents = append(run.Documents, documentResult(doc.Path, titleOf(doc), perDocument[doc.Path]))
		delete(perDocument, doc.Path)
	}

	var leftover []string
	for pth := range perDocument {
		leftover = append(leftover, pth)
	}
	sort.Strings(leftover)
	for _, pth := range leftover {
		run.Documents = append(run.Documents, documentResult(pth, pth, perDocument[pth]))
	}

	cleanDocuments := 0
	for _, result := range run.Documents {
		if result.Errors == 0 {
			cleanDocuments++
		}
		run.Stats.Findings += len(result.Findings)
		run.Stats.Errors += result.Errors
		run.Stats.Warnings += result.Warnings
		run.Stats.Flaky += result.Flaky
	}

	run.Stats.Documents = len(run.Documents)
	if run.Stats.Documents > 0 {
		run.Stats.PassRate = float64(cleanDocuments) / float64(run.Stats.Documents) * 100
	}
	return run
}

func documentResult(pth, title string, findings []models.Finding) DocumentResult {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Line < findings[j].Line
	})

	result := DocumentResult{
		Path:     pth,
		Title:    title,
		Findings: findings,
	}
	for _, finding := range findings {
		switch finding.Severity {
		case models.SeverityError:
			result.Errors++
		case models.SeverityFlaky:
			result.Flaky++
		default:
			result.Warnings++
		}
	}
	return result
}

func titleOf(doc *guide.Document) string {
	if doc.FrontMatter != nil && doc.FrontMatter.Title != "" {
		return doc.FrontMatter.Title
	}
	for _, heading := range doc.Headings {
		if heading.Level == 1 {
			return heading.Text
		}
	}
	return doc.Path
}
