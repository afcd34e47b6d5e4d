package models

import "fmt"

// Severity ranks a finding. Errors fail the step, warnings are reported but
// pass when fail_level is "error", flaky is reserved for links that failed
// the first sweep and recovered on retry.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityFlaky   Severity = "flaky"
)

// Check identifies the checker that produced a finding.
type Check string

const (
	// CheckDocuments covers document level issues: files that could not be
	// loaded and documents without front matter.
	CheckDocuments Check = "documents"
	CheckLinks     Check = "links"
	CheckSnippets  Check = "snippets"
	CheckSurface   Check = "surface"
)

// Finding is a single issue found in a guide document.
type Finding struct {
	Check    Check
	Severity Severity
	// Document is the path of the document relative to the guide root.
	Document string
	// Line is 1-based, 0 when the source position could not be resolved.
	Line int
	// Target is the thing the finding is about: a link destination, a CLI
	// flag, a config key or a fence language.
	Target  string
	Message string
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: [%s] %s", f.Document, f.Line, f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", f.Document, f.Severity, f.Message)
}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := map[Severity]int{}
	for _, finding := range findings {
		counts[finding.Severity]++
	}
	return counts
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, finding := range findings {
		if finding.Severity == SeverityError {
			return true
		}
	}
	return false
}
