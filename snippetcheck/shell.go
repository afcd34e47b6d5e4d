package snippetcheck

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// bashValidator checks shell snippets for the mistakes markdown editing tends
// to introduce: quotes left open, a continuation backslash with nothing after
// it and <placeholder> tokens the author forgot to fill in. Blocks written as
// terminal transcripts, where some lines start with a $ prompt, have their
// output lines skipped.
type bashValidator struct{}

var placeholderPattern = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9_-]*>`)

func (bashValidator) Validate(docPath string, block guide.CodeBlock) []models.Finding {
	var findings []models.Finding
	lines := strings.Split(block.Content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	transcript := isTranscript(lines)

	for i := 0; i < len(lines); i++ {
		first := i
		line := lines[i]
		if transcript {
			if !strings.HasPrefix(line, "$ ") {
				continue
			}
			line = strings.TrimPrefix(line, "$ ")
		}

		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + " " + lines[i]
		}

		if strings.HasSuffix(line, "\\") {
			findings = append(findings, models.Finding{
				Check:    models.CheckSnippets,
				Severity: models.SeverityWarning,
				Document: docPath,
				Line:     block.Line + 1 + i,
				Target:   block.Language,
				Message:  "line continuation at the end of the snippet",
			})
			continue
		}

		if quote := unterminatedQuote(line); quote != 0 {
			findings = append(findings, models.Finding{
				Check:    models.CheckSnippets,
				Severity: models.SeverityError,
				Document: docPath,
				Line:     block.Line + 1 + first,
				Target:   block.Language,
				Message:  fmt.Sprintf("unterminated %s quote", string(quote)),
			})
		}

		for _, placeholder := range placeholderPattern.FindAllString(commandPart(line), -1) {
			findings = append(findings, models.Finding{
				Check:    models.CheckSnippets,
				Severity: models.SeverityWarning,
				Document: docPath,
				Line:     block.Line + 1 + first,
				Target:   placeholder,
				Message:  fmt.Sprintf("placeholder %s left in the command", placeholder),
			})
		}
	}
	return findings
}

func isTranscript(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, "$ ") {
			return true
		}
	}
	return false
}

// commandPart returns the line up to an unquoted # comment marker, so a
// placeholder mentioned in a comment is not flagged.
func commandPart(line string) string {
	var open byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if open != '\'' && ch == '\\' {
			i++
			continue
		}
		switch {
		case open == 0 && ch == '#':
			return line[:i]
		case open == 0 && (ch == '\'' || ch == '"'):
			open = ch
		case ch == open:
			open = 0
		}
	}
	return line
}

// unterminatedQuote returns the quote character a command line leaves open,
// or 0. Backslash escapes count outside single quotes, comments end the scan.
func unterminatedQuote(line string) byte {
	var open byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if open != '\'' && ch == '\\' {
			i++
			continue
		}
		switch {
		case open == 0 && ch == '#':
			return 0
		case open == 0 && (ch == '\'' || ch == '"'):
			open = ch
		case ch == open:
			open = 0
		}
	}
	return open
}
