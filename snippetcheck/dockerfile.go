package snippetcheck

import (
	"fmt"
	"strings"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

var dockerfileInstructions = map[string]bool{
	"FROM": true, "ARG": true, "RUN": true, "CMD": true, "LABEL": true,
	"EXPOSE": true, "ENV": true, "ADD": true, "COPY": true, "ENTRYPOINT": true,
	"VOLUME": true, "USER": true, "WORKDIR": true, "ONBUILD": true,
	"STOPSIGNAL": true, "HEALTHCHECK": true, "SHELL": true, "MAINTAINER": true,
}

// dockerfileValidator checks that every instruction is a real Dockerfile
// keyword and that nothing but ARG precedes the first FROM. Snippets without
// any FROM are treated as partial examples and only keyword-checked.
type dockerfileValidator struct{}

func (dockerfileValidator) Validate(docPath string, block guide.CodeBlock) []models.Finding {
	var findings []models.Finding
	lines := strings.Split(block.Content, "\n")

	fromIndex := -1
	for i, raw := range lines {
		fields := strings.Fields(raw)
		if len(fields) > 0 && strings.EqualFold(fields[0], "FROM") {
			fromIndex = i
			break
		}
	}

	continued := false
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		wasContinued := continued
		continued = strings.HasSuffix(line, "\\")
		if wasContinued || line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		instruction := strings.Fields(line)[0]
		upper := strings.ToUpper(instruction)
		if !dockerfileInstructions[upper] {
			findings = append(findings, models.Finding{
				Check:    models.CheckSnippets,
				Severity: models.SeverityError,
				Document: docPath,
				Line:     block.Line + 1 + i,
				Target:   instruction,
				Message:  fmt.Sprintf("unknown Dockerfile instruction %q", instruction),
			})
			continue
		}

		if fromIndex > i && upper != "ARG" {
			findings = append(findings, models.Finding{
				Check:    models.CheckSnippets,
				Severity: models.SeverityError,
				Document: docPath,
				Line:     block.Line + 1 + i,
				Target:   instruction,
				Message:  fmt.Sprintf("%s before the first FROM", upper),
			})
		}
	}
	return findings
}
