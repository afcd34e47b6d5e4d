package snippetcheck

import (
	"errors"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// goValidator parses Go snippets with the standard library parser. A fence
// without a package clause is parsed under a synthetic one, so example fences
// can start right at the declarations.
type goValidator struct{}

// two lines, keeps the synthetic prefix out of reported line numbers
const goPackagePrefix = "package snippet\n\n"

func (goValidator) Validate(docPath string, block guide.CodeBlock) []models.Finding {
	content := block.Content
	prefixLines := 0
	if !hasPackageClause(content) {
		content = goPackagePrefix + content
		prefixLines = 2
	}

	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "snippet.go", content, 0)
	if err == nil {
		return nil
	}

	line := block.Line
	message := err.Error()
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		if contentLine := first.Pos.Line - prefixLines; contentLine > 0 {
			// content starts on the line after the fence opener
			line = block.Line + contentLine
		}
		message = first.Msg
	}
	return []models.Finding{{
		Check:    models.CheckSnippets,
		Severity: models.SeverityError,
		Document: docPath,
		Line:     line,
		Target:   block.Language,
		Message:  fmt.Sprintf("invalid Go: %s", message),
	}}
}

// hasPackageClause reports whether the first significant line of the snippet
// is a package declaration.
func hasPackageClause(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		return strings.HasPrefix(trimmed, "package ")
	}
	return false
}
