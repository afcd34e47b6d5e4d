package snippetcheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

type jsonValidator struct{}

func (jsonValidator) Validate(docPath string, block guide.CodeBlock) []models.Finding {
	var value interface{}
	err := json.Unmarshal([]byte(block.Content), &value)
	if err == nil {
		return nil
	}

	line := block.Line
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line = block.Line + lineOfOffset(block.Content, syntaxErr.Offset)
	}
	return []models.Finding{{
		Check:    models.CheckSnippets,
		Severity: models.SeverityError,
		Document: docPath,
		Line:     line,
		Target:   block.Language,
		Message:  fmt.Sprintf("invalid JSON: %s", err),
	}}
}

func lineOfOffset(content string, offset int64) int {
	if offset > int64(len(content)) {
		offset = int64(len(content))
	}
	return strings.Count(content[:offset], "\n") + 1
}

type yamlValidator struct{}

var yamlLinePattern = regexp.MustCompile(`line (\d+):`)

// Validate decodes every document of the stream so multi-document fences,
// such as pipeline configs separated by ---, are fully checked.
func (yamlValidator) Validate(docPath string, block guide.CodeBlock) []models.Finding {
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(block.Content)))
	for {
		var value interface{}
		err := decoder.Decode(&value)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line := block.Line
		if match := yamlLinePattern.FindStringSubmatch(err.Error()); match != nil {
			n, _ := strconv.Atoi(match[1])
			line = block.Line + n
		}
		return []models.Finding{{
			Check:    models.CheckSnippets,
			Severity: models.SeverityError,
			Document: docPath,
			Line:     line,
			Target:   block.Language,
			Message:  fmt.Sprintf("invalid YAML: %s", err),
		}}
	}
}
