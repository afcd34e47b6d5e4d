package snippetcheck

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/bitrise-io/go-utils/stringutil"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/guidewright/e2e-testing-guide/fileremover"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
	"github.com/guidewright/e2e-testing-guide/nodecommand"
)

// scriptValidator writes a block to a scratch file and hands it to a syntax
// check runner. The scratch directory is removed once the runner is done.
type scriptValidator struct {
	runner   nodecommand.Runner
	writer   nodecommand.ScriptWriter
	remover  fileremover.FileRemover
	filename string
	nodeArgs []string
	logger   log.Logger
}

func (v *scriptValidator) Validate(docPath string, block guide.CodeBlock) []models.Finding {
	scriptPath, err := v.writer.Write(block.Content, v.filename)
	if err != nil {
		return []models.Finding{{
			Check:    models.CheckSnippets,
			Severity: models.SeverityError,
			Document: docPath,
			Line:     block.Line,
			Target:   block.Language,
			Message:  fmt.Sprintf("failed to prepare snippet for parsing: %s", err),
		}}
	}
	defer func() {
		if err := v.remover.RemoveAll(filepath.Dir(scriptPath)); err != nil {
			v.logger.Warnf("Failed to remove the snippet scratch dir, error: %s", err)
		}
	}()

	output, err := v.runner.Run("", scriptPath, v.nodeArgs)
	if err != nil {
		return []models.Finding{{
			Check:    models.CheckSnippets,
			Severity: models.SeverityError,
			Document: docPath,
			Line:     block.Line,
			Target:   block.Language,
			Message:  fmt.Sprintf("failed to run the syntax check: %s", err),
		}}
	}
	if output.ExitCode == 0 {
		return nil
	}

	v.logger.Debugf("Syntax check output for %s:%d:\n%s", docPath, block.Line, stringutil.LastNLines(string(output.RawOut), 20))

	snippetLine, message := parseScriptDiagnostics(output.RawOut)
	line := block.Line
	if snippetLine > 0 {
		// content starts on the line after the fence opener
		line = block.Line + snippetLine
	}
	if message == "" {
		message = "snippet failed the syntax check"
	}
	return []models.Finding{{
		Check:    models.CheckSnippets,
		Severity: models.SeverityError,
		Document: docPath,
		Line:     line,
		Target:   block.Language,
		Message:  message,
	}}
}

var (
	// the builtin runner prints "line <n>: <message>"
	builtinDiagnosticPattern = regexp.MustCompile(`^line (\d+): (.+)$`)
	// node prints the failing location as "<path>:<n>" on its first line
	nodeLocationPattern = regexp.MustCompile(`:(\d+)$`)
)

// parseScriptDiagnostics extracts the snippet-relative line and a one-line
// message from the raw parser output. Node colorizes its diagnostics, the
// escape codes would leak into the finding message.
func parseScriptDiagnostics(rawOut []byte) (int, string) {
	lines := strings.Split(strings.TrimSpace(stripansi.Strip(string(rawOut))), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return 0, ""
	}

	if match := builtinDiagnosticPattern.FindStringSubmatch(lines[0]); match != nil {
		line, _ := strconv.Atoi(match[1])
		return line, match[2]
	}

	line := 0
	if match := nodeLocationPattern.FindStringSubmatch(strings.TrimSpace(lines[0])); match != nil {
		line, _ = strconv.Atoi(match[1])
	}
	for _, outLine := range lines {
		outLine = strings.TrimSpace(outLine)
		if strings.Contains(outLine, "Error") {
			return line, outLine
		}
	}
	return line, strings.TrimSpace(lines[0])
}
