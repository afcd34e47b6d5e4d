package snippetcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	removermocks "github.com/guidewright/e2e-testing-guide/fileremover/mocks"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
	"github.com/guidewright/e2e-testing-guide/nodecommand"
	nodemocks "github.com/guidewright/e2e-testing-guide/nodecommand/mocks"
)

func Test_GivenScriptBlock_WhenValidated_ThenRunnerInvokedAndFindingMapped(t *testing.T) {
	// Given
	writer := new(nodemocks.ScriptWriter)
	writer.On("Write", "const a = ;\n", "snippet.mjs").Return("/tmp/scratch/snippet.mjs", nil)

	runner := new(nodemocks.Runner)
	runner.On("Run", "", "/tmp/scratch/snippet.mjs", []string(nil)).Return(nodecommand.Output{
		RawOut:   []byte("/tmp/scratch/snippet.mjs:1\nconst a = ;\n          ^\n\nSyntaxError: Unexpected token ';'\n"),
		ExitCode: 1,
	}, nil)

	remover := new(removermocks.FileRemover)
	remover.On("RemoveAll", "/tmp/scratch").Return(nil)

	validator := &scriptValidator{runner: runner, writer: writer, remover: remover, filename: "snippet.mjs", logger: log.NewLogger()}
	block := guide.CodeBlock{Language: "js", Content: "const a = ;\n", Fenced: true, Line: 10}

	// When
	findings := validator.Validate("writing-tests.md", block)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, models.CheckSnippets, findings[0].Check)
	assert.Equal(t, models.SeverityError, findings[0].Severity)
	assert.Equal(t, "writing-tests.md", findings[0].Document)
	assert.Equal(t, 11, findings[0].Line)
	assert.Equal(t, "SyntaxError: Unexpected token ';'", findings[0].Message)
	runner.AssertCalled(t, "Run", "", "/tmp/scratch/snippet.mjs", []string(nil))
	remover.AssertCalled(t, "RemoveAll", "/tmp/scratch")
}

func Test_GivenCleanScriptBlock_WhenValidated_ThenNoFindings(t *testing.T) {
	// Given
	writer := new(nodemocks.ScriptWriter)
	writer.On("Write", mock.Anything, mock.Anything).Return("/tmp/scratch/snippet.mjs", nil)

	runner := new(nodemocks.Runner)
	runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nodecommand.Output{ExitCode: 0}, nil)

	remover := new(removermocks.FileRemover)
	remover.On("RemoveAll", mock.Anything).Return(nil)

	validator := &scriptValidator{runner: runner, writer: writer, remover: remover, filename: "snippet.mjs", logger: log.NewLogger()}
	block := guide.CodeBlock{Language: "js", Content: "const a = 1;\n", Fenced: true, Line: 3}

	// When
	findings := validator.Validate("writing-tests.md", block)

	// Then
	assert.Empty(t, findings)
}

func Test_GivenParserOutputs_WhenParsed_ThenLineAndMessageExtracted(t *testing.T) {
	tests := []struct {
		name        string
		rawOut      string
		wantLine    int
		wantMessage string
	}{
		{
			name:        "builtin diagnostic",
			rawOut:      "line 3: unclosed \"{\"\n",
			wantLine:    3,
			wantMessage: `unclosed "{"`,
		},
		{
			name:        "node syntax error",
			rawOut:      "/tmp/x/snippet.mjs:2\nawait page.goto(;\n                ^\n\nSyntaxError: Unexpected token ';'\n",
			wantLine:    2,
			wantMessage: "SyntaxError: Unexpected token ';'",
		},
		{
			name:        "unrecognized output",
			rawOut:      "something went wrong\n",
			wantLine:    0,
			wantMessage: "something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, message := parseScriptDiagnostics([]byte(tt.rawOut))

			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func Test_GivenInvalidJSONBlock_WhenValidated_ThenErrorWithLine(t *testing.T) {
	// Given
	block := guide.CodeBlock{
		Language: "json",
		Content:  "{\n  \"scripts\": {\n    \"test:e2e\": \"playwright test\",\n  }\n}\n",
		Fenced:   true,
		Line:     20,
	}

	// When
	findings := jsonValidator{}.Validate("installation.md", block)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityError, findings[0].Severity)
	assert.Equal(t, 24, findings[0].Line)
	assert.Contains(t, findings[0].Message, "invalid JSON")
}

func Test_GivenValidJSONBlock_WhenValidated_ThenNoFindings(t *testing.T) {
	// Given
	block := guide.CodeBlock{Language: "json", Content: "{\"retries\": 2}\n", Fenced: true, Line: 5}

	// When & Then
	assert.Empty(t, jsonValidator{}.Validate("installation.md", block))
}

func Test_GivenInvalidYAMLBlock_WhenValidated_ThenErrorWithLine(t *testing.T) {
	// Given
	block := guide.CodeBlock{
		Language: "yaml",
		Content:  "steps:\n- checkout: true\n  bad indent: [\n",
		Fenced:   true,
		Line:     7,
	}

	// When
	findings := yamlValidator{}.Validate("ci.md", block)

	// Then
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "invalid YAML")
}

func Test_GivenTabIndentedYAMLBlock_WhenValidated_ThenErrorPointsAtTab(t *testing.T) {
	// Given
	block := guide.CodeBlock{
		Language: "yaml",
		Content:  "jobs:\n\tbuild: true\n",
		Fenced:   true,
		Line:     3,
	}

	// When
	findings := yamlValidator{}.Validate("ci.md", block)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, 5, findings[0].Line)
	assert.Contains(t, findings[0].Message, "invalid YAML")
}

func Test_GivenMultiDocumentYAMLBlock_WhenValidated_ThenEveryDocumentDecoded(t *testing.T) {
	// Given
	block := guide.CodeBlock{
		Language: "yaml",
		Content:  "a: 1\n---\nb: 2\n",
		Fenced:   true,
		Line:     7,
	}

	// When & Then
	assert.Empty(t, yamlValidator{}.Validate("ci.md", block))
}

func Test_GivenShellBlocks_WhenValidated_ThenQuoteAndContinuationProblemsFound(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantFindings int
		wantLine     int
		wantSeverity models.Severity
	}{
		{
			name:         "clean command",
			content:      "npx playwright test --grep \"smoke\"\n",
			wantFindings: 0,
		},
		{
			name:         "unterminated quote",
			content:      "npx playwright test --grep \"smoke\n",
			wantFindings: 1,
			wantLine:     4,
			wantSeverity: models.SeverityError,
		},
		{
			name:         "dangling continuation",
			content:      "npx playwright test \\\n",
			wantFindings: 1,
			wantLine:     4,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:         "apostrophe in comment",
			content:      "npx playwright test # it's fine\n",
			wantFindings: 0,
		},
		{
			name:         "transcript output lines skipped",
			content:      "$ npx playwright test\nRunning 3 tests, don't panic\n",
			wantFindings: 0,
		},
		{
			name:         "placeholder left in command",
			content:      "npx playwright test --grep <tag>\n",
			wantFindings: 1,
			wantLine:     4,
			wantSeverity: models.SeverityWarning,
		},
		{
			name:         "placeholder in comment ignored",
			content:      "npx playwright test # set <tag> first\n",
			wantFindings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := guide.CodeBlock{Language: "bash", Content: tt.content, Fenced: true, Line: 3}

			findings := bashValidator{}.Validate("running-tests.md", block)

			require.Len(t, findings, tt.wantFindings)
			if tt.wantFindings > 0 {
				assert.Equal(t, tt.wantLine, findings[0].Line)
				assert.Equal(t, tt.wantSeverity, findings[0].Severity)
			}
		})
	}
}

func Test_GivenDockerfileBlocks_WhenValidated_ThenInstructionProblemsFound(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantFindings int
		wantTarget   string
	}{
		{
			name:         "complete dockerfile",
			content:      "FROM mcr.microsoft.com/playwright:v1.47.0-jammy\nWORKDIR /app\nCOPY . .\nRUN npm ci\nCMD [\"npx\", \"playwright\", \"test\"]\n",
			wantFindings: 0,
		},
		{
			name:         "partial snippet without FROM",
			content:      "RUN npx playwright install --with-deps\n",
			wantFindings: 0,
		},
		{
			name:         "unknown instruction",
			content:      "FROM node:20\nRUNN npm ci\n",
			wantFindings: 1,
			wantTarget:   "RUNN",
		},
		{
			name:         "instruction before FROM",
			content:      "WORKDIR /app\nFROM node:20\n",
			wantFindings: 1,
			wantTarget:   "WORKDIR",
		},
		{
			name:         "arg before FROM is fine",
			content:      "ARG NODE_VERSION=20\nFROM node:${NODE_VERSION}\n",
			wantFindings: 0,
		},
		{
			name:         "continuation lines not keyword checked",
			content:      "FROM node:20\nRUN npm ci \\\n    && npx playwright install\n",
			wantFindings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := guide.CodeBlock{Language: "dockerfile", Content: tt.content, Fenced: true, Line: 3}

			findings := dockerfileValidator{}.Validate("ci.md", block)

			require.Len(t, findings, tt.wantFindings)
			if tt.wantFindings > 0 {
				assert.Equal(t, tt.wantTarget, findings[0].Target)
			}
		})
	}
}

func Test_GivenGoBlocks_WhenValidated_ThenParserFindingsMapped(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		wantFindings int
		wantLine     int
	}{
		{
			name:         "complete file with package clause",
			content:      "package e2e\n\nimport \"testing\"\n\nfunc TestLogin(t *testing.T) {\n\tt.Log(\"ok\")\n}\n",
			wantFindings: 0,
		},
		{
			name:         "declarations without package clause",
			content:      "func helper() string {\n\treturn \"ok\"\n}\n",
			wantFindings: 0,
		},
		{
			name:         "syntax error with line mapping",
			content:      "package e2e\n\nfunc broken( {\n}\n",
			wantFindings: 1,
			wantLine:     8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := guide.CodeBlock{Language: "go", Content: tt.content, Fenced: true, Line: 5}

			findings := goValidator{}.Validate("writing-tests.md", block)

			require.Len(t, findings, tt.wantFindings)
			if tt.wantFindings > 0 {
				assert.Equal(t, tt.wantLine, findings[0].Line)
				assert.Contains(t, findings[0].Message, "invalid Go")
			}
		})
	}
}

func Test_GivenEmptyFence_WhenChecked_ThenWarningReported(t *testing.T) {
	// Given
	doc := "# Install\n\n~~~json\n~~~\n"
	checker := NewChecker(nil, nil, nil, nil, nil, log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc), nil)

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityWarning, findings[0].Severity)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, "empty code fence", findings[0].Message)
}

func Test_GivenGuide_WhenChecked_ThenOnlySelectedLanguagesValidated(t *testing.T) {
	// Given
	doc := `# Install

~~~json
{"retries": }
~~~

~~~yaml
key: [
~~~

~~~text
not a language the checker knows
~~~
`
	checker := NewChecker(nil, nil, nil, nil, nil, log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc), []string{"json"})

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, "json", findings[0].Target)
}

func Test_WhenLanguagesListed_ThenSortedCanonicalNames(t *testing.T) {
	checker := NewChecker(nil, nil, nil, nil, nil, log.NewLogger())

	assert.Equal(t, []string{"bash", "dockerfile", "go", "js", "json", "ts", "yaml"}, checker.Languages())
}

// Helpers

func loadGuide(t *testing.T, markdown string) *guide.Guide {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte(markdown), 0600))
	g, err := guide.NewLoader(log.NewLogger()).Load(dir)
	require.NoError(t, err)
	return g
}
