package snippetcheck

import (
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/guidewright/e2e-testing-guide/fileremover"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
	"github.com/guidewright/e2e-testing-guide/nodecommand"
)

// Validator checks one fenced code block and reports its findings.
type Validator interface {
	Validate(docPath string, block guide.CodeBlock) []models.Finding
}

// Checker validates the fenced code blocks of a guide, dispatching each block
// to the validator registered for its language. Blocks in languages without a
// validator are skipped.
type Checker struct {
	validators map[string]Validator
	logger     log.Logger
}

var languageAliases = map[string]string{
	"javascript": "js",
	"mjs":        "js",
	"cjs":        "js",
	"typescript": "ts",
	"tsx":        "ts",
	"golang":     "go",
	"yml":        "yaml",
	"sh":         "bash",
	"shell":      "bash",
	"zsh":        "bash",
	"console":    "bash",
	"docker":     "dockerfile",
}

// CanonicalLanguage maps a fence info language to the name its validator is
// registered under.
func CanonicalLanguage(language string) string {
	if canonical, ok := languageAliases[language]; ok {
		return canonical
	}
	return language
}

// NewChecker wires the per-language validators. Plain JavaScript dialects go
// through scriptRunner, TypeScript through typescriptRunner: node --check
// cannot parse type annotations, so the TypeScript runner is expected to be
// the builtin structural one. nodeArgs are extra arguments for the node
// process.
func NewChecker(scriptRunner nodecommand.Runner, typescriptRunner nodecommand.Runner, scriptWriter nodecommand.ScriptWriter, fileRemover fileremover.FileRemover, nodeArgs []string, logger log.Logger) Checker {
	validators := map[string]Validator{
		"js":         &scriptValidator{runner: scriptRunner, writer: scriptWriter, remover: fileRemover, filename: "snippet.mjs", nodeArgs: nodeArgs, logger: logger},
		"ts":         &scriptValidator{runner: typescriptRunner, writer: scriptWriter, remover: fileRemover, filename: "snippet.ts", logger: logger},
		"go":         goValidator{},
		"json":       jsonValidator{},
		"yaml":       yamlValidator{},
		"bash":       bashValidator{},
		"dockerfile": dockerfileValidator{},
	}
	return Checker{
		validators: validators,
		logger:     logger,
	}
}

// Languages returns the canonical languages the checker can validate, sorted.
func (c Checker) Languages() []string {
	var languages []string
	for language := range c.validators {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	return languages
}

// Check validates every fenced code block of the guide. A non-empty languages
// list restricts the check to those languages.
func (c Checker) Check(g *guide.Guide, languages []string) []models.Finding {
	selected := map[string]bool{}
	for _, language := range languages {
		if language = strings.TrimSpace(language); language != "" {
			selected[CanonicalLanguage(language)] = true
		}
	}

	var findings []models.Finding
	checked := 0
	for _, doc := range g.Documents {
		for _, block := range doc.CodeBlocks {
			language := CanonicalLanguage(block.Language)
			validator, ok := c.validators[language]
			if !ok {
				continue
			}
			if len(selected) > 0 && !selected[language] {
				c.logger.Debugf("%s:%d: skipping %s fence, language not selected", doc.Path, block.Line, block.Language)
				continue
			}
			if strings.TrimSpace(block.Content) == "" {
				findings = append(findings, models.Finding{
					Check:    models.CheckSnippets,
					Severity: models.SeverityWarning,
					Document: doc.Path,
					Line:     block.Line,
					Target:   block.Language,
					Message:  "empty code fence",
				})
				continue
			}
			checked++
			findings = append(findings, validator.Validate(doc.Path, block)...)
		}
	}
	c.logger.Debugf("Snippet check: validated %d block(s), %d finding(s)", checked, len(findings))
	return findings
}
