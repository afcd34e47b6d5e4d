package surface

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// Checker verifies that every CLI flag and config key the guide mentions
// exists on the documented framework surface.
type Checker struct {
	registry *Registry
	logger   log.Logger
}

func NewChecker(registry *Registry, logger log.Logger) Checker {
	return Checker{registry: registry, logger: logger}
}

var shellFenceLanguages = map[string]bool{
	"bash": true, "sh": true, "shell": true, "console": true, "zsh": true,
	"dockerfile": true, "docker": true,
}

var configFenceLanguages = map[string]bool{
	"ts": true, "typescript": true, "js": true, "javascript": true, "tsx": true,
}

// Check scans every document of the guide and returns the findings.
func (c Checker) Check(g *guide.Guide) []models.Finding {
	var findings []models.Finding
	for _, doc := range g.Documents {
		findings = append(findings, c.checkDocument(doc)...)
	}
	c.logger.Debugf("Surface check: %d finding(s) across %d document(s)", len(findings), len(g.Documents))
	return findings
}

func (c Checker) checkDocument(doc *guide.Document) []models.Finding {
	var findings []models.Finding
	for _, span := range doc.CodeSpans {
		findings = append(findings, c.checkCommandLine(doc.Path, span.Line, span.Text)...)
	}
	for _, block := range doc.CodeBlocks {
		switch {
		case shellFenceLanguages[block.Language] || block.Language == "yaml" || block.Language == "yml":
			findings = append(findings, c.checkShellBlock(doc.Path, block)...)
		case configFenceLanguages[block.Language] && strings.Contains(block.Content, "defineConfig("):
			findings = append(findings, c.checkConfigBlock(doc.Path, block)...)
		}
	}
	return findings
}

// checkShellBlock scans fence content line by line, joining backslash
// continuations so a wrapped invocation is parsed as one command.
func (c Checker) checkShellBlock(docPath string, block guide.CodeBlock) []models.Finding {
	var findings []models.Finding
	lines := strings.Split(block.Content, "\n")
	for i := 0; i < len(lines); i++ {
		first := i
		logical := strings.TrimPrefix(strings.TrimSpace(lines[i]), "$ ")
		for strings.HasSuffix(logical, "\\") && i+1 < len(lines) {
			i++
			logical = strings.TrimSuffix(logical, "\\") + " " + strings.TrimSpace(lines[i])
		}
		// content starts on the line after the fence opener
		findings = append(findings, c.checkCommandLine(docPath, block.Line+1+first, logical)...)
	}
	return findings
}

// shell control operators that end an invocation mid-line
var commandStoppers = map[string]bool{
	"&&": true, "||": true, "|": true, ";": true, ">": true, ">>": true, "<": true, "&": true,
}

// checkCommandLine validates every framework invocation found on a single
// logical command line.
func (c Checker) checkCommandLine(docPath string, line int, text string) []models.Finding {
	if !strings.Contains(text, "playwright") {
		return nil
	}
	var findings []models.Finding
	tokens := strings.Fields(text)
	for i := 0; i < len(tokens); i++ {
		token := trimToken(tokens[i])
		if token != "playwright" && !strings.HasSuffix(token, "/playwright") {
			continue
		}
		consumed, invocationFindings := c.checkInvocation(docPath, line, tokens[i+1:])
		findings = append(findings, invocationFindings...)
		i += consumed
	}
	return findings
}

// checkInvocation parses the tokens after a "playwright" token: the first is
// the subcommand, the rest are flags and their values. It returns the number
// of tokens consumed.
func (c Checker) checkInvocation(docPath string, line int, tokens []string) (int, []models.Finding) {
	if len(tokens) == 0 {
		return 0, nil
	}
	name := trimToken(tokens[0])
	if strings.HasPrefix(name, "-") || commandStoppers[name] {
		return 0, nil
	}
	command, known := c.registry.Command(name)
	if !known {
		message := fmt.Sprintf("unknown %s command %q", c.registry.Framework.Name, name)
		if suggestion := c.registry.SuggestCommand(name); suggestion != "" {
			message += fmt.Sprintf(", did you mean %q?", suggestion)
		}
		return 1, []models.Finding{{
			Check:    models.CheckSurface,
			Severity: models.SeverityError,
			Document: docPath,
			Line:     line,
			Target:   name,
			Message:  message,
		}}
	}

	var findings []models.Finding
	consumed := 1
	for i := 1; i < len(tokens); i++ {
		token := trimToken(tokens[i])
		if commandStoppers[token] {
			break
		}
		consumed++
		if !strings.HasPrefix(token, "-") || token == "-" || token == "--" {
			continue
		}
		flagName, value, hasValue := strings.Cut(token, "=")
		flag, ok := c.registry.LookupFlag(command.Name, flagName)
		if !ok {
			message := fmt.Sprintf("unknown flag %q for %q", flagName, commandInvocation(c.registry, command))
			if suggestion := c.registry.SuggestFlag(command.Name, flagName); suggestion != "" {
				message += fmt.Sprintf(", did you mean %q?", suggestion)
			}
			findings = append(findings, models.Finding{
				Check:    models.CheckSurface,
				Severity: models.SeverityError,
				Document: docPath,
				Line:     line,
				Target:   flagName,
				Message:  message,
			})
			continue
		}
		if flag.Deprecated {
			message := fmt.Sprintf("flag %q of %q is deprecated", flagName, commandInvocation(c.registry, command))
			if flag.ReplacedBy != "" {
				message += fmt.Sprintf(", use %q instead", flag.ReplacedBy)
			}
			findings = append(findings, models.Finding{
				Check:    models.CheckSurface,
				Severity: models.SeverityWarning,
				Document: docPath,
				Line:     line,
				Target:   flagName,
				Message:  message,
			})
		}
		if !hasValue && flag.Kind != "bool" && i+1 < len(tokens) {
			if next := trimToken(tokens[i+1]); !strings.HasPrefix(next, "-") && !commandStoppers[next] {
				value, hasValue = next, true
				i++
				consumed++
			}
		}
		if hasValue && flag.Kind == "enum" && !isPlaceholder(value) && !contains(flag.Values, value) {
			findings = append(findings, models.Finding{
				Check:    models.CheckSurface,
				Severity: models.SeverityError,
				Document: docPath,
				Line:     line,
				Target:   flagName,
				Message: fmt.Sprintf("invalid value %q for flag %q, allowed: %s",
					value, flagName, strings.Join(flag.Values, ", ")),
			})
		}
	}
	return consumed, findings
}

func commandInvocation(registry *Registry, command *Command) string {
	return registry.Framework.Invocation + " " + command.Name
}

// trimToken strips the quoting a shell line or YAML scalar wraps around a word.
func trimToken(token string) string {
	return strings.Trim(token, "\"'`")
}

// isPlaceholder reports whether a documented value is a stand-in like <mode>
// rather than a literal.
func isPlaceholder(value string) bool {
	return strings.ContainsAny(value, "<>$")
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
