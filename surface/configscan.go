package surface

import (
	"fmt"
	"strings"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// checkConfigBlock validates the dotted config keys of a defineConfig({...})
// literal inside a ts/js fence.
func (c Checker) checkConfigBlock(docPath string, block guide.CodeBlock) []models.Finding {
	start := strings.Index(block.Content, "defineConfig(")
	if start == -1 {
		return nil
	}
	scanner := configScanner{
		registry: c.registry,
		docPath:  docPath,
		baseLine: block.Line + 1,
		content:  block.Content,
	}
	return scanner.scan(start + len("defineConfig("))
}

// configScanner walks a config object literal character by character. It
// skips strings and comments, tracks the object key path through nested
// braces and suppresses everything inside array literals, where item keys
// (project names, reporter options) are not part of the dotted key space.
type configScanner struct {
	registry *Registry
	docPath  string
	baseLine int
	content  string

	pos      int
	line     int
	findings []models.Finding
}

type scopeFrame struct {
	depth   int
	segment string
}

func (s *configScanner) scan(from int) []models.Finding {
	s.pos = from
	s.line = strings.Count(s.content[:from], "\n")
	s.skipInsignificant()
	if s.pos >= len(s.content) || s.content[s.pos] != '{' {
		// defineConfig(config) with a variable argument, nothing to scan
		return nil
	}
	s.advance()

	depth := 1
	arrayDepth := 0
	expectKey := true
	pendingKey := ""
	var scopes []scopeFrame

	for s.pos < len(s.content) && depth > 0 {
		s.skipInsignificant()
		if s.pos >= len(s.content) {
			break
		}
		ch := s.content[s.pos]
		switch {
		case ch == '{':
			depth++
			if pendingKey != "" && arrayDepth == 0 {
				scopes = append(scopes, scopeFrame{depth: depth, segment: pendingKey})
			}
			pendingKey = ""
			expectKey = true
			s.advance()
		case ch == '}':
			if len(scopes) > 0 && scopes[len(scopes)-1].depth == depth {
				scopes = scopes[:len(scopes)-1]
			}
			depth--
			pendingKey = ""
			expectKey = false
			s.advance()
		case ch == '[':
			arrayDepth++
			pendingKey = ""
			s.advance()
		case ch == ']':
			if arrayDepth > 0 {
				arrayDepth--
			}
			s.advance()
		case ch == ',':
			expectKey = true
			pendingKey = ""
			s.advance()
		case isIdentStart(ch):
			ident, identLine := s.readIdent()
			s.skipInsignificant()
			if expectKey && arrayDepth == 0 && s.pos < len(s.content) && s.content[s.pos] == ':' {
				s.advance()
				value, quoted := s.peekStringValue()
				s.checkKey(scopes, ident, identLine, value, quoted)
				pendingKey = ident
				expectKey = false
			} else {
				expectKey = false
				pendingKey = ""
			}
		default:
			s.advance()
		}
	}
	return s.findings
}

func (s *configScanner) checkKey(scopes []scopeFrame, ident string, line int, value string, quoted bool) {
	parent := joinScopes(scopes)
	if !s.registry.HasRegisteredChildren(parent) {
		return
	}
	path := ident
	if parent != "" {
		path = parent + "." + ident
	}
	key, ok := s.registry.LookupKey(path)
	if !ok {
		message := fmt.Sprintf("unknown config key %q", path)
		if suggestion := s.registry.SuggestKey(path); suggestion != "" {
			message += fmt.Sprintf(", did you mean %q?", suggestion)
		}
		s.findings = append(s.findings, models.Finding{
			Check:    models.CheckSurface,
			Severity: models.SeverityError,
			Document: s.docPath,
			Line:     s.baseLine + line,
			Target:   path,
			Message:  message,
		})
		return
	}
	if key.Deprecated {
		message := fmt.Sprintf("config key %q is deprecated", path)
		if key.ReplacedBy != "" {
			message += fmt.Sprintf(", use %q instead", key.ReplacedBy)
		}
		s.findings = append(s.findings, models.Finding{
			Check:    models.CheckSurface,
			Severity: models.SeverityWarning,
			Document: s.docPath,
			Line:     s.baseLine + line,
			Target:   path,
			Message:  message,
		})
	}
	if key.Type == "enum" && quoted && !isPlaceholder(value) && !contains(key.Values, value) {
		s.findings = append(s.findings, models.Finding{
			Check:    models.CheckSurface,
			Severity: models.SeverityError,
			Document: s.docPath,
			Line:     s.baseLine + line,
			Target:   path,
			Message: fmt.Sprintf("invalid value %q for config key %q, allowed: %s",
				value, path, strings.Join(key.Values, ", ")),
		})
	}
}

func joinScopes(scopes []scopeFrame) string {
	segments := make([]string, len(scopes))
	for i, scope := range scopes {
		segments[i] = scope.segment
	}
	return strings.Join(segments, ".")
}

func (s *configScanner) advance() {
	if s.content[s.pos] == '\n' {
		s.line++
	}
	s.pos++
}

// skipInsignificant moves past whitespace, comments and string literals.
func (s *configScanner) skipInsignificant() {
	for s.pos < len(s.content) {
		ch := s.content[s.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			s.advance()
		case ch == '/' && s.pos+1 < len(s.content) && s.content[s.pos+1] == '/':
			for s.pos < len(s.content) && s.content[s.pos] != '\n' {
				s.advance()
			}
		case ch == '/' && s.pos+1 < len(s.content) && s.content[s.pos+1] == '*':
			s.advance()
			s.advance()
			for s.pos < len(s.content) {
				if s.content[s.pos] == '*' && s.pos+1 < len(s.content) && s.content[s.pos+1] == '/' {
					s.advance()
					s.advance()
					break
				}
				s.advance()
			}
		case ch == '\'' || ch == '"' || ch == '`':
			s.skipString(ch)
		default:
			return
		}
	}
}

func (s *configScanner) skipString(quote byte) {
	s.advance()
	for s.pos < len(s.content) {
		ch := s.content[s.pos]
		if ch == '\\' && s.pos+1 < len(s.content) {
			s.advance()
			s.advance()
			continue
		}
		s.advance()
		if ch == quote {
			return
		}
	}
}

func (s *configScanner) readIdent() (string, int) {
	line := s.line
	start := s.pos
	for s.pos < len(s.content) && isIdentPart(s.content[s.pos]) {
		s.advance()
	}
	return s.content[start:s.pos], line
}

// peekStringValue reads the value after a colon without consuming it when it
// is not a plain string literal. Only quoted scalars are returned, anything
// else (numbers, booleans, expressions) is left for the main loop.
func (s *configScanner) peekStringValue() (string, bool) {
	s.skipWhitespaceOnly()
	if s.pos >= len(s.content) {
		return "", false
	}
	quote := s.content[s.pos]
	if quote != '\'' && quote != '"' {
		return "", false
	}
	start := s.pos + 1
	end := start
	for end < len(s.content) && s.content[end] != quote && s.content[end] != '\n' {
		end++
	}
	if end >= len(s.content) || s.content[end] != quote {
		return "", false
	}
	value := s.content[start:end]
	for s.pos <= end {
		s.advance()
	}
	return value, true
}

func (s *configScanner) skipWhitespaceOnly() {
	for s.pos < len(s.content) {
		ch := s.content[s.pos]
		if ch != ' ' && ch != '\t' {
			return
		}
		s.advance()
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || ('0' <= ch && ch <= '9')
}
