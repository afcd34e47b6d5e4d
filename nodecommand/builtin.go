package nodecommand

import (
	"bytes"
	"fmt"
	"io"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
)

type builtinSyntaxRunner struct {
	logger      log.Logger
	fileManager fileutil.FileManager
}

// NewBuiltinRunner returns a Runner that approximates node --check without an
// external process. It verifies that delimiters balance and that strings,
// template literals, regular expressions and comments terminate, which
// catches the way code blocks usually break: a line lost while editing.
func NewBuiltinRunner(logger log.Logger, fileManager fileutil.FileManager) Runner {
	return &builtinSyntaxRunner{
		logger:      logger,
		fileManager: fileManager,
	}
}

func (c *builtinSyntaxRunner) Run(_ string, scriptPath string, _ []string) (Output, error) {
	file, err := c.fileManager.Open(scriptPath)
	if err != nil {
		return Output{ExitCode: 1}, fmt.Errorf("failed to open snippet file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.logger.Warnf("Failed to close snippet file: %s", err)
		}
	}()

	source, err := io.ReadAll(file)
	if err != nil {
		return Output{ExitCode: 1}, fmt.Errorf("failed to read snippet file: %w", err)
	}

	diagnostics := scanScriptSource(source)
	if len(diagnostics) == 0 {
		return Output{ExitCode: 0}, nil
	}

	var out bytes.Buffer
	for _, diagnostic := range diagnostics {
		out.WriteString(diagnostic)
		out.WriteByte('\n')
	}
	return Output{
		RawOut:   out.Bytes(),
		ExitCode: 1,
	}, nil
}

var delimiterPairs = map[byte]byte{')': '(', ']': '[', '}': '{'}

// scanScriptSource walks JavaScript or TypeScript source and reports
// structural problems. The scan stops at the first broken construct since
// everything after it would be noise.
func scanScriptSource(source []byte) []string {
	type opening struct {
		char byte
		pos  int
	}
	var stack []opening
	lastSignificant := byte(0)

	for i := 0; i < len(source); i++ {
		ch := source[i]
		switch {
		case ch == '/' && i+1 < len(source) && source[i+1] == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < len(source) && source[i+1] == '*':
			end := bytes.Index(source[i+2:], []byte("*/"))
			if end == -1 {
				return []string{fmt.Sprintf("line %d: unterminated block comment", lineOf(source, i))}
			}
			i += 2 + end + 1
		case ch == '\'' || ch == '"':
			end, ok := skipQuoted(source, i, ch, false)
			if !ok {
				return []string{fmt.Sprintf("line %d: unterminated string", lineOf(source, i))}
			}
			i = end
			lastSignificant = ch
		case ch == '`':
			end, ok := skipQuoted(source, i, '`', true)
			if !ok {
				return []string{fmt.Sprintf("line %d: unterminated template literal", lineOf(source, i))}
			}
			i = end
			lastSignificant = ch
		case ch == '/' && regexCanFollow(lastSignificant):
			end, ok := skipRegex(source, i)
			if !ok {
				return []string{fmt.Sprintf("line %d: unterminated regular expression", lineOf(source, i))}
			}
			i = end
			lastSignificant = '/'
		case ch == '(' || ch == '[' || ch == '{':
			stack = append(stack, opening{char: ch, pos: i})
			lastSignificant = ch
		case ch == ')' || ch == ']' || ch == '}':
			if len(stack) == 0 || stack[len(stack)-1].char != delimiterPairs[ch] {
				return []string{fmt.Sprintf("line %d: unexpected %q", lineOf(source, i), string(ch))}
			}
			stack = stack[:len(stack)-1]
			lastSignificant = ch
		default:
			if ch != ' ' && ch != '\t' && ch != '\r' && ch != '\n' {
				lastSignificant = ch
			}
		}
	}

	var diagnostics []string
	for _, open := range stack {
		diagnostics = append(diagnostics, fmt.Sprintf("line %d: unclosed %q", lineOf(source, open.pos), string(open.char)))
	}
	return diagnostics
}

// regexCanFollow reports whether a / after the given character starts a
// regular expression literal rather than a division.
func regexCanFollow(prev byte) bool {
	switch prev {
	case 0, '(', '[', '{', ',', '=', ':', ';', '!', '&', '|', '?', '<', '>', '+', '-', '*', '%', '~', '^':
		return true
	}
	return false
}

func skipQuoted(source []byte, start int, quote byte, allowNewline bool) (int, bool) {
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case '\n':
			if !allowNewline {
				return 0, false
			}
		case quote:
			return i, true
		}
	}
	return 0, false
}

func skipRegex(source []byte, start int) (int, bool) {
	inClass := false
	for i := start + 1; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case '\n':
			return 0, false
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i, true
			}
		}
	}
	return 0, false
}

func lineOf(source []byte, pos int) int {
	return bytes.Count(source[:pos], []byte{'\n'}) + 1
}
