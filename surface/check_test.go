package surface

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

func Test_GivenValidInvocations_WhenChecked_ThenNoFindings(t *testing.T) {
	// Given
	doc := "# Guide\n\n" +
		"Open it with `npx playwright show-report`.\n\n" +
		`~~~bash
npx playwright test --headed --workers=2
npx playwright install --with-deps
~~~

~~~yaml
steps:
  - run: npx playwright test --reporter=html --trace on
~~~
`
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	assert.Empty(t, findings)
}

func Test_GivenUnknownFlag_WhenChecked_ThenErrorWithSuggestion(t *testing.T) {
	// Given
	doc := `# Run

~~~bash
npx playwright test --headd
~~~
`
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, models.CheckSurface, findings[0].Check)
	assert.Equal(t, models.SeverityError, findings[0].Severity)
	assert.Equal(t, "doc.md", findings[0].Document)
	assert.Equal(t, 4, findings[0].Line)
	assert.Equal(t, "--headd", findings[0].Target)
	assert.Contains(t, findings[0].Message, `did you mean "--headed"?`)
}

func Test_GivenUnknownCommand_WhenChecked_ThenErrorWithSuggestion(t *testing.T) {
	// Given
	doc := `# Run

~~~bash
npx playwright tset
~~~
`
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityError, findings[0].Severity)
	assert.Equal(t, "tset", findings[0].Target)
	assert.Contains(t, findings[0].Message, `unknown Playwright command "tset"`)
	assert.Contains(t, findings[0].Message, `did you mean "test"?`)
}

func Test_GivenInvalidEnumFlagValue_WhenChecked_ThenError(t *testing.T) {
	// Given
	doc := `# Run

~~~bash
npx playwright test --trace=everything
~~~
`
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, `invalid value "everything"`)
	assert.Contains(t, findings[0].Message, "allowed: on, off, retain-on-failure")
}

func Test_GivenWrappedInvocation_WhenChecked_ThenContinuationLinesJoined(t *testing.T) {
	// Given
	doc := `# Run

~~~bash
npx playwright test \
  --project=chromium \
  --reporterr=html
~~~
`
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, 4, findings[0].Line)
	assert.Equal(t, "--reporterr", findings[0].Target)
	assert.Contains(t, findings[0].Message, `did you mean "--reporter"?`)
}

func Test_GivenDeprecatedFlag_WhenChecked_ThenWarningNamesReplacement(t *testing.T) {
	// Given
	definition := `
framework: {name: Playwright, invocation: npx playwright}
commands:
- name: test
  flags:
  - {name: --browser, kind: string, deprecated: true, replaced_by: --project}
`
	registry, err := Load([]byte(definition))
	require.NoError(t, err)

	doc := `# Run

~~~bash
npx playwright test --browser=webkit
~~~
`
	checker := NewChecker(registry, log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, models.SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, `use "--project" instead`)
}

func Test_GivenConfigBlock_WhenChecked_ThenKeysValidated(t *testing.T) {
	// Given
	doc := `# Configuration

~~~ts
import { defineConfig } from '@playwright/test';

export default defineConfig({
  testDir: './e2e',
  retrys: 2,
  use: {
    trace: 'always',
    videoSize: { width: 800, height: 600 },
    viewport: { width: 1280, height: 720 },
  },
  projects: [{ name: 'chromium' }],
});
~~~
`
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 3)

	assert.Equal(t, models.SeverityError, findings[0].Severity)
	assert.Equal(t, "retrys", findings[0].Target)
	assert.Equal(t, 8, findings[0].Line)
	assert.Contains(t, findings[0].Message, `did you mean "retries"?`)

	assert.Equal(t, models.SeverityError, findings[1].Severity)
	assert.Equal(t, "use.trace", findings[1].Target)
	assert.Equal(t, 10, findings[1].Line)
	assert.Contains(t, findings[1].Message, `invalid value "always"`)

	assert.Equal(t, models.SeverityWarning, findings[2].Severity)
	assert.Equal(t, "use.videoSize", findings[2].Target)
	assert.Equal(t, 11, findings[2].Line)
	assert.Contains(t, findings[2].Message, `use "use.video" instead`)
}

func Test_GivenInlineCodeSpan_WhenChecked_ThenFlagsValidated(t *testing.T) {
	// Given
	doc := "# Debug\n\nStart UI mode with `npx playwright test --ui`, or attach the inspector with `npx playwright test --inspect`.\n"
	checker := NewChecker(embeddedRegistry(t), log.NewLogger())

	// When
	findings := checker.Check(loadGuide(t, doc))

	// Then
	require.Len(t, findings, 1)
	assert.Equal(t, "--inspect", findings[0].Target)
	assert.Equal(t, 3, findings[0].Line)
	assert.Contains(t, findings[0].Message, `unknown flag "--inspect"`)
}

// Helpers

func embeddedRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := LoadEmbedded()
	require.NoError(t, err)
	return registry
}

func loadGuide(t *testing.T, markdown string) *guide.Guide {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.md"), []byte(markdown), 0600))
	g, err := guide.NewLoader(log.NewLogger()).Load(dir)
	require.NoError(t, err)
	return g
}
