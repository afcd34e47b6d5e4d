package guide

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `---
title: Test
description: For tests
---

# Intro

Some [link](https://example.com) here.

## Getting started

See [config](configuration.md#options) and ` + "`npx playwright test --headed`" + `.

` + "```bash" + `
npx playwright install
` + "```" + `

## Getting started

![logo](img/logo.png)
`

func Test_GivenDocumentWithFrontMatter_WhenParsed_ThenExtractsEverything(t *testing.T) {
	// When
	doc, err := parseDocument("index.md", []byte(sampleDocument))

	// Then
	require.NoError(t, err)

	require.NotNil(t, doc.FrontMatter)
	assert.Equal(t, "Test", doc.FrontMatter.Title)
	assert.Equal(t, "For tests", doc.FrontMatter.Description)

	require.Len(t, doc.Headings, 3)
	assert.Equal(t, Heading{Level: 1, Text: "Intro", Anchor: "intro", Line: 6}, doc.Headings[0])
	assert.Equal(t, Heading{Level: 2, Text: "Getting started", Anchor: "getting-started", Line: 10}, doc.Headings[1])
	assert.Equal(t, Heading{Level: 2, Text: "Getting started", Anchor: "getting-started-1", Line: 18}, doc.Headings[2])

	require.Len(t, doc.Links, 3)
	assert.Equal(t, Link{Destination: "https://example.com", Line: 8}, doc.Links[0])
	assert.Equal(t, Link{Destination: "configuration.md#options", Line: 12}, doc.Links[1])
	assert.Equal(t, Link{Destination: "img/logo.png", IsImage: true, Line: 20}, doc.Links[2])

	require.Len(t, doc.CodeBlocks, 1)
	assert.Equal(t, "bash", doc.CodeBlocks[0].Language)
	assert.Equal(t, "npx playwright install\n", doc.CodeBlocks[0].Content)
	assert.True(t, doc.CodeBlocks[0].Fenced)
	assert.Equal(t, 14, doc.CodeBlocks[0].Line)

	require.Len(t, doc.CodeSpans, 1)
	assert.Equal(t, "npx playwright test --headed", doc.CodeSpans[0].Text)
	assert.Equal(t, 12, doc.CodeSpans[0].Line)

	assert.True(t, doc.HasAnchor("getting-started"))
	assert.True(t, doc.HasAnchor("getting-started-1"))
	assert.False(t, doc.HasAnchor("missing"))
}

func Test_GivenCRLFDocument_WhenParsed_ThenLinesMatchLFVersion(t *testing.T) {
	// Given
	crlf := strings.ReplaceAll(sampleDocument, "\n", "\r\n")

	// When
	doc, err := parseDocument("index.md", []byte(crlf))

	// Then
	require.NoError(t, err)
	require.Len(t, doc.Headings, 3)
	assert.Equal(t, 6, doc.Headings[0].Line)
	require.Len(t, doc.CodeBlocks, 1)
	assert.Equal(t, 14, doc.CodeBlocks[0].Line)
}

func Test_GivenReferenceStyleLink_WhenParsed_ThenDestinationResolved(t *testing.T) {
	// Given
	content := "See [the docs][ref].\n\n[ref]: https://example.com/docs\n"

	// When
	doc, err := parseDocument("a.md", []byte(content))

	// Then
	require.NoError(t, err)
	require.Len(t, doc.Links, 1)
	assert.Equal(t, "https://example.com/docs", doc.Links[0].Destination)
}

func Test_GivenNoFrontMatter_WhenParsed_ThenFrontMatterIsNil(t *testing.T) {
	// When
	doc, err := parseDocument("a.md", []byte("# Title\n\nBody.\n"))

	// Then
	require.NoError(t, err)
	assert.Nil(t, doc.FrontMatter)
	require.Len(t, doc.Headings, 1)
	assert.Equal(t, 1, doc.Headings[0].Line)
}

func Test_GivenUnclosedFrontMatter_WhenParsed_ThenFails(t *testing.T) {
	_, err := parseDocument("a.md", []byte("---\ntitle: x\n# Heading\n"))
	require.Error(t, err)
}

func Test_GivenInvalidFrontMatterYAML_WhenParsed_ThenFails(t *testing.T) {
	_, err := parseDocument("a.md", []byte("---\ntitle: [\n---\n# H\n"))
	require.Error(t, err)
}

func Test_GivenHeadingWithPunctuation_WhenSlugged_ThenMatchesGitHub(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"What's new?", "whats-new"},
		{"CI/CD templates", "cicd-templates"},
		{"use.trace & friends", "usetrace--friends"},
		{"snake_case_stays", "snake_case_stays"},
		{"  padded  ", "padded"},
		{"Running tests", "running-tests"},
	}

	for _, test := range tests {
		t.Run(test.heading, func(t *testing.T) {
			assert.Equal(t, test.want, newSlugger().slug(test.heading))
		})
	}
}

func Test_GivenRepeatedHeadings_WhenSlugged_ThenSuffixedLikeGitHub(t *testing.T) {
	slugs := newSlugger()

	assert.Equal(t, "symptom", slugs.slug("Symptom"))
	assert.Equal(t, "symptom-1", slugs.slug("Symptom"))
	assert.Equal(t, "symptom-2", slugs.slug("Symptom"))
}

func Test_GivenFenceInsideFence_WhenScanned_ThenOnlyOuterOpenerCounts(t *testing.T) {
	// Given
	body := []byte("~~~md\n```go\ncode\n```\n~~~\n\n```yaml\na: b\n```\n")

	// When
	lines := scanFenceLines(body, 0)

	// Then
	assert.Equal(t, []int{1, 7}, lines)
}

func Test_GivenGuideDirectory_WhenLoaded_ThenDocumentsSortedAndIndexed(t *testing.T) {
	// Given
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# B\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A\n"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.md"), []byte("# C\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not markdown"), 0600))

	// When
	g, err := NewLoader(log.NewLogger()).Load(dir)

	// Then
	require.NoError(t, err)
	require.Len(t, g.Documents, 3)
	assert.Equal(t, "a.md", g.Documents[0].Path)
	assert.Equal(t, "b.md", g.Documents[1].Path)
	assert.Equal(t, "nested/c.md", g.Documents[2].Path)

	doc, ok := g.Document("nested/c.md")
	require.True(t, ok)
	assert.Equal(t, "C", doc.Headings[0].Text)
}

func Test_GivenUnparsableDocument_WhenLoaded_ThenRestOfGuideStillLoads(t *testing.T) {
	// Given
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.md"), []byte("# Good\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.md"), []byte("---\ntitle: [\n---\n# Broken\n"), 0600))

	// When
	g, err := NewLoader(log.NewLogger()).Load(dir)

	// Then
	require.NoError(t, err)
	require.Len(t, g.Documents, 1)
	assert.Equal(t, "good.md", g.Documents[0].Path)
	require.Len(t, g.LoadErrors, 1)
	assert.Equal(t, "broken.md", g.LoadErrors[0].Path)
	assert.Contains(t, g.LoadErrors[0].Message, "front matter")
}

func Test_GivenEmptyDirectory_WhenLoaded_ThenFails(t *testing.T) {
	_, err := NewLoader(log.NewLogger()).Load(t.TempDir())
	require.Error(t, err)
}

func Test_GivenFilePath_WhenLoaded_ThenFails(t *testing.T) {
	// Given
	pth := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(pth, []byte("# A\n"), 0600))

	// When
	_, err := NewLoader(log.NewLogger()).Load(pth)

	// Then
	require.Error(t, err)
}
