package guide

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
)

// Heading is a markdown heading together with its GitHub-style anchor.
type Heading struct {
	Level  int
	Text   string
	Anchor string
	Line   int
}

// Link is a markdown link or image reference.
type Link struct {
	Destination string
	Title       string
	IsImage     bool
	Line        int
}

// CodeBlock is a fenced code block. Language is the lowercased first word of
// the fence info string, Line points at the opening fence.
type CodeBlock struct {
	Language string
	Info     string
	Content  string
	Fenced   bool
	Line     int
}

// CodeSpan is an inline code fragment (`like this`).
type CodeSpan struct {
	Text string
	Line int
}

// FrontMatter is the YAML metadata block a guide document starts with.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Weight      int    `yaml:"weight"`
}

// Document is one parsed markdown file of the guide.
type Document struct {
	// Path is relative to the guide root, slash separated.
	Path        string
	FrontMatter *FrontMatter
	Headings    []Heading
	Links       []Link
	CodeBlocks  []CodeBlock
	CodeSpans   []CodeSpan

	anchors map[string]struct{}
}

// HasAnchor reports whether the document defines the given heading anchor.
func (d *Document) HasAnchor(anchor string) bool {
	_, ok := d.anchors[anchor]
	return ok
}

// LoadError is a document that could not be read or parsed. The rest of the
// guide still loads.
type LoadError struct {
	Path    string
	Message string
}

// Guide is the parsed documentation tree.
type Guide struct {
	// Root is the absolute path of the guide directory.
	Root       string
	Documents  []*Document
	LoadErrors []LoadError

	byPath map[string]*Document
}

// Document returns the parsed document for a root-relative path.
func (g *Guide) Document(relPath string) (*Document, bool) {
	doc, ok := g.byPath[filepath.ToSlash(relPath)]
	return doc, ok
}

// Loader reads a guide directory into its document model.
type Loader interface {
	Load(dir string) (*Guide, error)
}

type loader struct {
	logger log.Logger
}

// NewLoader ...
func NewLoader(logger log.Logger) Loader {
	return &loader{logger: logger}
}

func (l *loader) Load(dir string) (*Guide, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guide directory (%s): %w", dir, err)
	}

	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open guide directory (%s): %w", absDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("guide path is not a directory: %s", absDir)
	}

	var paths []string
	err = filepath.Walk(absDir, func(pth string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(pth), ".md") {
			paths = append(paths, pth)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list guide documents: %w", err)
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no markdown documents found in %s", absDir)
	}

	g := &Guide{
		Root:   absDir,
		byPath: map[string]*Document{},
	}

	for _, pth := range paths {
		relPath, err := filepath.Rel(absDir, pth)
		if err != nil {
			return nil, err
		}
		relPath = filepath.ToSlash(relPath)

		content, err := os.ReadFile(pth)
		if err != nil {
			l.logger.Warnf("Failed to read %s: %s", relPath, err)
			g.LoadErrors = append(g.LoadErrors, LoadError{Path: relPath, Message: fmt.Sprintf("failed to read the document: %s", err)})
			continue
		}

		doc, err := parseDocument(relPath, content)
		if err != nil {
			l.logger.Warnf("Failed to parse %s: %s", relPath, err)
			g.LoadErrors = append(g.LoadErrors, LoadError{Path: relPath, Message: err.Error()})
			continue
		}

		l.logger.Debugf("parsed %s: %d headings, %d links, %d code blocks", relPath, len(doc.Headings), len(doc.Links), len(doc.CodeBlocks))

		g.Documents = append(g.Documents, doc)
		g.byPath[relPath] = doc
	}

	return g, nil
}
