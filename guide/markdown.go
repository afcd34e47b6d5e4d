package guide

import (
	"bytes"
	"strings"

	"github.com/russross/blackfriday/v2"
)

func parseDocument(relPath string, source []byte) (*Document, error) {
	fm, body, fmLines, err := splitFrontMatter(source)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Path:        relPath,
		FrontMatter: fm,
		anchors:     map[string]struct{}{},
	}

	resolver := newLineResolver(body, fmLines)
	fenceLines := scanFenceLines(body, fmLines)

	md := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions))
	root := md.Parse(body)

	slugs := newSlugger()
	var headingText *strings.Builder
	var headingLevel int
	fenceIdx := 0

	root.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch node.Type {
		case blackfriday.Heading:
			if entering {
				headingText = &strings.Builder{}
				headingLevel = node.HeadingData.Level
			} else {
				text := headingText.String()
				anchor := slugs.slug(text)
				doc.Headings = append(doc.Headings, Heading{
					Level:  headingLevel,
					Text:   text,
					Anchor: anchor,
					Line:   resolver.locate([]byte(text)),
				})
				doc.anchors[anchor] = struct{}{}
				headingText = nil
			}
		case blackfriday.Text:
			if entering && headingText != nil {
				headingText.Write(node.Literal)
			}
		case blackfriday.Code:
			if entering {
				if headingText != nil {
					headingText.Write(node.Literal)
				}
				doc.CodeSpans = append(doc.CodeSpans, CodeSpan{
					Text: string(node.Literal),
					Line: resolver.locate(node.Literal),
				})
			}
		case blackfriday.Link, blackfriday.Image:
			if entering {
				doc.Links = append(doc.Links, Link{
					Destination: string(node.LinkData.Destination),
					Title:       string(node.LinkData.Title),
					IsImage:     node.Type == blackfriday.Image,
					Line:        resolver.locate(node.LinkData.Destination),
				})
			}
		case blackfriday.CodeBlock:
			if entering {
				block := CodeBlock{
					Info:    string(node.CodeBlockData.Info),
					Content: string(node.Literal),
					Fenced:  node.CodeBlockData.IsFenced,
				}
				block.Language = languageOf(block.Info)
				if block.Fenced && fenceIdx < len(fenceLines) {
					block.Line = fenceLines[fenceIdx]
					fenceIdx++
				}
				doc.CodeBlocks = append(doc.CodeBlocks, block)
			}
		}
		return blackfriday.GoToNext
	})

	return doc, nil
}

// languageOf extracts the language from a fence info string ("ts title=x" -> "ts").
func languageOf(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// lineResolver maps extracted markdown fragments back to source lines.
// blackfriday's AST carries no positions, so fragments are located by a
// forward scan over the body; items arrive in document order, which keeps the
// scan linear. Failed lookups fall back to a full scan, then to line 0.
type lineResolver struct {
	body        []byte
	lineOffsets []int
	lineShift   int
	searchFrom  int
}

func newLineResolver(body []byte, lineShift int) *lineResolver {
	offsets := []int{0}
	for i, b := range body {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &lineResolver{
		body:        body,
		lineOffsets: offsets,
		lineShift:   lineShift,
	}
}

func (r *lineResolver) locate(fragment []byte) int {
	if len(fragment) == 0 {
		return 0
	}

	idx := bytes.Index(r.body[r.searchFrom:], fragment)
	if idx >= 0 {
		idx += r.searchFrom
	} else {
		idx = bytes.Index(r.body, fragment)
	}
	if idx < 0 {
		return 0
	}

	if idx+1 > r.searchFrom {
		r.searchFrom = idx + 1
	}
	return r.lineAt(idx)
}

func (r *lineResolver) lineAt(offset int) int {
	line := 1
	for i := len(r.lineOffsets) - 1; i >= 0; i-- {
		if offset >= r.lineOffsets[i] {
			line = i + 1
			break
		}
	}
	return line + r.lineShift
}

// scanFenceLines returns the file line number of every fence opener, in
// order, so fenced AST blocks can be paired with their positions.
func scanFenceLines(body []byte, lineShift int) []int {
	var openers []int

	inFence := false
	var fenceChar byte
	fenceLen := 0

	for i, line := range bytes.Split(body, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " ")
		if len(line)-len(trimmed) > 3 {
			continue
		}

		char, length := fenceMarker(trimmed)
		if length < 3 {
			continue
		}

		if !inFence {
			openers = append(openers, i+1+lineShift)
			inFence = true
			fenceChar = char
			fenceLen = length
			continue
		}

		rest := bytes.TrimRight(trimmed[length:], " ")
		if char == fenceChar && length >= fenceLen && len(rest) == 0 {
			inFence = false
		}
	}

	return openers
}

func fenceMarker(line []byte) (byte, int) {
	if len(line) == 0 || (line[0] != '`' && line[0] != '~') {
		return 0, 0
	}
	char := line[0]
	length := 0
	for _, b := range line {
		if b != char {
			break
		}
		length++
	}
	return char, length
}
