package guide

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontMatterFence = []byte("---")

// splitFrontMatter separates an optional leading YAML front matter block from
// the markdown body. It returns the parsed metadata (nil when absent), the
// body and the number of source lines the front matter occupies, fences
// included, so body positions can be mapped back to file lines.
func splitFrontMatter(source []byte) (*FrontMatter, []byte, int, error) {
	normalized := bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	lines := bytes.Split(normalized, []byte("\n"))
	if len(lines) < 3 || !bytes.Equal(bytes.TrimRight(lines[0], " "), frontMatterFence) {
		return nil, normalized, 0, nil
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimRight(lines[i], " "), frontMatterFence) {
			closing = i
			break
		}
	}
	if closing == -1 {
		return nil, normalized, 0, fmt.Errorf("front matter opened on line 1 is never closed")
	}

	raw := bytes.Join(lines[1:closing], []byte("\n"))
	var fm FrontMatter
	if err := yaml.Unmarshal(raw, &fm); err != nil {
		return nil, normalized, 0, fmt.Errorf("invalid front matter: %w", err)
	}

	body := bytes.Join(lines[closing+1:], []byte("\n"))
	return &fm, body, closing + 1, nil
}
