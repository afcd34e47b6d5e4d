package linkcheck

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// checkInternal resolves an anchor or relative file target. A nil return
// means the link is fine.
func (c Checker) checkInternal(g *guide.Guide, doc *guide.Document, link guide.Link, u *url.URL) *models.Finding {
	if u.Path == "" {
		return c.checkAnchor(doc, doc, link, u.Fragment, true)
	}

	resolved, ok := resolveRelative(doc.Path, u.Path)
	if !ok {
		return &models.Finding{
			Check:    models.CheckLinks,
			Severity: models.SeverityError,
			Document: doc.Path,
			Line:     link.Line,
			Target:   link.Destination,
			Message:  "link escapes the guide directory",
		}
	}

	if strings.EqualFold(path.Ext(resolved), ".md") {
		linked, found := g.Document(resolved)
		if !found {
			return &models.Finding{
				Check:    models.CheckLinks,
				Severity: models.SeverityError,
				Document: doc.Path,
				Line:     link.Line,
				Target:   link.Destination,
				Message:  fmt.Sprintf("linked document %s not found", resolved),
			}
		}
		if u.Fragment != "" {
			return c.checkAnchor(doc, linked, link, u.Fragment, false)
		}
		return nil
	}

	// Non markdown targets (images, config samples) only need to exist.
	if _, err := os.Stat(filepath.Join(g.Root, filepath.FromSlash(resolved))); err != nil {
		noun := "file"
		if link.IsImage {
			noun = "image"
		}
		return &models.Finding{
			Check:    models.CheckLinks,
			Severity: models.SeverityError,
			Document: doc.Path,
			Line:     link.Line,
			Target:   link.Destination,
			Message:  fmt.Sprintf("linked %s %s not found", noun, resolved),
		}
	}
	return nil
}

func (c Checker) checkAnchor(doc, target *guide.Document, link guide.Link, anchor string, sameDoc bool) *models.Finding {
	if target.HasAnchor(anchor) {
		return nil
	}
	message := fmt.Sprintf("anchor #%s not found in %s", anchor, target.Path)
	if sameDoc {
		message = fmt.Sprintf("anchor #%s not found in this document", anchor)
	}
	if lowered := strings.ToLower(anchor); lowered != anchor && target.HasAnchor(lowered) {
		message += fmt.Sprintf(", anchors are lowercase: #%s", lowered)
	}
	return &models.Finding{
		Check:    models.CheckLinks,
		Severity: models.SeverityError,
		Document: doc.Path,
		Line:     link.Line,
		Target:   link.Destination,
		Message:  message,
	}
}

// resolveRelative resolves dest against the directory of from. Both are
// slash separated, relative to the guide root. A leading slash addresses the
// guide root itself. ok is false when the target climbs out of the guide
// directory.
func resolveRelative(from, dest string) (string, bool) {
	var joined string
	if strings.HasPrefix(dest, "/") {
		joined = path.Clean(strings.TrimPrefix(dest, "/"))
	} else {
		joined = path.Join(path.Dir(from), dest)
	}
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	return joined, true
}
