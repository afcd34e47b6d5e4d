package linkcheck

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/models"
)

// Status classifies the outcome of probing an external link.
type Status string

const (
	StatusOK       Status = "ok"
	StatusRedirect Status = "redirect"
	StatusBroken   Status = "broken"
	// StatusUnreachable covers transport failures (DNS, refused connection, timeout).
	StatusUnreachable Status = "unreachable"
	// StatusFlaky marks a link that failed the first sweep and recovered on retry.
	StatusFlaky Status = "flaky"
)

// Result is the outcome of probing a single external URL.
type Result struct {
	Target     string
	Status     Status
	StatusCode int
	// Detail is a human readable failure description, empty on success.
	Detail string
	// Cached marks results served from a previous run.
	Cached bool
}

// retryable reports whether the failure might be transient. Transport errors
// and server side (5xx) failures qualify, client errors do not.
func (r Result) retryable() bool {
	return r.Status == StatusUnreachable || (r.Status == StatusBroken && r.StatusCode >= 500)
}

// Prober probes one external URL.
type Prober interface {
	Probe(target string) Result
}

// ResultCache remembers successful probe results between runs. Lookup only
// returns entries that are still fresh.
type ResultCache interface {
	Lookup(target string) (statusCode int, fresh bool)
	Store(target string, statusCode int)
}

// Opts control a link sweep.
type Opts struct {
	// CheckExternal enables probing of http(s) URLs.
	CheckExternal bool
	// Workers caps concurrent probes, 0 means serial.
	Workers int
}

// Checker validates every link of a guide: internal targets against the
// parsed document tree, external URLs over HTTP.
type Checker struct {
	prober Prober
	cache  ResultCache
	hosts  *hostLocks
	logger log.Logger
}

// NewChecker creates a link checker. cache may be nil when probe results
// should not be reused between runs.
func NewChecker(prober Prober, cache ResultCache, logger log.Logger) Checker {
	return Checker{
		prober: prober,
		cache:  cache,
		hosts:  newHostLocks(),
		logger: logger,
	}
}

// occurrence is one place in the guide that references an external target.
type occurrence struct {
	document string
	line     int
	dest     string
}

// Check validates the guide's links and returns the findings sorted by
// document, line and target. External URLs are deduplicated before probing,
// the shared result is attached to every occurrence.
func (c Checker) Check(g *guide.Guide, opts Opts) []models.Finding {
	var findings []models.Finding
	external := map[string][]occurrence{}
	occurrenceCount := 0

	for _, doc := range g.Documents {
		for _, link := range doc.Links {
			dest := strings.TrimSpace(link.Destination)
			kind, u := classify(dest)
			switch kind {
			case kindEmpty:
				findings = append(findings, models.Finding{
					Check:    models.CheckLinks,
					Severity: models.SeverityWarning,
					Document: doc.Path,
					Line:     link.Line,
					Target:   dest,
					Message:  "empty link destination",
				})
			case kindInvalid:
				findings = append(findings, models.Finding{
					Check:    models.CheckLinks,
					Severity: models.SeverityError,
					Document: doc.Path,
					Line:     link.Line,
					Target:   dest,
					Message:  fmt.Sprintf("invalid link destination: %s", dest),
				})
			case kindInternal:
				if finding := c.checkInternal(g, doc, link, u); finding != nil {
					findings = append(findings, *finding)
				}
			case kindExternal:
				target := probeTarget(u)
				external[target] = append(external[target], occurrence{document: doc.Path, line: link.Line, dest: dest})
				occurrenceCount++
			case kindOtherScheme:
				c.logger.Debugf("%s:%d: skipping %s link", doc.Path, link.Line, u.Scheme)
			}
		}
	}

	if len(external) == 0 || !opts.CheckExternal {
		if len(external) > 0 {
			c.logger.Debugf("External link checking is disabled, skipping %d unique link(s)", len(external))
		}
		sortFindings(findings)
		return findings
	}

	targets := make([]string, 0, len(external))
	for target := range external {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	c.logger.Infof("Checking %d unique external link(s) (%d occurrence(s))", len(targets), occurrenceCount)
	results := c.sweepExternal(targets, opts.Workers)

	for target, occurrences := range external {
		result := results[target]
		for _, occ := range occurrences {
			if finding := findingForResult(occ, result); finding != nil {
				findings = append(findings, *finding)
			}
		}
	}

	sortFindings(findings)
	return findings
}

type linkKind int

const (
	kindInternal linkKind = iota
	kindExternal
	kindOtherScheme
	kindEmpty
	kindInvalid
)

func classify(dest string) (linkKind, *url.URL) {
	if dest == "" {
		return kindEmpty, nil
	}
	u, err := url.Parse(dest)
	if err != nil {
		return kindInvalid, nil
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		return kindExternal, u
	case u.Scheme != "":
		return kindOtherScheme, u
	case u.Host != "":
		// protocol relative (//host/path), probed over https
		return kindExternal, u
	default:
		return kindInternal, u
	}
}

// probeTarget strips the fragment so URL variants that differ only in their
// anchor are probed once.
func probeTarget(u *url.URL) string {
	stripped := *u
	stripped.Fragment = ""
	if stripped.Scheme == "" {
		stripped.Scheme = "https"
	}
	return stripped.String()
}

func findingForResult(occ occurrence, result Result) *models.Finding {
	finding := models.Finding{
		Check:    models.CheckLinks,
		Document: occ.document,
		Line:     occ.line,
		Target:   occ.dest,
	}
	switch result.Status {
	case StatusOK:
		return nil
	case StatusFlaky:
		finding.Severity = models.SeverityFlaky
		finding.Message = fmt.Sprintf("flaky link, recovered on retry (first failure: %s)", result.Detail)
	case StatusRedirect:
		finding.Severity = models.SeverityWarning
		finding.Message = fmt.Sprintf("HTTP %d redirect without a Location header", result.StatusCode)
	case StatusUnreachable:
		finding.Severity = models.SeverityError
		finding.Message = fmt.Sprintf("unreachable link: %s", result.Detail)
	default:
		finding.Severity = models.SeverityError
		finding.Message = fmt.Sprintf("broken link, HTTP %d", result.StatusCode)
	}
	return &finding
}

func sortFindings(findings []models.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Document != findings[j].Document {
			return findings[i].Document < findings[j].Document
		}
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Target < findings[j].Target
	})
}
