package linkcheck

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/progress"
	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

const probeUserAgent = "guidecheck (+https://github.com/guidewright/e2e-testing-guide)"

// maxProbeBody caps how much of a GET response is read before closing.
const maxProbeBody = 64 * 1024

// flakyProbeWait paces the end of run re-check of failed links.
var flakyProbeWait = 5 * time.Second

type httpProber struct {
	client *retryablehttp.Client
	logger log.Logger
}

// NewHTTPProber returns a Prober that issues real HTTP requests. A HEAD
// request is tried first and a GET follows when HEAD is rejected, since some
// servers refuse HEAD outright.
func NewHTTPProber(timeout time.Duration, logger log.Logger) Prober {
	client := retryhttp.NewClient(logger)
	client.RetryMax = 2
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = timeout
	return &httpProber{client: client, logger: logger}
}

func (p *httpProber) Probe(target string) Result {
	resp, err := p.do(http.MethodHead, target)
	if err == nil && resp.StatusCode >= 400 {
		// some servers reject HEAD but serve GET fine
		resp, err = p.do(http.MethodGet, target)
	}
	if err != nil {
		return Result{Target: target, Status: StatusUnreachable, Detail: err.Error()}
	}

	switch {
	case resp.StatusCode >= 400:
		return Result{Target: target, Status: StatusBroken, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 300:
		// redirects with a Location are followed by the client, whatever is
		// left had nowhere to go
		return Result{Target: target, Status: StatusRedirect, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	default:
		return Result{Target: target, Status: StatusOK, StatusCode: resp.StatusCode}
	}
}

func (p *httpProber) do(method, target string) (*http.Response, error) {
	req, err := retryablehttp.NewRequest(method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", probeUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxProbeBody)); err != nil {
			p.logger.Debugf("Failed to drain response body of %s: %s", target, err)
		}
		if err := resp.Body.Close(); err != nil {
			p.logger.Debugf("Failed to close response body of %s: %s", target, err)
		}
	}
	return resp, nil
}

// sweepExternal probes every target through the worker pool, then gives the
// transient failures one more chance. A link that recovers on the final
// retry is downgraded from broken to flaky.
func (c Checker) sweepExternal(targets []string, workers int) map[string]Result {
	var results map[string]Result
	progress.NewDefaultWrapper("Probing external links").WrapAction(func() {
		results = c.probeAll(targets, workers)
	})

	var candidates []string
	for _, target := range targets {
		if results[target].retryable() {
			candidates = append(candidates, target)
		}
	}
	if len(candidates) == 0 {
		return results
	}

	c.logger.Printf("Re-checking %d failed link(s) before marking them broken", len(candidates))
	for _, target := range candidates {
		firstFailure := results[target]
		result := c.reprobe(target)
		if result.Status == StatusOK {
			result.Status = StatusFlaky
			result.Detail = firstFailure.Detail
		}
		results[target] = result
	}
	return results
}

// probeAll runs the sweep over a bounded worker pool, the main goroutine
// collects the outcomes.
func (c Checker) probeAll(targets []string, workers int) map[string]Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(targets) {
		workers = len(targets)
	}

	jobs := make(chan string)
	outcomes := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range jobs {
				outcomes <- c.probeOne(target)
			}
		}()
	}

	go func() {
		for _, target := range targets {
			jobs <- target
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[string]Result, len(targets))
	for outcome := range outcomes {
		results[outcome.Target] = outcome
	}
	return results
}

// probeOne consults the cache first, then probes while holding the host
// lock. Only one request is in flight per host at a time.
func (c Checker) probeOne(target string) Result {
	if c.cache != nil {
		if statusCode, fresh := c.cache.Lookup(target); fresh {
			c.logger.Debugf("Cache hit: %s (HTTP %d)", target, statusCode)
			return Result{Target: target, Status: StatusOK, StatusCode: statusCode, Cached: true}
		}
	}

	unlock := c.hosts.lock(hostOf(target))
	result := c.prober.Probe(target)
	unlock()

	if c.cache != nil && result.Status == StatusOK {
		c.cache.Store(target, result.StatusCode)
	}
	return result
}

// reprobe retries a failed target at the end of the run, so a transient
// outage does not fail the whole guide.
func (c Checker) reprobe(target string) Result {
	var result Result
	if err := retry.Times(1).Wait(flakyProbeWait).Try(func(attempt uint) error {
		if attempt > 0 {
			c.logger.Debugf("Retrying %s", target)
		}
		result = c.probeOne(target)
		if result.Status == StatusUnreachable {
			return errors.New(result.Detail)
		}
		return nil
	}); err != nil {
		c.logger.Debugf("%s is still unreachable", target)
	}
	return result
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return target
	}
	return u.Host
}

type hostLocks struct {
	mu    sync.Mutex
	hosts map[string]*sync.Mutex
}

func newHostLocks() *hostLocks {
	return &hostLocks{hosts: map[string]*sync.Mutex{}}
}

func (h *hostLocks) lock(host string) func() {
	h.mu.Lock()
	hostMu, ok := h.hosts[host]
	if !ok {
		hostMu = &sync.Mutex{}
		h.hosts[host] = hostMu
	}
	h.mu.Unlock()

	hostMu.Lock()
	return hostMu.Unlock
}
