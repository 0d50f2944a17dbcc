package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsAgentName is matched against User-agent groups in robots.txt.
const robotsAgentName = "doccrawl"

// RobotsAgent evaluates robots.txt rules, fetching each host's file once.
type RobotsAgent struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	cache map[string]*robotsEntry
}

// robotsEntry holds the outcome of one host's robots.txt fetch. mu
// serializes the fetch so concurrent callers wait for a single request.
type robotsEntry struct {
	mu    sync.Mutex
	done  bool
	rules *robotstxt.RobotsData
	err   error
}

// NewRobotsAgent creates an agent that fetches robots.txt with client.
func NewRobotsAgent(client *http.Client, userAgent string) *RobotsAgent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsAgent{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotsEntry),
	}
}

// Allowed reports whether target may be fetched. Errors fetching or
// parsing robots.txt allow the request.
func (a *RobotsAgent) Allowed(ctx context.Context, target *url.URL) bool {
	if a == nil || target == nil || !target.IsAbs() {
		return true
	}

	rules, err := a.rules(ctx, target)
	if err != nil || rules == nil {
		return true
	}

	group := rules.FindGroup(robotsAgentName)
	if group == nil {
		return true
	}
	p := target.EscapedPath()
	if p == "" {
		p = "/"
	}
	if target.RawQuery != "" {
		p += "?" + target.RawQuery
	}
	return group.Test(p)
}

// CrawlDelay returns the Crawl-delay requested for the target's host, or 0.
func (a *RobotsAgent) CrawlDelay(ctx context.Context, target *url.URL) time.Duration {
	if a == nil || target == nil {
		return 0
	}
	rules, err := a.rules(ctx, target)
	if err != nil || rules == nil {
		return 0
	}
	if group := rules.FindGroup(robotsAgentName); group != nil {
		return group.CrawlDelay
	}
	return 0
}

func (a *RobotsAgent) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	key := strings.ToLower(target.Scheme + "://" + target.Host)

	a.mu.Lock()
	entry, ok := a.cache[key]
	if !ok {
		entry = &robotsEntry{}
		a.cache[key] = entry
	}
	a.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.done {
		return entry.rules, entry.err
	}

	rules, err := a.fetch(ctx, key+"/robots.txt")
	if err != nil && ctx.Err() != nil {
		// Context errors are not cached.
		return nil, err
	}
	entry.rules, entry.err, entry.done = rules, err, true
	return rules, err
}

func (a *RobotsAgent) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	// FromResponse treats 4xx as allow-all and 5xx as disallow-all.
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}
