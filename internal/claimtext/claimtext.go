// Package claimtext fetches claim language for a patent from its public
// Google Patents page. The fetch is best-effort: one attempt with a fixed
// timeout, no retries, and an empty result on any failure, because a report
// without claim text is still composable and the analyst fills it in.
package claimtext

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultTimeout = 15 * time.Second

const defaultBaseURL = "https://patents.google.com"

// Client fetches claim fragments keyed by claim number.
type Client struct {
	http    *http.Client
	baseURL string
	log     func(string)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the patents endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLog(log func(string)) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) logf(format string, args ...any) {
	if c.log != nil {
		c.log(fmt.Sprintf(format, args...))
	}
}

var (
	claimAnchorRe = regexp.MustCompile(`id="CLM-0*(\d+)"`)
	claimTextRe   = regexp.MustCompile(`(?s)<div[^>]*class="claim-text"[^>]*>(.*?)</div>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// Fetch downloads the patent page and returns claim fragments keyed by claim
// number. Any failure returns an empty map and the error; callers log and
// proceed with what they have.
func (c *Client) Fetch(ctx context.Context, patentNumber string) (map[int][]string, error) {
	id := normalizeID(patentNumber)
	url := c.baseURL + "/patent/" + id + "/en"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return map[int][]string{}, err
	}
	req.Header.Set("User-Agent", "report-composer/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logf("claimtext: fetch %s: %v", id, err)
		return map[int][]string{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logf("claimtext: fetch %s: status %d", id, resp.StatusCode)
		return map[int][]string{}, fmt.Errorf("fetch %s: status %d", id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return map[int][]string{}, err
	}

	fragments := ParseClaims(string(body))
	c.logf("claimtext: fetched %d claims for %s", len(fragments), id)
	return fragments, nil
}

// Result carries an async fetch outcome.
type Result struct {
	Fragments map[int][]string
	Err       error
}

// FetchAsync starts the fetch off the caller's goroutine and delivers the
// single result on the returned channel. The channel is buffered, so an
// abandoned fetch never leaks its goroutine.
func (c *Client) FetchAsync(ctx context.Context, patentNumber string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		frags, err := c.Fetch(ctx, patentNumber)
		ch <- Result{Fragments: frags, Err: err}
	}()
	return ch
}

// ParseClaims extracts claim fragments from a Google Patents claims page.
// The page lays each claim out as an anchored block of nested claim-text
// divs; fragments keep their order within the claim.
func ParseClaims(page string) map[int][]string {
	out := map[int][]string{}
	anchors := claimAnchorRe.FindAllStringSubmatchIndex(page, -1)
	for i, m := range anchors {
		num, err := strconv.Atoi(page[m[2]:m[3]])
		if err != nil {
			continue
		}
		segEnd := len(page)
		if i+1 < len(anchors) {
			segEnd = anchors[i+1][0]
		}
		segment := page[m[1]:segEnd]
		for _, tm := range claimTextRe.FindAllStringSubmatch(segment, -1) {
			text := cleanFragment(tm[1])
			if text != "" {
				out[num] = append(out[num], text)
			}
		}
	}
	return out
}

func cleanFragment(raw string) string {
	text := tagRe.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

func normalizeID(patentNumber string) string {
	return strings.NewReplacer(",", "", " ", "", "/", "").Replace(strings.TrimSpace(patentNumber))
}
