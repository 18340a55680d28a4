package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"sjsage522/pricescout/pkg/errors"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	}

	// Flipkart answers desktop signatures with 500s
	mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	mobileHosts = []string{"flipkart.com"}

	transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
)

// UserAgents returns a copy of the desktop user agent pool
func UserAgents() []string {
	return slices.Clone(userAgents)
}

// MaxBodySize caps how much of a response body is read; the rest is dropped
const MaxBodySize = 10 << 20

// Page is a fetched document after redirects
type Page struct {
	Body       []byte
	URL        string
	FinalURL   string
	StatusCode int
}

// Fetcher issues one disguised GET per call
type Fetcher struct {
	timeout time.Duration
	pacer   *hostPacer
}

// hostPacer hands out one rate limiter per host
type hostPacer struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewFetcher creates a fetcher with the given per-request timeout.
// interval paces requests to the same host; zero disables pacing.
func NewFetcher(timeout, interval time.Duration) *Fetcher {
	return &Fetcher{
		timeout: timeout,
		pacer: &hostPacer{
			interval: interval,
			limiters: make(map[string]*rate.Limiter),
		},
	}
}

// WithTimeout returns a fetcher sharing this one's host pacing but using
// a different request timeout
func (f *Fetcher) WithTimeout(timeout time.Duration) *Fetcher {
	return &Fetcher{timeout: timeout, pacer: f.pacer}
}

// BuildHeaders returns browser-like request headers for rawURL
func BuildHeaders(rawURL string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", "https://www.google.com/")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Connection", "keep-alive")

	for _, host := range mobileHosts {
		if strings.Contains(rawURL, host) {
			h.Set("User-Agent", mobileUserAgent)
			break
		}
	}
	return h
}

// Fetch sends a GET request with randomized headers, follows redirects with
// a fresh cookie jar, and returns the body converted to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewValidation("", fmt.Sprintf("invalid URL %q", rawURL))
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if limiter := f.pacer.limiter(u.Host); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, errors.NewNetwork(u.Host, "pacing wait aborted", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewNetwork(u.Host, "failed to create request", err)
	}
	req.Header = BuildHeaders(rawURL)

	// cookies set during the redirect chain must reach the final request
	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Transport: transport,
		Timeout:   f.timeout,
		Jar:       jar,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(u.Host, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		retryAfter := resp.Header.Get("Retry-After")
		return nil, errors.New(errors.ErrorTypeRateLimit, u.Host, "rate limited; retry after "+retryAfter, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewNetwork(u.Host, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, errors.NewNetwork(u.Host, "failed to read response body", err)
	}

	body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, errors.NewParsing(u.Host, "failed to convert body to UTF-8", err)
	}

	return &Page{
		Body:       body,
		URL:        rawURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

func (p *hostPacer) limiter(host string) *rate.Limiter {
	if p.interval <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.interval), 2)
		p.limiters[host] = l
	}
	return l
}

// toUTF8 determines the encoding from the Content-Type header and body
// content and converts the body if needed
func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if strings.EqualFold(name, "utf-8") {
		return body, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
