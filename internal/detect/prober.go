package detect

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Many small-business sites reject unidentified clients, so the prober
// presents itself as a desktop browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxBodyBytes caps how much markup a single probe will read.
const maxBodyBytes = 512 * 1024

// ProbeResult is the outcome of fetching a URL. When Reachable is false,
// FinalURL and Body are empty; the prober does not distinguish failure
// causes for its caller.
type ProbeResult struct {
	Reachable bool
	FinalURL  string
	Body      string
}

// Prober fetches URLs with redirect-following and a bounded timeout.
// Success is strictly HTTP 200; a single failed attempt is final for that
// URL within a run.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewProber creates a Prober. A non-positive timeout falls back to 10s,
// a non-positive ratePerSec disables throttling.
func NewProber(timeout time.Duration, ratePerSec float64) *Prober {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}

	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// NormalizeURL prefixes http:// when the URL carries no scheme.
func NormalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "http://" + rawURL
	}
	return rawURL
}

// Probe issues a single GET for the URL and reports reachability. Any
// non-200 status, timeout, DNS failure, or transport error yields
// Reachable=false with no body.
func (p *Prober) Probe(ctx context.Context, rawURL string) ProbeResult {
	if rawURL == "" {
		return ProbeResult{}
	}
	target := NormalizeURL(rawURL)

	if err := p.limiter.Wait(ctx); err != nil {
		return ProbeResult{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		zap.L().Debug("probe: bad url", zap.String("url", target), zap.Error(eris.Wrap(err, "detect: create request")))
		return ProbeResult{}
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Debug("probe: fetch failed", zap.String("url", target), zap.Error(err))
		return ProbeResult{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("probe: non-200 status", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return ProbeResult{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		zap.L().Debug("probe: read body failed", zap.String("url", target), zap.Error(err))
		return ProbeResult{}
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return ProbeResult{
		Reachable: true,
		FinalURL:  finalURL,
		Body:      string(body),
	}
}
