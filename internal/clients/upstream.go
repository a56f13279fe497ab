package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"mtga-analyzer/backend/internal/catalog"
	"mtga-analyzer/backend/internal/health"
)

// errServerStatus marks a 5xx answer so the breaker counts it as a failure.
var errServerStatus = errors.New("upstream server error")

// UpstreamRecorder is satisfied by *telemetry.Metrics.
type UpstreamRecorder interface {
	UpstreamRequest(upstream string, status int)
}

// upstreamOptions configures an upstream. Zero MaxAttempts means one attempt;
// a nil Limiter means no pacing. A 429 asking to wait longer than a positive
// MaxRetryAfter is returned without retrying.
type upstreamOptions struct {
	Name              string
	BaseURL           string
	UserAgent         string
	MaxAttempts       int
	DefaultRetryAfter time.Duration
	MaxRetryAfter     time.Duration
	MaxBodyBytes      int64
	Limiter           *rate.Limiter
	Breaker           *gobreaker.CircuitBreaker
	HTTPClient        *http.Client
	Metrics           UpstreamRecorder
}

// upstreamResponse is a fully read upstream answer.
type upstreamResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// upstream performs paced, retried, breaker-guarded GETs against one base URL.
type upstream struct {
	name              string
	baseURL           string
	userAgent         string
	maxAttempts       int
	defaultRetryAfter time.Duration
	maxRetryAfter     time.Duration
	maxBodyBytes      int64
	limiter           *rate.Limiter
	cb                *gobreaker.CircuitBreaker
	httpDo            func(req *http.Request) (*http.Response, error)
	metrics           UpstreamRecorder
	sleep             func(ctx context.Context, d time.Duration) error
}

func newUpstream(opts upstreamOptions) *upstream {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	cb := opts.Breaker
	if cb == nil {
		cb = NewCircuitBreaker(opts.Name)
	}
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &upstream{
		name:              opts.Name,
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		userAgent:         opts.UserAgent,
		maxAttempts:       attempts,
		defaultRetryAfter: opts.DefaultRetryAfter,
		maxRetryAfter:     opts.MaxRetryAfter,
		maxBodyBytes:      opts.MaxBodyBytes,
		limiter:           opts.Limiter,
		cb:                cb,
		httpDo:            client.Do,
		metrics:           opts.Metrics,
		sleep:             sleepContext,
	}
}

// get fetches path?query. While the upstream answers 429 it retries up to
// maxAttempts, sleeping for Retry-After between attempts. A final non-2xx
// answer is returned as *catalog.UpstreamStatusError.
func (u *upstream) get(ctx context.Context, path string, query url.Values, accept string) (*upstreamResponse, error) {
	target := u.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var resp *upstreamResponse
	for attempt := 1; ; attempt++ {
		if u.limiter != nil {
			if err := u.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%s rate limit wait: %w", u.name, err)
			}
		}

		var err error
		resp, err = u.attempt(ctx, target, accept)
		if err != nil {
			return nil, err
		}
		if resp.Status != http.StatusTooManyRequests || attempt >= u.maxAttempts {
			break
		}

		wait := retryAfter(resp.Header, u.defaultRetryAfter)
		if u.maxRetryAfter > 0 && wait > u.maxRetryAfter {
			slog.WarnContext(ctx, "upstream retry-after exceeds limit, giving up",
				"upstream", u.name,
				"retry_after_ms", wait.Milliseconds(),
				"limit_ms", u.maxRetryAfter.Milliseconds(),
			)
			break
		}
		slog.WarnContext(ctx, "upstream rate limited, retrying",
			"upstream", u.name,
			"attempt", attempt,
			"retry_after_ms", wait.Milliseconds(),
		)
		if err := u.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%s retry wait: %w", u.name, err)
		}
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, &catalog.UpstreamStatusError{Upstream: u.name, Status: resp.Status}
	}
	return resp, nil
}

// attempt sends one request through the circuit breaker. Transport errors
// and 5xx answers count against the breaker; 4xx answers and errors caused
// by ctx ending do not.
func (u *upstream) attempt(ctx context.Context, target, accept string) (*upstreamResponse, error) {
	var resp *upstreamResponse

	_, err := u.cb.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		if u.userAgent != "" {
			req.Header.Set("User-Agent", u.userAgent)
		}

		httpResp, err := u.httpDo(req)
		if err != nil {
			u.record(0)
			return nil, callerGone(ctx, err)
		}
		defer httpResp.Body.Close() //nolint:errcheck
		u.record(httpResp.StatusCode)

		body, err := readLimited(httpResp.Body, u.maxBodyBytes)
		if err != nil {
			return nil, callerGone(ctx, err)
		}

		resp = &upstreamResponse{
			Status: httpResp.StatusCode,
			Header: httpResp.Header,
			Body:   body,
		}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return nil, errServerStatus
		}
		return nil, nil
	})

	switch {
	case err == nil:
		return resp, nil
	case isBreakerRejection(err):
		return nil, fmt.Errorf("%w: %s", catalog.ErrUpstreamUnavailable, u.name)
	case errors.Is(err, errServerStatus):
		return resp, nil
	default:
		return nil, fmt.Errorf("%s request: %w", u.name, err)
	}
}

// Probe reports the breaker state without calling the upstream.
func (u *upstream) Probe(_ context.Context) health.ProbeResult {
	if u.cb.State() == gobreaker.StateOpen {
		return health.ProbeResult{Name: u.name, OK: false, Error: "circuit open"}
	}
	return health.ProbeResult{Name: u.name, OK: true}
}

// retryAfter parses a Retry-After header given in whole seconds. Missing or
// malformed values yield def.
func retryAfter(h http.Header, def time.Duration) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return def
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (u *upstream) record(status int) {
	if u.metrics != nil {
		u.metrics.UpstreamRequest(u.name, status)
	}
}
