package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/simp-lee/ruelucas/internal/domain"
)

// maxErrorBody bounds how much of a non-2xx response body is kept.
const maxErrorBody = 4 << 10

// Options configures a Client. Zero values disable the corresponding guard.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Breaker    *gobreaker.CircuitBreaker
}

// Client is a JSON client for the Rue Lucas API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a Client. A nil HTTPClient falls back to http.DefaultClient.
func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		limiter: opts.Limiter,
		breaker: opts.Breaker,
	}
}

// NewLimiter returns a token bucket allowing perSecond requests with the given burst.
// A non-positive rate disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// NewBreaker returns a circuit breaker that opens after maxFailures
// consecutive network failures or 5xx responses and lets a trial request through after
// openTimeout. Client errors (4xx), decode failures and cancellations do not
// count as failures.
func NewBreaker(name string, maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker {
	if maxFailures == 0 {
		return nil
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return !domain.IsNetwork(err) && domain.RemoteStatus(err) < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("remote api breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// Ping checks that the remote API answers at all. Any HTTP response counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "build request", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewAppError(domain.CodeNetwork, "remote api unreachable", err)
	}
	_ = resp.Body.Close()
	return nil
}

// call describes one request to the remote API.
type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	out      any
	mutation bool
}

// do runs c through the limiter and the breaker and maps every failure to an
// AppError:
//   - transport failure: CodeNetwork
//   - 404 on a mutation: CodeUnsupported
//   - other non-2xx: CodeUpstream (CodeNotFound for 404 on reads)
//   - undecodable body: CodeShape
func (c *Client) do(ctx context.Context, cl call) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return domain.NewAppError(domain.CodeNetwork, "request aborted", err)
		}
	}

	if c.breaker == nil {
		return c.send(ctx, cl)
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.send(ctx, cl)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewAppError(domain.CodeNetwork, "remote api temporarily unavailable", err)
	}
	return err
}

func (c *Client) send(ctx context.Context, cl call) error {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, "encode request", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "remote api request failed",
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Any("error", err),
		)
		return domain.NewAppError(domain.CodeNetwork, "remote api unreachable", err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "remote api call",
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(ctx, cl, resp)
	}

	if cl.out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil {
		return domain.NewAppError(domain.CodeShape, "unexpected response from remote api", err)
	}
	return nil
}

// statusError reads the body as plain text; error bodies are not assumed to be JSON.
func statusError(ctx context.Context, cl call, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &domain.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}

	slog.WarnContext(ctx, "remote api error response",
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.Int("status", resp.StatusCode),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound && cl.mutation:
		return domain.NewAppError(domain.CodeUnsupported, domain.ErrUnsupported.Message, se)
	case resp.StatusCode == http.StatusNotFound:
		return domain.NewAppError(domain.CodeNotFound, "not found", se)
	default:
		return domain.NewAppError(domain.CodeUpstream, fmt.Sprintf("remote api error (%d)", resp.StatusCode), se)
	}
}
