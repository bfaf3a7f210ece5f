package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// maxBodyBytes bounds every response body read from the video site.
const maxBodyBytes = 8 << 20

// Getter issues GET requests against the video site.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// RetryConfig controls retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig retries twice with a short exponential backoff.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:  2,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     5 * time.Second,
	Multiplier:  2.0,
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Timeout           time.Duration
	UserAgent         string
	AcceptLanguage    string
	Cookie            string
	RequestsPerSecond float64
	Retry             RetryConfig
	Logger            *logrus.Entry
}

// Client is the network collaborator. It carries a cookie jar for ambient
// credentials, rate limits outbound requests and retries transient failures.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	acceptLng string
	cookie    string
	retry     RetryConfig
	log       *logrus.Entry
}

// NewClient creates a Client from opts.
func NewClient(opts ClientOptions) *Client {
	jar, _ := cookiejar.New(nil)

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	log := opts.Logger
	if log == nil {
		log = logrus.WithField("component", "http")
	}

	return &Client{
		http:      &http.Client{Timeout: opts.Timeout, Jar: jar},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: userAgent,
		acceptLng: opts.AcceptLanguage,
		cookie:    opts.Cookie,
		retry:     opts.Retry,
		log:       log,
	}
}

// Get sends a GET request, waiting for the rate limiter and retrying network
// errors and 429/5xx responses. A non-retryable response is returned as is.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return RetryDo(ctx, c.retry, c.log, func() (*http.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		if c.acceptLng != "" {
			req.Header.Set("Accept-Language", c.acceptLng)
		}
		if c.cookie != "" {
			req.Header.Set("Cookie", c.cookie)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if isRetryableStatus(resp.StatusCode) {
			resp.Body.Close()
			return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
		}
		return resp, nil
	})
}

// StatusError reports a response whose status is not OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// RetryDo calls fn until it succeeds, fails with a non-retryable error, or the
// retries in rc are exhausted.
func RetryDo[T any](ctx context.Context, rc RetryConfig, log *logrus.Entry, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= rc.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == rc.MaxRetries {
			break
		}

		wait := time.Duration(float64(rc.InitialWait) * math.Pow(rc.Multiplier, float64(attempt)))
		if rc.MaxWait > 0 && wait > rc.MaxWait {
			wait = rc.MaxWait
		}
		log.WithFields(logrus.Fields{"attempt": attempt + 1, "wait": wait}).WithError(err).Debug("retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.StatusCode)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isOK(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
