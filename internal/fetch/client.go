package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrNetwork = errors.New("network error")

// NetworkError is returned once every attempt for a URL has failed.
type NetworkError struct {
	URL        string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

type Options struct {
	MaxRetries        int
	Backoff           time.Duration
	RetryableStatuses []int
	Timeout           time.Duration
	UserAgent         string
	// Timer drives the wait between attempts. Nil uses a real timer.
	Timer backoff.Timer
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:        3,
		Backoff:           500 * time.Millisecond,
		RetryableStatuses: []int{500, 502, 503, 504},
		Timeout:           30 * time.Second,
		UserAgent:         "regcorpus/1.0",
	}
}

type Client struct {
	http      *http.Client
	opts      Options
	retryable map[int]bool
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryableStatuses == nil {
		opts.RetryableStatuses = DefaultOptions().RetryableStatuses
	}
	retryable := make(map[int]bool, len(opts.RetryableStatuses))
	for _, code := range opts.RetryableStatuses {
		retryable[code] = true
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		opts:      opts,
		retryable: retryable,
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

// Get downloads url, retrying retryable statuses and transient transport errors
// with delays of Backoff, 2*Backoff, 4*Backoff and so on.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	attempts := 0
	var lastStatus int

	op := func() ([]byte, error) {
		attempts++
		body, status, err := c.do(ctx, url)
		lastStatus = status
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		var se *statusError
		if errors.As(err, &se) {
			if c.retryable[se.code] {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		if isTransient(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := backoff.RetryNotifyWithTimerAndData(op, c.policy(ctx), nil, c.opts.Timer)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &NetworkError{URL: url, Attempts: attempts, StatusCode: lastStatus, Err: err}
	}
	return body, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	retries := uint64(max(c.opts.MaxRetries, 0))
	if c.opts.Backoff <= 0 {
		return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries), ctx)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.Backoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Duration(1<<62 - 1)
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, retries), ctx)
}

func (c *Client) do(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
