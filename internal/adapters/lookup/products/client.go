// Package products is a resilient HTTP client for the product lookup service
package products

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "shelfscan/internal/platform/errors"
	"shelfscan/internal/platform/logger"
	"shelfscan/internal/services/scan/domain"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultUA        = "shelfscan"
	defaultMaxRetry  = 2
	defaultRetryBase = 250 * time.Millisecond
	maxBackoff       = 10 * time.Second
	maxBody          = 1 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transport failures, 429 and 5xx
	MaxRetries int
	RetryBase  time.Duration
}

// Client calls GET {BaseURL}/products/{code}
type Client struct {
	http  *http.Client
	opts  Options
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// wire is the lookup response body
type wire struct {
	Found   bool         `json:"found"`
	Results []wireResult `json:"results"`
}

type wireResult struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Brand string          `json:"brand"`
	Code  string          `json:"code"`
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// LookupByCode implements domain.ProductLookup
//
//	200 + body        -> result as reported
//	404               -> ErrorCodeNotFound
//	400, 422          -> ErrorCodeValidation
//	429               -> retried, then ErrorCodeTooManyRequests
//	5xx, network      -> retried, then ErrorCodeUnavailable
//	undecodable body  -> ErrorCodeJSON
func (c *Client) LookupByCode(ctx context.Context, code string) (domain.LookupResult, error) {
	if c.opts.BaseURL == "" {
		return domain.LookupResult{}, perr.Unavailablef("product lookup not configured")
	}
	path := "/products/" + url.PathEscape(code)

	resp, err := c.do(ctx, path)
	if err != nil {
		return domain.LookupResult{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logFor(ctx).Error().Err(cerr).Str("path", path).Msg("lookup close body failed")
		}
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return domain.LookupResult{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "lookup read body")
	}
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return domain.LookupResult{}, perr.Wrapf(err, perr.ErrorCodeJSON, "lookup decode body")
	}

	out := domain.LookupResult{Found: w.Found, Results: make([]domain.ProductRef, 0, len(w.Results))}
	for _, r := range w.Results {
		out.Results = append(out.Results, domain.ProductRef{
			ID:    rawID(r.ID),
			Name:  r.Name,
			Brand: r.Brand,
			Code:  r.Code,
		})
	}
	return out, nil
}

// do issues a GET with retries and maps terminal statuses to project errors
func (c *Client) do(ctx context.Context, path string) (*http.Response, error) {
	target := c.opts.BaseURL + path
	log := c.logFor(ctx)
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "lookup new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !c.shouldRetry(attempts) {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "lookup transport failed")
			}
			back := c.backoff(attempts)
			log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempts).Msg("lookup transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, err
			}
			attempts++
			continue
		}

		log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", lat).
			Msg("lookup http response")

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil

		case resp.StatusCode == http.StatusNotFound:
			_ = drainAndClose(resp.Body)
			return nil, perr.NotFoundf("product not found")

		case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
			_ = drainAndClose(resp.Body)
			return nil, perr.Newf(perr.ErrorCodeValidation, "lookup rejected code (status %d)", resp.StatusCode)

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode >= 500:
			wait := retryAfter(resp.Header)
			_ = drainAndClose(resp.Body)
			if !c.shouldRetry(attempts) {
				if resp.StatusCode == http.StatusTooManyRequests {
					return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "lookup rate limited")
				}
				return nil, perr.Unavailablef("lookup unavailable (status %d)", resp.StatusCode)
			}
			if wait <= 0 || wait > maxBackoff {
				wait = c.backoff(attempts)
			}
			log.Warn().Dur("retry_in", wait).Int("status", resp.StatusCode).Int("attempt", attempts).Msg("lookup transient status retrying")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			attempts++
			continue

		case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
			_ = drainAndClose(resp.Body)
			log.Error().Int("status", resp.StatusCode).Msg("lookup credentials rejected, check LOOKUP_TOKEN")
			return nil, perr.Unavailablef("lookup credentials rejected (status %d)", resp.StatusCode)

		default:
			// says nothing about the code itself, so it must not blacklist it
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_ = resp.Body.Close()
			return nil, perr.Unavailablef("lookup unexpected status %d body %s", resp.StatusCode, string(body))
		}
	}
}

// logFor carries request and session ids from ctx onto the client logger
func (c *Client) logFor(ctx context.Context) *logger.Logger {
	ll := logger.C(ctx).With().Str("component", "lookup").Logger()
	return &ll
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func (c *Client) shouldRetry(attempt int) bool {
	return attempt < c.opts.MaxRetries
}

func retryAfter(h http.Header) time.Duration {
	s := strings.TrimSpace(h.Get("Retry-After"))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// rawID accepts string or numeric ids
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// String is used in logs
func (c *Client) String() string { return fmt.Sprintf("products(%s)", c.opts.BaseURL) }
