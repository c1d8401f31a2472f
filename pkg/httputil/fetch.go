package httputil

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// Fetch defaults.
const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 64 << 20
	DefaultTTL      = time.Hour
	// DefaultRate bounds requests per second, retries included.
	DefaultRate = 4

	maxRetryDelay = 5 * time.Second
)

// IsURL reports whether s names a remote http(s) dataset.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Ext returns the lowercase file extension of a URL path, ignoring the query.
func Ext(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}

// Base returns the last element of a URL path.
func Base(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}
	return path.Base(u.Path)
}

// cachedBody is the cached form of a response.
type cachedBody struct {
	URL  string `json:"url"`
	Body []byte `json:"body"`
}

// Fetcher downloads dataset bodies with retries and optional caching.
type Fetcher struct {
	Client   *http.Client
	Cache    *Cache // nil disables caching
	Attempts int
	Delay    time.Duration
	MaxBytes int64
	Limiter  *rate.Limiter // nil means unlimited
	Logger   *log.Logger
}

// NewFetcher returns a Fetcher with default limits. c may be nil.
func NewFetcher(c *Cache) *Fetcher {
	if c != nil {
		c = c.Namespace("dataset:")
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Cache:    c,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		MaxBytes: DefaultMaxBytes,
		Limiter:  rate.NewLimiter(rate.Limit(DefaultRate), 1),
	}
}

// Fetch returns the body at rawURL. A fresh cache entry is returned without
// a request. When the request fails, a stale entry is used if one exists.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !IsURL(rawURL) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "not an http(s) URL: %s", rawURL)
	}

	var stale *cachedBody
	if f.Cache != nil {
		var entry cachedBody
		ok, err := f.Cache.Get(rawURL, &entry)
		switch {
		case ok && err == nil:
			f.logger().Debug("dataset cache hit", "url", rawURL)
			return entry.Body, nil
		case ok && stderrors.Is(err, ErrExpired):
			stale = &entry
		case err != nil:
			f.logger().Warn("discarding unreadable cache entry", "url", rawURL, "err", err)
		}
	}

	var body []byte
	err := Backoff{Attempts: f.Attempts, Delay: f.Delay, MaxDelay: maxRetryDelay}.Do(ctx, func() error {
		var err error
		body, err = f.get(ctx, rawURL)
		if err != nil && isRetryable(err) {
			f.logger().Debug("retrying dataset fetch", "url", rawURL, "err", err)
		}
		return err
	})
	if err != nil {
		if stale != nil && ctx.Err() == nil {
			f.logger().Warn("using stale dataset copy", "url", rawURL, "err", err)
			return stale.Body, nil
		}
		if ctx.Err() != nil || errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "fetch %s", rawURL)
	}

	if f.Cache != nil {
		if err := f.Cache.Set(rawURL, cachedBody{URL: rawURL, Body: body}); err != nil {
			f.logger().Warn("failed to cache dataset", "url", rawURL, "err", err)
		}
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "request %s", rawURL)
	}
	req.Header.Set("Accept", "application/json, application/yaml, text/csv, */*")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.New(errors.ErrCodeFileNotFound, "%s: %s", rawURL, resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &RetryableError{Err: fmt.Errorf("%s: %s", rawURL, resp.Status)}
	case resp.StatusCode >= 300:
		return nil, errors.New(errors.ErrCodeInvalidDataset, "%s: %s", rawURL, resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	if int64(len(body)) > limit {
		return nil, errors.New(errors.ErrCodeInvalidDataset, "%s: body exceeds %d bytes", rawURL, limit)
	}
	return body, nil
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.Default()
}
