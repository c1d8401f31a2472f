// Package httputil fetches remote datasets over HTTP.
//
// # Overview
//
// Datasets may be given as http:// or https:// URLs anywhere a file path is
// accepted. [Fetcher] downloads them with:
//
//   - [Retry]: retries with exponential backoff on transient failures
//   - [Cache]: file-based response caching with a TTL
//
// # Caching
//
// [Cache] stores response bodies under the user cache directory
// (~/.cache/contribnet/http on Linux). Expired entries are still returned
// alongside [ErrExpired], so a fetch that fails after retrying can fall back
// to the last good copy:
//
//	c, _ := httputil.NewCache("", time.Hour)
//	f := httputil.NewFetcher(c)
//	data, err := f.Fetch(ctx, "https://example.org/contributions.json")
//
// # Retries
//
// Network errors, 429 and 5xx responses are wrapped in [RetryableError];
// everything else fails immediately. [RetryWithBackoff] uses three attempts
// starting at one second.
package httputil
