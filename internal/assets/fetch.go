package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotFound means a candidate path has no usable content: an HTTP failure,
// a missing archive entry, or an HTML page served in place of the file.
var ErrNotFound = errors.New("asset not found")

// Asset is fetched file content.
type Asset struct {
	Path        string
	ContentType string
	Body        []byte
}

// Fetcher loads an asset by its relative path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (*Asset, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) (*Asset, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, path string) (*Asset, error) {
	return f(ctx, path)
}

const defaultMaxAssetBytes = 64 << 20

// HTTPFetcher reads assets from a static file server.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client

	// TokenSecret, when set, signs a short-lived HS256 bearer token for
	// each request.
	TokenSecret []byte
	MaxBytes    int64
}

// NewHTTPFetcher returns a fetcher rooted at baseURL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  http.DefaultClient,
	}
}

// Fetch issues a GET for the asset. Non-2xx answers and HTML bodies are
// reported as ErrNotFound.
func (f *HTTPFetcher) Fetch(ctx context.Context, p string) (*Asset, error) {
	u, err := url.JoinPath(f.BaseURL, p)
	if err != nil {
		return nil, fmt.Errorf("build url for %s: %w", p, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", p, err)
	}
	if len(f.TokenSecret) > 0 {
		token, err := f.signToken(time.Now())
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrNotFound, p, resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxAssetBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("read %s: larger than %d bytes", p, limit)
	}

	contentType := resp.Header.Get("Content-Type")
	if IsHTMLErrorPage(contentType, body) {
		return nil, fmt.Errorf("%w: %s: html error page", ErrNotFound, p)
	}
	return &Asset{Path: p, ContentType: contentType, Body: body}, nil
}

func (f *HTTPFetcher) signToken(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    "skin-inspect",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.TokenSecret)
	if err != nil {
		return "", fmt.Errorf("sign asset token: %w", err)
	}
	return token, nil
}

// Prober tries candidate paths one at a time.
type Prober struct {
	Fetcher Fetcher
	// Timeout bounds each candidate; a slow candidate fails on its own
	// without holding up the rest of the list.
	Timeout time.Duration
	Verbose bool
}

// FirstAvailable fetches candidates in order and returns the first one that
// fetches and passes accept, along with its path. Candidates after the winner
// are never requested. When every candidate fails the error wraps
// ErrNotFound; cancellation of ctx is returned as ctx.Err().
func FirstAvailable[T any](ctx context.Context, p *Prober, candidates []string, accept func(*Asset) (T, error)) (T, string, error) {
	var zero T
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}

		v, err := tryCandidate(ctx, p, candidate, accept)
		if err == nil {
			return v, candidate, nil
		}
		if ctx.Err() != nil {
			return zero, "", ctx.Err()
		}
		if p.Verbose {
			log.Printf("  miss %s: %v", candidate, err)
		}
	}
	return zero, "", fmt.Errorf("%w: %d candidates exhausted", ErrNotFound, len(candidates))
}

func tryCandidate[T any](ctx context.Context, p *Prober, candidate string, accept func(*Asset) (T, error)) (T, error) {
	var zero T
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	a, err := p.Fetcher.Fetch(ctx, candidate)
	if err != nil {
		return zero, err
	}
	if IsHTMLErrorPage(a.ContentType, a.Body) {
		return zero, fmt.Errorf("%w: %s: html error page", ErrNotFound, candidate)
	}
	return accept(a)
}
