// Package quotes fetches quotes from the Fisenko quotes API and turns them into
// per-author counts.
package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrConfig is returned for an unusable base URL or adapter configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrNetwork is returned for transport failures, non-2xx responses and empty bodies.
	ErrNetwork = errors.New("network error")
	// ErrDecode is returned when the body is not a JSON array of quotes.
	ErrDecode = errors.New("decode error")
)

const (
	apiVersion     = "v1/"
	requestTimeout = 10 * time.Second

	// PathEnglish is the resource listing english quotes.
	PathEnglish = "quotes/en"
)

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Quote struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author Author `json:"author"`
}

// AuthorName returns the name the quote is grouped and filtered by.
func (q Quote) AuthorName() string {
	return q.Author.Name
}

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its timeout is reset to the fixed request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		clone.Timeout = requestTimeout
		c.http = &clone
	}
}

// NewClient returns a client for the API rooted at baseURL.
// baseURL has to be an absolute http or https URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: empty url", ErrConfig)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", ErrConfig, baseURL)
	}

	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/" + apiVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the versioned root all requests are resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Quotes fetches english quotes. A limit of 0 fetches everything the API returns.
func (c *Client) Quotes(ctx context.Context, limit int) ([]Quote, error) {
	return c.Fetch(ctx, PathEnglish, limit)
}

// Fetch issues a single GET for path and decodes the quote array.
func (c *Client) Fetch(ctx context.Context, path string, limit int) ([]Quote, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid path %q: %v", ErrConfig, path, err)
	}
	u := c.base.ResolveReference(ref)
	if limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(limit))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, zstd")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned %s", ErrNetwork, u.Redacted(), resp.Status)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	return decode(body)
}

func readBody(resp *http.Response) ([]byte, error) {
	var bodyReader io.Reader = resp.Body

	if ce := resp.Header.Get("Content-Encoding"); ce != "" {
		switch strings.ToLower(ce) {
		case "gzip":
			gz, err := gzip.NewReader(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: gzip: %v", ErrDecode, err)
			}
			defer gz.Close()
			bodyReader = gz
		case "deflate":
			zr, err := zlib.NewReader(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: deflate: %v", ErrDecode, err)
			}
			defer zr.Close()
			bodyReader = zr
		case "zstd":
			zr, err := zstd.NewReader(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: zstd: %v", ErrDecode, err)
			}
			defer zr.Close()
			bodyReader = zr
		case "identity":
		default:
			return nil, fmt.Errorf("%w: unsupported Content-Encoding %q", ErrDecode, ce)
		}
	}

	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrNetwork)
	}
	return body, nil
}

func decode(body []byte) ([]Quote, error) {
	var quotes []Quote
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	// "null" decodes without error
	if quotes == nil {
		return nil, fmt.Errorf("%w: body is not an array", ErrDecode)
	}
	return quotes, nil
}
