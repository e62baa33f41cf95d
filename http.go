package dbots

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultRequestTimeout = 15 * time.Second

// HTTPResponse is a normalized response from an HTTPClient. Body holds the
// JSON-decoded payload when the service answered with a JSON content type;
// Text always holds the raw body.
type HTTPResponse struct {
	Status int
	Method string
	URL    string
	Header http.Header
	Text   string
	Body   any
}

// RequestOptions describes one outbound request.
type RequestOptions struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   url.Values
	// JSON, when non-nil, is marshaled as the request body with a JSON
	// content type.
	JSON any
}

// HTTPClient issues requests and normalizes responses and errors. Any
// non-2xx status is returned as an error from the HTTPError family; the
// wrapped response stays attached for inspection.
type HTTPClient struct {
	hc        *http.Client
	baseURL   string
	proxyAuth string
	log       zerolog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient) error

// WithBaseURL prefixes every request path with base.
func WithBaseURL(base string) HTTPOption {
	return func(c *HTTPClient) error {
		c.baseURL = strings.TrimRight(base, "/")
		return nil
	}
}

// WithHTTPLogger sets the client's logger.
func WithHTTPLogger(log zerolog.Logger) HTTPOption {
	return func(c *HTTPClient) error {
		c.log = log
		return nil
	}
}

// WithTransportProxy routes requests through proxyURL. Username/password,
// when non-empty, are sent as proxy basic authorization.
func WithTransportProxy(proxyURL, username, password string) HTTPOption {
	return func(c *HTTPClient) error {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return fmt.Errorf("dbots: invalid proxy url: %w", err)
		}
		tr := &http.Transport{Proxy: http.ProxyURL(u)}
		if username != "" {
			cred := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
			c.proxyAuth = "Basic " + cred
			tr.ProxyConnectHeader = http.Header{"Proxy-Authorization": {c.proxyAuth}}
		}
		c.hc.Transport = tr
		return nil
	}
}

// WithHTTPDoer swaps the underlying *http.Client, e.g. to change timeouts.
func WithHTTPDoer(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) error {
		c.hc = hc
		return nil
	}
}

// newDefaultHTTPClient is the no-option constructor, which cannot fail.
func newDefaultHTTPClient() *HTTPClient {
	c, _ := NewHTTPClient()
	return c
}

// NewHTTPClient builds a transport with a bounded request timeout.
func NewHTTPClient(opts ...HTTPOption) (*HTTPClient, error) {
	c := &HTTPClient{
		hc:  &http.Client{Timeout: defaultRequestTimeout},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Request performs one HTTP call. Paths starting with a scheme are used
// as-is, anything else is appended to the configured base URL.
func (c *HTTPClient) Request(ctx context.Context, opts RequestOptions) (*HTTPResponse, error) {
	target := opts.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}
	if len(opts.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + opts.Query.Encode()
	}

	var body io.Reader
	if opts.JSON != nil {
		buf, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("dbots: encoding request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.JSON != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	resp := &HTTPResponse{
		Status: res.StatusCode,
		Method: opts.Method,
		URL:    target,
		Header: res.Header,
		Text:   string(raw),
	}
	if isJSON(res.Header.Get("Content-Type")) && len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			resp.Body = parsed
		}
	}

	c.log.Debug().
		Str("method", opts.Method).
		Str("url", target).
		Int("status", resp.Status).
		Msg("request completed")

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, newHTTPError(resp)
	}
	return resp, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json"
}
