// Package hubclient talks to the Black Duck Hub REST API.
package hubclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	ContentTypeHeader = "Content-Type"
	MIMETypeJSON      = "application/json"
	MIMETypeForm      = "application/x-www-form-urlencoded"

	defaultTimeout = 120 * time.Second
)

// HubClient is a session with one Hub server. Create one per run: it keeps
// the session cookie from Login.
type HubClient struct {
	client  *http.Client
	baseURL *url.URL
	logger  *zerolog.Logger
}

type Options struct {
	Proxy   ProxyConfig
	Timeout time.Duration

	// TLS and Decorate stand in for the base transport on proxied
	// connections when that transport is not an *http.Transport and so
	// cannot be cloned. Decorate adds the headers the base would have added.
	TLS      *tls.Config
	Decorate func(*http.Request) error
}

// NewHubClient creates a client for serverURL on top of base, which supplies
// the transport.
func NewHubClient(base *http.Client, serverURL string, opts Options, logger *zerolog.Logger) (*HubClient, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid Hub URL %q: %w", serverURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid Hub URL %q", serverURL)
	}

	transport, err := configureTransport(base, u.Hostname(), opts, logger)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HubClient{
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		baseURL: u,
		logger:  logger,
	}, nil
}

func configureTransport(base *http.Client, host string, opts Options, logger *zerolog.Logger) (http.RoundTripper, error) {
	var rt http.RoundTripper
	if base != nil {
		rt = base.Transport
	}
	proxy := opts.Proxy
	if !proxy.Enabled() {
		return rt, nil
	}

	bypass, err := proxy.Bypass(host)
	if err != nil {
		return nil, err
	}
	if bypass {
		logger.Debug().Str("host", host).Msg("host matches a no-proxy pattern")
		return rt, nil
	}

	logger.Debug().Str("proxy", proxy.URL().String()).Msg("using proxy")
	if t, ok := rt.(*http.Transport); ok {
		t = t.Clone()
		t.Proxy = http.ProxyURL(proxy.URL())
		return t, nil
	}

	//nolint:forcetypeassert // the default transport is always an *http.Transport
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = http.ProxyURL(proxy.URL())
	if opts.TLS != nil {
		t.TLSClientConfig = opts.TLS.Clone()
	}
	if opts.Decorate == nil {
		return t, nil
	}
	return &decoratingTransport{decorate: opts.Decorate, next: t}, nil
}

type decoratingTransport struct {
	decorate func(*http.Request) error
	next     http.RoundTripper
}

func (d *decoratingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if err := d.decorate(req); err != nil {
		return nil, fmt.Errorf("failed to prepare request: %w", err)
	}
	return d.next.RoundTrip(req)
}

func (c *HubClient) endpoint(query url.Values, elem ...string) *url.URL {
	u := c.baseURL.JoinPath(elem...)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u
}

func (c *HubClient) do(ctx context.Context, op, method, target string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set(ContentTypeHeader, contentType)
	}
	req.Header.Set("Accept", MIMETypeJSON)

	c.logger.Trace().Str("method", method).Str("url", target).Msg(op)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close() //nolint:errcheck // errors in deferred close are not critical
		return nil, newStatusError(op, resp)
	}
	return resp, nil
}

func (c *HubClient) getJSON(ctx context.Context, op, target string, v any) error {
	resp, err := c.do(ctx, op, http.MethodGet, target, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // errors in deferred close are not critical

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidResponse, err)
	}
	return nil
}

// idFromHref returns the last path segment of a resource href.
func idFromHref(href string) string {
	href = strings.TrimSuffix(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
