// Package fetch executes HTTP requests against remote servers.
//
// It wraps the std-lib *http.Client with the cross-cutting concerns every
// outbound call here needs: optional token-bucket throttling, a persistent
// User-Agent header, bounded error-body capture, and structured logging.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// Client wraps the std-lib *http.Client.
// It sets a default *http.Client and *http.Transport, which
// can be customized via optional funcs.
type Client struct {
	c      *http.Client
	logger *slog.Logger
}

func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:      &http.Client{},
		logger: slog.Default(),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := newThrottle(opts.throttle.rps, opts.throttle.burst, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// Get issues a GET for u and hands back the raw response with the body
// still open. The caller owns the body and must close it. No status check
// is applied here; callers that treat whole status ranges as success decide
// for themselves.
func (c *Client) Get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	resp, err := c.c.Do(req)
	if err != nil {
		// Already a *url.Error naming the method and URL.
		return nil, err
	}

	return resp, nil
}

// Do will fire the request, and write the response to the given dest object if any.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return err
		}
	}

	doFunc := func(resp *http.Response) error {
		if settings.responseHeaders != nil {
			*settings.responseHeaders = resp.Header.Clone()
		}

		if settings.responseBody != nil {
			if err := json.NewDecoder(resp.Body).Decode(settings.responseBody); err != nil {
				return fmt.Errorf("decoding body: %w", err)
			}
		}

		return nil
	}

	return c.exec(req, expCode, doFunc)
}

// exec runs the request and the injected function on success after validating
// the expected status code.
func (c *Client) exec(req *http.Request, expCode int, fn execFn) error {
	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("exec http do: %w", err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err = io.Copy(io.Discard, resp.Body); err != nil {
				c.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err = resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != expCode {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        ErrUnexpectedStatusCode,
		}
	}

	if err := fn(resp); err != nil {
		discardBody = false
		return fmt.Errorf("exec fn: %w", err)
	}

	return nil
}

// Request instantiates an *http.Request with the provided information.
// Content-Type defaults to `application/json` if unspecified via WithContentType.
func Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	var payload bytes.Buffer
	if settings.body != nil {
		if err := json.NewEncoder(&payload).Encode(settings.body); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), &payload)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	var contentType string
	if settings.contentType == nil {
		contentType = "application/json"
	} else {
		contentType = *settings.contentType
	}

	req.Header.Set("Content-Type", contentType)
	for k, v := range settings.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return req, nil
}
