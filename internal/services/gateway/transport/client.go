// Package transport is the JSON over HTTP client shared by the adapters
// that talk to providers without an official Go SDK.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "payway/internal/errors"

	"github.com/valyala/fasthttp"
)

// Observer receives the outcome of every outbound call. status is 0 when
// the provider could not be reached.
type Observer func(gateway, operation string, status int, elapsed time.Duration)

type Client struct {
	gateway string
	baseURL string
	headers map[string]string
	timeout time.Duration
	http    *fasthttp.Client
	observe Observer
}

type Option func(*Client)

func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

func New(gateway, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		gateway: gateway,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{},
		timeout: timeout,
		http: &fasthttp.Client{
			Name:         "payway",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends body (if not nil) as JSON and decodes a 2xx response into out.
// Any other status becomes a GatewayHTTPError carrying the response body.
func (c *Client) Do(ctx context.Context, method, path, operation string, body, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.gateway, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	start := time.Now()
	err := c.http.DoTimeout(req, resp, timeout)
	status := 0
	if err == nil {
		status = resp.StatusCode()
	}
	if c.observe != nil {
		c.observe(c.gateway, operation, status, time.Since(start))
	}
	if err != nil {
		return &apperrors.GatewayHTTPError{Gateway: c.gateway, Err: err}
	}

	if status < 200 || status >= 300 {
		return &apperrors.GatewayHTTPError{
			Gateway:    c.gateway,
			StatusCode: status,
			Body:       string(resp.Body()),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.gateway, err)
	}
	return nil
}
