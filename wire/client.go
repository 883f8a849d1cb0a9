// Package wire implements the client side of the JSON Wire Protocol: the HTTP
// transport, the response envelope and the classification of failures.
package wire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"github.com/oxtoacart/bpool"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"

	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/metrics"
	"github.com/grafana/xk6-webdriver/trace"
)

// Executor sends a single command to the remote server.
//
// Path is either relative to the server URL or absolute. A non-nil params is
// sent as the JSON body of the request. A response with a non-zero status is
// returned as an *Error, transport failures as a *TransportError.
type Executor interface {
	Execute(ctx context.Context, method, path string, params any) (*Response, error)
}

const (
	defaultHTTPTimeout = 60 * time.Second
	bufferPoolSize     = 16
)

// Client is an Executor over HTTP.
type Client struct {
	serverURL *url.URL

	httpClient *http.Client
	bufpool    *bpool.BufferPool
	logger     *log.Logger
	metrics    *metrics.Metrics
	tracer     *trace.Tracer
}

var _ Executor = &Client{}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client. Redirects are never followed
// regardless of the client's own policy.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		cp := *hc
		c.httpClient = &cp
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the collectors commands are recorded on.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithTracer sets the tracer every command is traced with.
func WithTracer(t *trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

// NewClient returns a client for the server at serverURL, for instance
// "http://localhost:4444/wd/hub".
func NewClient(serverURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(serverURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server URL %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL %q: unsupported scheme %q", serverURL, u.Scheme)
	}

	c := &Client{
		serverURL:  u,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		bufpool:    bpool.NewBufferPool(bufferPoolSize),
		logger:     log.NewNullLogger(),
		metrics:    metrics.NewNop(),
		tracer:     trace.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return c, nil
}

// ServerURL returns the server URL without a trailing slash.
func (c *Client) ServerURL() string {
	return c.serverURL.String()
}

// Execute implements Executor.
func (c *Client) Execute(ctx context.Context, method, path string, params any) (*Response, error) {
	start := time.Now()
	ctx, span := c.tracer.TraceCommand(ctx, method, path)
	defer span.End()

	res, err := c.do(ctx, method, path, params)
	elapsed := time.Since(start)
	c.metrics.ObserveCommand(method, elapsed)

	var werr *Error
	switch {
	case errors.As(err, &werr):
		c.metrics.IncWireError(werr.Code.String())
		c.logger.Debugf("Client:Execute", "%s %s status:%s elapsed:%s", method, path, werr.Code, elapsed)
		span.SetStatus(codes.Error, werr.Code.String())
		span.RecordError(err)
	case err != nil:
		c.logger.Debugf("Client:Execute", "%s %s err:%v", method, path, err)
		span.SetStatus(codes.Error, "transport")
		span.RecordError(err)
	default:
		c.logger.Debugf("Client:Execute", "%s %s http:%d elapsed:%s", method, path, res.HTTPStatus, elapsed)
	}

	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, params any) (*Response, error) {
	target := c.resolve(path)

	var body io.Reader
	if params != nil {
		buf := c.bufpool.Get()
		defer c.bufpool.Put(buf)

		var w jwriter.Writer
		EncodeValue(&w, params)
		if w.Error != nil {
			return nil, fmt.Errorf("encoding params of %s %s: %w", method, path, w.Error)
		}
		if _, err := w.DumpTo(buf); err != nil {
			return nil, fmt.Errorf("buffering params of %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf.Bytes())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	hres, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: pkgerrors.WithStack(err)}
	}
	defer hres.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: pkgerrors.Wrap(err, "reading body")}
	}

	return c.parse(method, target, hres, data)
}

func (c *Client) parse(method, target string, hres *http.Response, data []byte) (*Response, error) {
	res := &Response{HTTPStatus: hres.StatusCode}

	switch code := hres.StatusCode; {
	case code >= 300 && code < 400:
		res.Location = c.relative(hres.Header.Get("Location"))
		return res, nil
	case code >= 400 && code < 500:
		return nil, &TransportError{
			Method: method,
			URL:    target,
			Err:    fmt.Errorf("HTTP %d: %s", code, strings.TrimSpace(string(data))),
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if hres.StatusCode >= http.StatusInternalServerError {
			return nil, &TransportError{
				Method: method,
				URL:    target,
				Err:    fmt.Errorf("HTTP %d: %s", hres.StatusCode, string(trimmed)),
			}
		}
		return res, nil
	}

	if err := easyjson.Unmarshal(trimmed, res); err != nil {
		return nil, &TransportError{Method: method, URL: target, Err: pkgerrors.Wrap(err, "decoding response")}
	}
	if res.Status != StatusSuccess {
		return res, NewError(res.Status, res.ErrorMessage())
	}

	return res, nil
}

// resolve returns the absolute URL of path.
func (c *Client) resolve(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return c.serverURL.String() + "/" + strings.TrimLeft(path, "/")
}

// relative strips the server URL, or only its path for a host relative
// location, from location.
func (c *Client) relative(location string) string {
	base := c.serverURL.String()
	if strings.HasPrefix(location, base+"/") {
		return strings.TrimPrefix(location, base)
	}
	if p := c.serverURL.Path; p != "" && strings.HasPrefix(location, p+"/") {
		return strings.TrimPrefix(location, p)
	}
	return location
}
