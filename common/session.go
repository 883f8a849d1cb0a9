/*
 *
 * xk6-webdriver - a JSON Wire Protocol client for k6
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package common

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/grafana/xk6-webdriver/api"
	"github.com/grafana/xk6-webdriver/env"
	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/storage"
	"github.com/grafana/xk6-webdriver/trace"
	"github.com/grafana/xk6-webdriver/wire"
)

// Session is a remote browser session and the root search scope.
//
// A session is not safe for concurrent use: commands must be issued one at a
// time. Separate sessions are independent.
type Session struct {
	*Locator

	// exec is nil once the session is closed.
	exec    wire.Executor
	path    string
	caps    *wire.Object
	baseURL string

	logger    *log.Logger
	poller    *Poller
	persister storage.FilePersister

	// shutdownTracing is set when the session owns its trace provider.
	shutdownTracing func(context.Context) error
}

var _ api.Session = &Session{}

// NewSession opens a session on the server exec talks to. A nil opts means
// NewSessionOptions().
//
// The session path is taken from the redirect answering the request, or
// from the session id of the response for servers that do not redirect.
func NewSession(ctx context.Context, exec wire.Executor, opts *SessionOptions) (*Session, error) {
	if opts == nil {
		opts = NewSessionOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating session options: %w", err)
	}

	caps := opts.desiredCapabilities()
	res, err := exec.Execute(ctx, http.MethodPost, "/session", wire.NewObject().Set("desiredCapabilities", caps))
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	path := strings.TrimRight(res.Location, "/")
	if path == "" && res.SessionID != "" {
		path = "/session/" + res.SessionID
	}
	if path == "" {
		return nil, fmt.Errorf("opening session: %w", ErrNoSessionPath)
	}
	if got, ok := res.Value.(*wire.Object); ok && got.Len() > 0 {
		caps = got
	}

	logger := opts.logger()
	s := &Session{
		exec:      exec,
		path:      path,
		caps:      caps,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		logger:    logger,
		poller:    NewPoller(logger, opts.Metrics),
		persister: opts.persister(),
	}
	s.Locator = newLocator(s, logger, s.poller, opts.DefaultWaitTimeout)
	s.logger.Debugf("Session:NewSession", "path:%s", path)

	return s, nil
}

// Dial connects to the server of cfg and opens a session. A nil cfg is read
// from the environment. A nil opts means the default options with the wait
// timeout of cfg. Without a tracer in opts, spans are exported as cfg says
// until the session is closed.
func Dial(ctx context.Context, cfg *env.Config, opts *SessionOptions, clientOpts ...wire.ClientOption) (*Session, error) {
	if cfg == nil {
		var err error
		if cfg, err = env.Load(); err != nil {
			return nil, err
		}
	}
	if opts == nil {
		opts = NewSessionOptions()
		opts.DefaultWaitTimeout = cfg.WaitTimeout
	} else {
		cp := *opts
		opts = &cp
	}
	if opts.Logger == nil {
		l, err := cfg.NewLogger()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		opts.Logger = l
	}

	var shutdownTracing func(context.Context) error
	if opts.Tracer == nil {
		tp, err := cfg.NewTraceProvider(ctx)
		if err != nil {
			return nil, err
		}
		opts.Tracer = trace.NewTracer(opts.Logger.Logger, tp, map[string]string{"webdriver.server": cfg.ServerURL})
		shutdownTracing = tp.Shutdown
	}
	release := func() {
		if shutdownTracing != nil {
			_ = shutdownTracing(ctx)
		}
	}

	copts := []wire.ClientOption{wire.WithLogger(opts.Logger), wire.WithTracer(opts.Tracer)}
	if opts.Metrics != nil {
		copts = append(copts, wire.WithMetrics(opts.Metrics))
	}
	client, err := wire.NewClient(cfg.ServerURL, append(copts, clientOpts...)...)
	if err != nil {
		release()
		return nil, err
	}
	s, err := NewSession(ctx, client, opts)
	if err != nil {
		release()
		return nil, err
	}
	s.shutdownTracing = shutdownTracing

	return s, nil
}

func (s *Session) do(ctx context.Context, method, rel string, params any) (*wire.Response, error) {
	if s.exec == nil {
		return nil, ErrSessionClosed
	}
	p := s.path
	if rel != "" {
		p += "/" + rel
	}
	return s.exec.Execute(ctx, method, p, params)
}

func (s *Session) get(ctx context.Context, rel string) (any, error) {
	res, err := s.do(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (s *Session) getString(ctx context.Context, rel string) (string, error) {
	v, err := s.get(ctx, rel)
	if err != nil {
		return "", err
	}
	return asString(rel, v)
}

func (s *Session) post(ctx context.Context, rel string, params any) error {
	_, err := s.do(ctx, http.MethodPost, rel, params)
	return err
}

func (s *Session) postRelative(ctx context.Context, rel string, params any) (*wire.Response, error) {
	return s.do(ctx, http.MethodPost, rel, params)
}

func (s *Session) newElement(id string) *Element {
	return newElement(s, id)
}

func (s *Session) rootSession() *Session {
	return s
}

// Path returns the path of the session on the server, such as
// "/session/1234".
func (s *Session) Path() string {
	return s.path
}

// Capabilities returns the capabilities the server granted, or the desired
// ones if the server did not tell.
func (s *Session) Capabilities() map[string]any {
	return s.caps.ToMap()
}

// BaseURL returns the URL relative URLs are visited from.
func (s *Session) BaseURL() string {
	return s.baseURL
}

// SetBaseURL sets the URL relative URLs are visited from.
func (s *Session) SetBaseURL(baseURL string) {
	s.baseURL = strings.TrimRight(baseURL, "/")
}

// resolveURL prefixes u with the base URL unless u has a scheme.
func (s *Session) resolveURL(u string) string {
	if s.baseURL == "" || strings.Contains(u, "://") || strings.HasPrefix(u, "about:") {
		return u
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return s.baseURL + u
}

// Visit navigates to u.
func (s *Session) Visit(ctx context.Context, u string) error {
	target := s.resolveURL(u)
	s.logger.Debugf("Session:Visit", "url:%s", target)

	return s.post(ctx, "url", wire.NewObject().Set("url", target))
}

// URL returns the URL of the current page.
func (s *Session) URL(ctx context.Context) (string, error) {
	return s.getString(ctx, "url")
}

// Title returns the title of the current page.
func (s *Session) Title(ctx context.Context) (string, error) {
	return s.getString(ctx, "title")
}

// PageSource returns the source of the current page.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	return s.getString(ctx, "source")
}

// Back goes back in the history.
func (s *Session) Back(ctx context.Context) error {
	return s.post(ctx, "back", nil)
}

// Forward goes forward in the history.
func (s *Session) Forward(ctx context.Context) error {
	return s.post(ctx, "forward", nil)
}

// Refresh reloads the current page.
func (s *Session) Refresh(ctx context.Context) error {
	return s.post(ctx, "refresh", nil)
}

// ScreenshotBytes returns a PNG screenshot of the current page.
func (s *Session) ScreenshotBytes(ctx context.Context) ([]byte, error) {
	encoded, err := s.getString(ctx, "screenshot")
	if err != nil {
		return nil, fmt.Errorf("taking screenshot: %w", err)
	}
	png, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	return png, nil
}

// Screenshot writes a PNG screenshot of the current page to path, which must
// have a .png extension.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return fmt.Errorf("%w: %q does not look like a path to a PNG", ErrNotPNG, path)
	}

	png, err := s.ScreenshotBytes(ctx)
	if err != nil {
		return err
	}
	if err := s.persister.Persist(ctx, path, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("saving screenshot: %w", err)
	}
	s.logger.Debugf("Session:Screenshot", "path:%s size:%d", path, len(png))

	return nil
}

// AlertText returns the text of the open alert, confirm or prompt.
func (s *Session) AlertText(ctx context.Context) (string, error) {
	return s.getString(ctx, "alert_text")
}

// AcceptAlert accepts the open dialog.
func (s *Session) AcceptAlert(ctx context.Context) error {
	return s.post(ctx, "accept_alert", nil)
}

// DismissAlert dismisses the open dialog.
func (s *Session) DismissAlert(ctx context.Context) error {
	return s.post(ctx, "dismiss_alert", nil)
}

// AnswerPrompt types text into the open prompt and accepts it.
func (s *Session) AnswerPrompt(ctx context.Context, text string) error {
	if err := s.post(ctx, "alert_text", wire.NewObject().Set("text", text)); err != nil {
		return err
	}
	return s.AcceptAlert(ctx)
}

// ClearCookies deletes all cookies visible to the current page.
func (s *Session) ClearCookies(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodDelete, "cookie", nil)
	return err
}

// ExecuteScript runs script as the body of a function in the page, with args
// as its arguments. Elements can be passed and returned at any depth of
// arrays and objects. Objects are returned as *wire.Object.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	params := wire.NewObject().
		Set("script", script).
		Set("args", toWire(args))

	res, err := s.do(ctx, http.MethodPost, "execute", params)
	if err != nil {
		return nil, err
	}

	return fromWire(res.Value, func(id string) api.Element { return s.newElement(id) }), nil
}

// Close deletes the remote session. The session can't be used afterwards.
// Elements found through it are not invalidated locally; the server fails
// their commands.
func (s *Session) Close(ctx context.Context) error {
	if s.exec == nil {
		return ErrSessionClosed
	}
	if _, err := s.exec.Execute(ctx, http.MethodDelete, s.path, nil); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	s.exec = nil
	s.logger.Debugf("Session:Close", "path:%s", s.path)

	if s.shutdownTracing != nil {
		if err := s.shutdownTracing(ctx); err != nil {
			return fmt.Errorf("shutting down tracing: %w", err)
		}
	}

	return nil
}

// IsClosed reports whether the session was closed.
func (s *Session) IsClosed() bool {
	return s.exec == nil
}

func asString(what string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: unexpected value %v of type %T", what, v, v)
	}
	return s, nil
}

func asBool(what string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected value %v of type %T", what, v, v)
	}
	return b, nil
}
