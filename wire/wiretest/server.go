// Package wiretest provides an in-process JSON Wire Protocol server for
// tests. Pages are plain HTML documents registered up front; the server keeps
// one DOM per session, resolves CSS selectors and a practical subset of XPath
// against it, tracks element state and runs scripts with a small DOM binding.
package wiretest

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/mailru/easyjson"
	"github.com/tidwall/gjson"

	"github.com/grafana/xk6-webdriver/wire"
)

// Prefix is the path the protocol is served under.
const Prefix = "/wd/hub"

// StatusNoSuchSession is the status answered for commands sent to a session
// that was deleted or never existed.
const StatusNoSuchSession wire.StatusCode = 6

const blankPage = `<html><head><title></title></head><body></body></html>`

const notFoundPage = `<html><head><title>Not Found</title></head><body><h1>Not Found</h1></body></html>`

// Request is a command received by the server.
type Request struct {
	Method string
	// Path is relative to Prefix, e.g. "/session/1/element".
	Path string
	Body string
}

// Server is a fake remote end.
type Server struct {
	srv *httptest.Server

	mu         sync.Mutex
	pages      map[string]string
	sessions   map[string]*session
	nextID     int
	noRedirect bool
	requests   []Request
	lastCaps   *wire.Object
	screenshot string
}

// Option configures a Server.
type Option func(*Server)

// WithoutRedirect makes session creation answer 200 with the session id in
// the envelope instead of redirecting to the session URL.
func WithoutRedirect() Option {
	return func(s *Server) { s.noRedirect = true }
}

// WithPage registers a page, see AddPage.
func WithPage(url, html string) Option {
	return func(s *Server) { s.pages[url] = html }
}

// NewServer starts a server that is closed when the test ends.
func NewServer(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	s := &Server{
		pages:      make(map[string]string),
		sessions:   make(map[string]*session),
		screenshot: onePixelPNG(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	tb.Cleanup(s.srv.Close)

	return s
}

// URL returns the server URL to hand to a client, including Prefix.
func (s *Server) URL() string {
	return s.srv.URL + Prefix
}

// AddPage registers the HTML served when a session navigates to url.
func (s *Server) AddPage(url, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = html
}

// Mutate calls fn with the current document of every open session. It is
// safe to call while commands are in flight.
func (s *Server) Mutate(fn func(doc *goquery.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ss := range s.sessions {
		fn(ss.doc)
	}
}

// Requests returns the commands received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	reqs := make([]Request, len(s.requests))
	copy(reqs, s.requests)
	return reqs
}

// OpenSessions returns the number of sessions not deleted yet.
func (s *Server) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// LastCapabilities returns the desired capabilities of the last session
// created.
func (s *Server) LastCapabilities() *wire.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCaps
}

// ScreenshotBase64 returns the base64 PNG answered for screenshots.
func (s *Server) ScreenshotBase64() string {
	return s.screenshot
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(r.URL.Path, Prefix+"/") {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, Prefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, Request{Method: r.Method, Path: path, Body: string(body)})

	segs := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case len(segs) == 1 && segs[0] == "status" && r.Method == http.MethodGet:
		s.write(w, "", wire.NewObject().Set("ready", true), nil)
	case len(segs) == 1 && segs[0] == "session" && r.Method == http.MethodPost:
		s.newSession(w, body)
	case len(segs) >= 2 && segs[0] == "session":
		ss, ok := s.sessions[segs[1]]
		if !ok {
			s.write(w, segs[1], nil, wire.NewError(StatusNoSuchSession, "no such session: "+segs[1]))
			return
		}
		if len(segs) == 2 && r.Method == http.MethodDelete {
			ss.shutdown()
			delete(s.sessions, ss.id)
			s.write(w, ss.id, nil, nil)
			return
		}
		v, err := ss.handle(r.Method, segs[2:], body)
		if errors.Is(err, errUnknownCommand) {
			http.Error(w, "Unrecognized command: "+r.Method+" "+path, http.StatusNotFound)
			return
		}
		s.write(w, ss.id, v, err)
	default:
		http.Error(w, "Unrecognized command: "+r.Method+" "+path, http.StatusNotFound)
	}
}

func (s *Server) newSession(w http.ResponseWriter, body []byte) {
	raw := gjson.GetBytes(body, "desiredCapabilities").Raw
	if raw == "" {
		raw = "{}"
	}
	caps, err := wire.Decode([]byte(raw))
	if err != nil {
		s.write(w, "", nil, wire.NewError(wire.StatusUnknownError, "invalid desiredCapabilities"))
		return
	}
	s.lastCaps, _ = caps.(*wire.Object)

	s.nextID++
	id := strconv.Itoa(s.nextID)
	s.sessions[id] = newSession(s, id)

	if s.noRedirect {
		s.write(w, id, s.lastCaps, nil)
		return
	}
	w.Header().Set("Location", s.srv.URL+Prefix+"/session/"+id)
	w.WriteHeader(http.StatusSeeOther)
}

// page returns the HTML of url.
func (s *Server) page(url string) string {
	if url == "about:blank" {
		return blankPage
	}
	if html, ok := s.pages[url]; ok {
		return html
	}
	return notFoundPage
}

func (s *Server) write(w http.ResponseWriter, sessionID string, value any, err error) {
	res := &wire.Response{SessionID: sessionID, Value: value}
	httpStatus := http.StatusOK
	if err != nil {
		var werr *wire.Error
		if !errors.As(err, &werr) {
			werr = wire.NewError(wire.StatusUnknownError, err.Error())
		}
		res.Status = werr.Code
		res.Value = wire.NewObject().Set("message", werr.Message)
		httpStatus = http.StatusInternalServerError
	}

	b, merr := easyjson.Marshal(res)
	if merr != nil {
		http.Error(w, merr.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(httpStatus)
	_, _ = w.Write(b)
}

func onePixelPNG() string {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(fmt.Sprintf("encoding screenshot: %v", err))
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
