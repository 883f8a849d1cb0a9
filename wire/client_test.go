package wire

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/xk6-webdriver/metrics"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/wd/hub/", opts...)
	require.NoError(t, err)

	return c
}

func TestNewClientRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient("localhost:4444")
	assert.Error(t, err)
	_, err = NewClient("://")
	assert.Error(t, err)
}

func TestClientSendsJSON(t *testing.T) {
	t.Parallel()

	var (
		gotMethod, gotPath, gotBody, gotContentType string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotMethod, gotPath, gotBody = r.Method, r.URL.Path, string(b)
		gotContentType = r.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `{"status":0,"sessionId":"s","value":{"ELEMENT":"1"}}`)
	})

	params := NewObject().Set("using", "css selector").Set("value", "p")
	res, err := c.Execute(context.Background(), http.MethodPost, "/session/s/element", params)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/wd/hub/session/s/element", gotPath)
	assert.Equal(t, `{"using":"css selector","value":"p"}`, gotBody)
	assert.Contains(t, gotContentType, "application/json")

	id, ok := ElementID(res.Value)
	assert.True(t, ok)
	assert.Equal(t, "1", id)
	assert.Equal(t, "s", res.SessionID)
}

func TestClientRedirect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		location func(base string) string
		want     string
	}{
		{
			name:     "absolute",
			location: func(base string) string { return base + "/wd/hub/session/abc" },
			want:     "/session/abc",
		},
		{
			name:     "host_relative",
			location: func(string) string { return "/wd/hub/session/abc" },
			want:     "/session/abc",
		},
		{
			name:     "elsewhere",
			location: func(string) string { return "http://other:4444/session/abc" },
			want:     "http://other:4444/session/abc",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var base string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", tt.location(base))
				w.WriteHeader(http.StatusSeeOther)
			}))
			t.Cleanup(srv.Close)
			base = srv.URL

			c, err := NewClient(srv.URL + "/wd/hub")
			require.NoError(t, err)

			res, err := c.Execute(context.Background(), http.MethodPost, "/session", NewObject())
			require.NoError(t, err)
			assert.Equal(t, http.StatusSeeOther, res.HTTPStatus)
			assert.Equal(t, tt.want, res.Location)
		})
	}
}

func TestClientClassifiesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		httpStatus int
		body       string
		wantCode   StatusCode
		wantMsg    string
		transport  bool
	}{
		{
			name:       "status_with_message",
			httpStatus: http.StatusInternalServerError,
			body:       `{"status":7,"value":{"message":"no such element: #x"}}`,
			wantCode:   StatusNoSuchElement,
			wantMsg:    "no such element: #x",
		},
		{
			name:       "status_without_message",
			httpStatus: http.StatusOK,
			body:       `{"status":27,"value":null}`,
			wantCode:   StatusNoAlertOpenError,
			wantMsg:    "NoAlertOpenError (27): An attempt was made to operate on a modal dialog when one was not open.",
		},
		{
			name:       "client_error",
			httpStatus: http.StatusNotFound,
			body:       `Unknown command`,
			transport:  true,
		},
		{
			name:       "server_error_without_json",
			httpStatus: http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			transport:  true,
		},
		{
			name:       "malformed_json",
			httpStatus: http.StatusOK,
			body:       `{"status":0,"value":`,
			transport:  true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.httpStatus)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Execute(context.Background(), http.MethodGet, "/session/s/title", nil)
			require.Error(t, err)

			if tt.transport {
				var terr *TransportError
				assert.ErrorAs(t, err, &terr)
				_, ok := CodeOf(err)
				assert.False(t, ok)
				return
			}
			var werr *Error
			require.ErrorAs(t, err, &werr)
			assert.Equal(t, tt.wantCode, werr.Code)
			assert.Equal(t, tt.wantMsg, werr.Error())
			assert.False(t, werr.Local)
		})
	}
}

func TestClientEmptyBody(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	res, err := c.Execute(context.Background(), http.MethodDelete, "/session/s", nil)
	require.NoError(t, err)
	assert.Nil(t, res.Value)
	assert.Equal(t, http.StatusNoContent, res.HTTPStatus)
}

func TestClientConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)
	_, err = c.Execute(context.Background(), http.MethodGet, "/status", nil)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.MethodGet, terr.Method)
	assert.Equal(t, url+"/status", terr.URL)
}

func TestClientRecordsMetrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = io.WriteString(w, `{"status":7,"value":{"message":"nope"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":0,"value":"ok"}`)
	}, WithMetrics(m))

	ctx := context.Background()
	_, err := c.Execute(ctx, http.MethodGet, "/session/s/url", nil)
	require.NoError(t, err)
	_, err = c.Execute(ctx, http.MethodPost, "/session/s/element", NewObject())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues(http.MethodGet)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues(http.MethodPost)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WireErrors.WithLabelValues("NoSuchElement")))
}

func TestClientAbsolutePath(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"status":0,"value":null}`)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient("http://127.0.0.1:1/wd/hub")
	require.NoError(t, err)
	_, err = c.Execute(context.Background(), http.MethodGet, srv.URL+"/elsewhere/title", nil)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/title", gotPath)
}
