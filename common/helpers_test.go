package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grafana/xk6-webdriver/wire"
	"github.com/grafana/xk6-webdriver/wire/wiretest"
)

const fixtureURL = "http://fixture.test/"

const fixturePage = `<html><head><title>Fixture</title></head><body>
<h1 id="heading">Welcome</h1>
<ul id="list"><li>one</li><li>two</li><li>three</li></ul>
<p id="lorem">Lorem ipsum dolor <b>sit</b> amet</p>
<p id="quote">It's "quoted"</p>
<form id="form">
<label for="name-field">Your name</label>
<input id="name-field" type="text">
<label for="disabled-field">Disabled field</label>
<input id="disabled-field" type="text" value="fixed" disabled>
<label>No target</label>
<span id="not-label">Not a label</span>
<input id="agree" type="checkbox">
<select id="color"><option value="r">Red</option><option value="g" selected>Green</option></select>
</form>
<div id="hidden" style="display: none">Secret text</div>
</body></html>`

// newTestSession opens a session on a fake server showing the fixture page.
func newTestSession(t *testing.T, opts ...wiretest.Option) (*Session, *wiretest.Server) {
	t.Helper()

	srv := wiretest.NewServer(t, append([]wiretest.Option{wiretest.WithPage(fixtureURL, fixturePage)}, opts...)...)
	c, err := wire.NewClient(srv.URL())
	require.NoError(t, err)

	so := NewSessionOptions()
	so.DefaultWaitTimeout = 2 * time.Second
	s, err := NewSession(context.Background(), c, so)
	require.NoError(t, err)
	t.Cleanup(func() {
		if !s.IsClosed() {
			_ = s.Close(context.Background())
		}
	})

	require.NoError(t, s.Visit(context.Background(), fixtureURL))

	return s, srv
}

type executorFunc func(ctx context.Context, method, path string, params any) (*wire.Response, error)

func (f executorFunc) Execute(ctx context.Context, method, path string, params any) (*wire.Response, error) {
	return f(ctx, method, path, params)
}
