package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/xk6-webdriver/api"
	"github.com/grafana/xk6-webdriver/keyboard"
	"github.com/grafana/xk6-webdriver/wire"
)

func find(t *testing.T, s *Session, css string) api.Element {
	t.Helper()

	el, err := s.Find(context.Background(), api.CSS(css))
	require.NoError(t, err)
	return el
}

func value(t *testing.T, el api.Element) string {
	t.Helper()

	v, err := el.Attribute(context.Background(), "value")
	require.NoError(t, err)
	return v.String
}

func TestElementProperties(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestSession(t)

	name := find(t, s, "#name-field")
	assert.Equal(t, s.Path()+"/element/"+name.ID(), name.Path())
	assert.Equal(t, "input", tagName(t, name))
	assert.Equal(t, "name-field", htmlID(t, name))

	placeholder, err := name.Attribute(ctx, "placeholder")
	require.NoError(t, err)
	assert.False(t, placeholder.Valid, "missing attributes are null")

	heading := find(t, s, "#heading")
	id, err := heading.HTMLID(ctx)
	require.NoError(t, err)
	assert.True(t, id.Valid)
	txt, err := heading.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", txt)

	again := find(t, s, "#heading")
	assert.Equal(t, heading.ID(), again.ID())
	assert.NotSame(t, heading, again, "every lookup returns a new handle")
}

func TestElementState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestSession(t)

	tests := []struct {
		css      string
		is       func(api.Element) func(context.Context) (bool, error)
		expected bool
	}{
		{css: "#name-field", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsEnabled }, expected: true},
		{css: "#name-field", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsDisabled }, expected: false},
		{css: "#disabled-field", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsEnabled }, expected: false},
		{css: "#disabled-field", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsDisabled }, expected: true},
		{css: "#heading", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsDisplayed }, expected: true},
		{css: "#hidden", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsDisplayed }, expected: false},
		{css: "#hidden", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsHidden }, expected: true},
		{css: "#color option[value=g]", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsSelected }, expected: true},
		{css: "#color option[value=r]", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsSelected }, expected: false},
		{css: "#agree", is: func(e api.Element) func(context.Context) (bool, error) { return e.IsSelected }, expected: false},
	}
	for _, tt := range tests {
		got, err := tt.is(find(t, s, tt.css))(ctx)
		require.NoError(t, err, tt.css)
		assert.Equal(t, tt.expected, got, tt.css)
	}
}

func TestElementClick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, _ := newTestSession(t)

	agree := find(t, s, "#agree")
	require.NoError(t, agree.Click(ctx))
	selected, err := agree.IsSelected(ctx)
	require.NoError(t, err)
	assert.True(t, selected)

	red := find(t, s, "#color option[value=r]")
	require.NoError(t, red.Click(ctx))
	selected, err = red.IsSelected(ctx)
	require.NoError(t, err)
	assert.True(t, selected)

	err = find(t, s, "#hidden").Click(ctx)
	assert.True(t, wire.HasCode(err, wire.StatusElementNotVisible))
	assert.True(t, wire.IsElementMissingOrInvisible(err))
}

func TestElementFillIn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, srv := newTestSession(t)

	name := find(t, s, "#name-field")
	require.NoError(t, name.FillIn(ctx, "abc"))
	require.NoError(t, name.FillIn(ctx, "d"))
	assert.Equal(t, "abcd", value(t, name))

	require.NoError(t, name.FillIn(ctx, "xy"+keyboard.Backspace.String()+"z", api.ClearFirst()))
	assert.Equal(t, "xz", value(t, name))

	reqs := srv.Requests()
	last := reqs[len(reqs)-2]
	assert.Equal(t, name.Path()+"/value", last.Path)
	assert.JSONEq(t, `{"value":["xy\ue003z"]}`, last.Body)

	require.NoError(t, name.Clear(ctx))
	assert.Equal(t, "", value(t, name))

	err := find(t, s, "#disabled-field").FillIn(ctx, "nope")
	assert.True(t, wire.HasCode(err, wire.StatusInvalidElementState))

	err = find(t, s, "#hidden").FillIn(ctx, "nope")
	assert.True(t, wire.HasCode(err, wire.StatusElementNotVisible))
}

func TestElementFillInKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, srv := newTestSession(t)

	name := find(t, s, "#name-field")
	require.NoError(t, name.FillInKeys(ctx, "ab", keyboard.Backspace.String(), "c"))
	assert.Equal(t, "ac", value(t, name))

	reqs := srv.Requests()
	last := reqs[len(reqs)-2]
	assert.Equal(t, name.Path()+"/value", last.Path)
	assert.JSONEq(t, `{"value":["ab","\ue003","c"]}`, last.Body)

	err := find(t, s, "#disabled-field").FillInKeys(ctx, "nope")
	assert.True(t, wire.HasCode(err, wire.StatusInvalidElementState))
}
