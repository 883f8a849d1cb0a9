package common

import (
	"context"
	"fmt"
	"net/http"

	"gopkg.in/guregu/null.v3"

	"github.com/grafana/xk6-webdriver/api"
	"github.com/grafana/xk6-webdriver/keyboard"
	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/wire"
)

// Element is a remote DOM element and a search scope for its subtree.
//
// An element keeps the executor of its session at the time it was found.
// Closing the session does not invalidate it locally, the server rejects its
// commands instead.
type Element struct {
	*Locator

	session *Session
	exec    wire.Executor
	id      string
	path    string
	logger  *log.Logger
}

var _ api.Element = &Element{}

func newElement(s *Session, id string) *Element {
	e := &Element{
		session: s,
		exec:    s.exec,
		id:      id,
		path:    s.path + "/element/" + id,
		logger:  s.logger,
	}
	e.Locator = newLocator(e, s.logger, s.poller, s.Locator.defaultTimeout)

	return e
}

func (e *Element) do(ctx context.Context, method, rel string, params any) (*wire.Response, error) {
	return e.exec.Execute(ctx, method, e.path+"/"+rel, params)
}

func (e *Element) get(ctx context.Context, rel string) (any, error) {
	res, err := e.do(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (e *Element) getBool(ctx context.Context, rel string) (bool, error) {
	v, err := e.get(ctx, rel)
	if err != nil {
		return false, err
	}
	return asBool(rel, v)
}

func (e *Element) postRelative(ctx context.Context, rel string, params any) (*wire.Response, error) {
	return e.do(ctx, http.MethodPost, rel, params)
}

func (e *Element) newElement(id string) *Element {
	return newElement(e.session, id)
}

func (e *Element) rootSession() *Session {
	return e.session
}

// ID returns the opaque id the server knows the element by.
func (e *Element) ID() string {
	return e.id
}

// Path returns the path of the element on the server.
func (e *Element) Path() string {
	return e.path
}

// HTMLID returns the id attribute.
func (e *Element) HTMLID(ctx context.Context) (null.String, error) {
	return e.Attribute(ctx, "id")
}

// TagName returns the lower case tag name.
func (e *Element) TagName(ctx context.Context) (string, error) {
	v, err := e.get(ctx, "name")
	if err != nil {
		return "", err
	}
	return asString("name", v)
}

// Text returns the visible text.
func (e *Element) Text(ctx context.Context) (string, error) {
	v, err := e.get(ctx, "text")
	if err != nil {
		return "", err
	}
	return asString("text", v)
}

// Attribute returns the value of the named attribute. A missing attribute is
// a null string, not an error.
func (e *Element) Attribute(ctx context.Context, name string) (null.String, error) {
	v, err := e.get(ctx, "attribute/"+name)
	if err != nil {
		return null.String{}, err
	}

	switch v := v.(type) {
	case nil:
		return null.String{}, nil
	case string:
		return null.StringFrom(v), nil
	default:
		return null.StringFrom(fmt.Sprint(v)), nil
	}
}

func (e *Element) IsEnabled(ctx context.Context) (bool, error) {
	return e.getBool(ctx, "enabled")
}

func (e *Element) IsDisabled(ctx context.Context) (bool, error) {
	enabled, err := e.IsEnabled(ctx)
	if err != nil {
		return false, err
	}
	return !enabled, nil
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	return e.getBool(ctx, "displayed")
}

func (e *Element) IsHidden(ctx context.Context) (bool, error) {
	displayed, err := e.IsDisplayed(ctx)
	if err != nil {
		return false, err
	}
	return !displayed, nil
}

func (e *Element) IsSelected(ctx context.Context) (bool, error) {
	return e.getBool(ctx, "selected")
}

// Click clicks the element.
func (e *Element) Click(ctx context.Context) error {
	e.logger.Debugf("Element:Click", "eid:%s", e.id)

	_, err := e.do(ctx, http.MethodPost, "click", nil)
	return err
}

// FillIn types text into the element. Text may contain the special keys of
// the keyboard package.
func (e *Element) FillIn(ctx context.Context, text string, opts ...api.FillInOption) error {
	var o api.FillInOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.ClearFirst {
		if err := e.Clear(ctx); err != nil {
			return err
		}
	}

	e.logger.Debugf("Element:FillIn", "eid:%s text:%s", e.id, keyboard.Describe(text))

	return e.sendKeys(ctx, []string{text})
}

// FillInKeys types each of keys into the element in order, in a single
// command. It does not clear the element.
func (e *Element) FillInKeys(ctx context.Context, keys ...string) error {
	e.logger.Debugf("Element:FillInKeys", "eid:%s keys:%d", e.id, len(keys))

	if keys == nil {
		keys = []string{}
	}
	return e.sendKeys(ctx, keys)
}

func (e *Element) sendKeys(ctx context.Context, keys []string) error {
	_, err := e.do(ctx, http.MethodPost, "value", wire.NewObject().Set("value", keys))
	return err
}

// Clear clears the value of a text field.
func (e *Element) Clear(ctx context.Context) error {
	_, err := e.do(ctx, http.MethodPost, "clear", nil)
	return err
}
