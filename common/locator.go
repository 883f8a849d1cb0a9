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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/grafana/xk6-webdriver/api"
	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/wire"
)

// scope is a search root: a session or an element.
type scope interface {
	// postRelative posts a command to a path relative to the scope.
	postRelative(ctx context.Context, rel string, params any) (*wire.Response, error)
	newElement(id string) *Element
	rootSession() *Session
}

// Locator implements api.Locatable on top of a scope. It is embedded by
// Session and Element.
type Locator struct {
	scope          scope
	logger         *log.Logger
	poller         *Poller
	defaultTimeout time.Duration
}

var _ api.Locatable = &Locator{}

func newLocator(s scope, logger *log.Logger, poller *Poller, defaultTimeout time.Duration) *Locator {
	return &Locator{
		scope:          s,
		logger:         logger,
		poller:         poller,
		defaultTimeout: defaultTimeout,
	}
}

func locateParams(m api.Matcher) *wire.Object {
	return wire.NewObject().
		Set("using", m.Format.Using()).
		Set("value", m.Pattern)
}

// Find returns the first element matching m. It fails with a NoSuchElement
// error if nothing matches.
func (l *Locator) Find(ctx context.Context, m api.Matcher) (api.Element, error) {
	l.logger.Debugf("Locator:Find", "matcher:%s", m)

	res, err := l.scope.postRelative(ctx, "element", locateParams(m))
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", m, err)
	}
	id, ok := wire.ElementID(res.Value)
	if !ok {
		return nil, fmt.Errorf("finding %s: unexpected value %v", m, res.Value)
	}

	return l.scope.newElement(id), nil
}

// TryFind is like Find but returns a nil element if nothing matches.
func (l *Locator) TryFind(ctx context.Context, m api.Matcher) (api.Element, error) {
	els, err := l.FindAll(ctx, m)
	if wire.HasCode(err, wire.StatusNoSuchElement) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, nil
	}

	return els[0], nil
}

// FindAll returns the elements matching m in the order of the server,
// usually the document order.
func (l *Locator) FindAll(ctx context.Context, m api.Matcher) ([]api.Element, error) {
	l.logger.Debugf("Locator:FindAll", "matcher:%s", m)

	res, err := l.scope.postRelative(ctx, "elements", locateParams(m))
	if err != nil {
		return nil, fmt.Errorf("finding all %s: %w", m, err)
	}
	if res.Value == nil {
		return []api.Element{}, nil
	}
	refs, ok := res.Value.([]any)
	if !ok {
		return nil, fmt.Errorf("finding all %s: unexpected value %v", m, res.Value)
	}

	els := make([]api.Element, 0, len(refs))
	for _, ref := range refs {
		id, ok := wire.ElementID(ref)
		if !ok {
			return nil, fmt.Errorf("finding all %s: unexpected element reference %v", m, ref)
		}
		els = append(els, l.scope.newElement(id))
	}

	return els, nil
}

// FindByText returns the first element with a text node containing text.
// The text must not be interrupted by child elements.
func (l *Locator) FindByText(ctx context.Context, text string) (api.Element, error) {
	return l.Find(ctx, textMatcher(text))
}

// TryFindByText is like FindByText but returns a nil element if nothing
// matches.
func (l *Locator) TryFindByText(ctx context.Context, text string) (api.Element, error) {
	return l.TryFind(ctx, textMatcher(text))
}

// FindAllByText returns all elements with a text node containing text.
func (l *Locator) FindAllByText(ctx context.Context, text string) ([]api.Element, error) {
	return l.FindAll(ctx, textMatcher(text))
}

// FindByLabel finds the label containing text and returns the field it is
// for. The field is looked up in the whole page.
func (l *Locator) FindByLabel(ctx context.Context, text string) (api.Element, error) {
	label, err := l.FindByText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("finding label %q: %w", text, err)
	}

	tag, err := label.TagName(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding label %q: %w", text, err)
	}
	if tag != "label" {
		return nil, fmt.Errorf("%w: tag with text %q is a <%s>", ErrNotALabel, text, tag)
	}

	forID, err := label.Attribute(ctx, "for")
	if err != nil {
		return nil, fmt.Errorf("finding label %q: %w", text, err)
	}
	if forID.String == "" {
		return nil, fmt.Errorf("%w: label with text %q", ErrLabelWithoutFor, text)
	}

	return l.scope.rootSession().Find(ctx, api.CSS("#"+forID.String))
}

// FillInByLabels fills in the field of each label in order. It stops at the
// first failure.
func (l *Locator) FillInByLabels(ctx context.Context, values []api.LabelValue) error {
	for _, lv := range values {
		field, err := l.FindByLabel(ctx, lv.Label)
		if err == nil {
			err = field.FillIn(ctx, lv.Value)
		}
		if err != nil {
			return errors.Wrapf(err, "filling in %q with %q", lv.Label, lv.Value)
		}
	}

	return nil
}

// WaitForElement polls until an element matches m. A zero timeout means the
// session's default wait timeout.
func (l *Locator) WaitForElement(ctx context.Context, m api.Matcher, timeout time.Duration) (api.Element, error) {
	timeout = l.timeout(timeout)
	msg := fmt.Sprintf("element %s failed to appear in %s", m, timeout)

	return PollForResult(ctx, l.poller, timeout, msg, func(ctx context.Context) (api.Element, bool, error) {
		el, err := l.TryFind(ctx, m)
		return el, el != nil, err
	})
}

// WaitForText polls until an element with text appears. Missing and
// invisible elements are retried, other failures end the wait.
func (l *Locator) WaitForText(ctx context.Context, text string, timeout time.Duration) (api.Element, error) {
	timeout = l.timeout(timeout)
	msg := fmt.Sprintf("element with text %q failed to appear in %s", text, timeout)

	return PollForResult(ctx, l.poller, timeout, msg, func(ctx context.Context) (api.Element, bool, error) {
		el, err := l.FindByText(ctx, text)
		if err != nil {
			if wire.IsElementMissingOrInvisible(err) {
				return nil, false, nil
			}
			return nil, false, err
		}

		// the element can show up before its text is populated
		got, err := el.Text(ctx)
		if err != nil {
			if wire.IsElementMissingOrInvisible(err) {
				return nil, false, nil
			}
			return nil, false, err
		}
		if !strings.Contains(got, text) {
			return nil, false, nil
		}

		return el, true, nil
	})
}

func (l *Locator) timeout(t time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	return l.defaultTimeout
}

func textMatcher(text string) api.Matcher {
	return api.XPath("//*[contains(text()," + xpathLiteral(text) + ")]")
}

// xpathLiteral quotes s as an XPath string literal. XPath has no escapes, so
// text with both kinds of quotes is spelled as a concat().
func xpathLiteral(s string) string {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	}

	var sb strings.Builder
	sb.WriteString("concat(")
	for i, part := range strings.Split(s, "'") {
		if i > 0 {
			sb.WriteString(`, "'", `)
		}
		sb.WriteString("'" + part + "'")
	}
	sb.WriteString(")")

	return sb.String()
}
