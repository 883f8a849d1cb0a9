package api

import (
	"context"
	"time"
)

// SelectorFormat is the syntax of a Matcher pattern.
type SelectorFormat string

// Selector formats. An empty format means FormatCSS.
const (
	FormatCSS   SelectorFormat = "css"
	FormatXPath SelectorFormat = "xpath"
)

// Using returns the wire name of the location strategy. Unknown formats are
// passed through as is.
func (f SelectorFormat) Using() string {
	switch f {
	case FormatCSS, "":
		return "css selector"
	case FormatXPath:
		return "xpath"
	default:
		return string(f)
	}
}

// Matcher selects elements.
type Matcher struct {
	Pattern string
	Format  SelectorFormat
}

// CSS returns a matcher for a CSS selector.
func CSS(pattern string) Matcher {
	return Matcher{Pattern: pattern, Format: FormatCSS}
}

// XPath returns a matcher for an XPath expression.
func XPath(pattern string) Matcher {
	return Matcher{Pattern: pattern, Format: FormatXPath}
}

func (m Matcher) String() string {
	f := m.Format
	if f == "" {
		f = FormatCSS
	}
	return string(f) + ":" + m.Pattern
}

// LabelValue pairs a label text with the value to fill into the field the
// label is for.
type LabelValue struct {
	Label string
	Value string
}

// Locatable is the public interface of a search scope: a session or an element.
type Locatable interface {
	Find(ctx context.Context, m Matcher) (Element, error)
	TryFind(ctx context.Context, m Matcher) (Element, error)
	FindAll(ctx context.Context, m Matcher) ([]Element, error)
	FindByText(ctx context.Context, text string) (Element, error)
	TryFindByText(ctx context.Context, text string) (Element, error)
	FindAllByText(ctx context.Context, text string) ([]Element, error)
	FindByLabel(ctx context.Context, label string) (Element, error)
	FillInByLabels(ctx context.Context, values []LabelValue) error
	WaitForElement(ctx context.Context, m Matcher, timeout time.Duration) (Element, error)
	WaitForText(ctx context.Context, text string, timeout time.Duration) (Element, error)
}
