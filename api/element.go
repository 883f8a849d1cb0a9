package api

import (
	"context"

	"gopkg.in/guregu/null.v3"
)

// Element is the public interface of a remote DOM element.
type Element interface {
	Locatable

	ID() string
	Path() string
	HTMLID(ctx context.Context) (null.String, error)
	TagName(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (null.String, error)
	IsEnabled(ctx context.Context) (bool, error)
	IsDisabled(ctx context.Context) (bool, error)
	IsDisplayed(ctx context.Context) (bool, error)
	IsHidden(ctx context.Context) (bool, error)
	IsSelected(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	FillIn(ctx context.Context, text string, opts ...FillInOption) error
	FillInKeys(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// FillInOptions control Element.FillIn.
type FillInOptions struct {
	// ClearFirst clears the element before typing.
	ClearFirst bool
}

// FillInOption sets a FillIn option.
type FillInOption func(*FillInOptions)

// ClearFirst makes FillIn clear the element before typing.
func ClearFirst() FillInOption {
	return func(o *FillInOptions) { o.ClearFirst = true }
}
