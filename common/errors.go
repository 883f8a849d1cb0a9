package common

import "errors"

var (
	// ErrSessionClosed is returned by every command issued on a closed session.
	ErrSessionClosed = errors.New("session is closed")

	// ErrNotALabel is returned by FindByLabel when the text matched an
	// element other than a label.
	ErrNotALabel = errors.New("not a label")

	// ErrLabelWithoutFor is returned by FindByLabel when the matched label
	// does not point to a field.
	ErrLabelWithoutFor = errors.New("label has no for attribute")

	// ErrNotPNG is returned by Screenshot for paths without a .png extension.
	ErrNotPNG = errors.New("can only take PNG screenshots")

	// ErrNoSessionPath is returned when the server opened a session without
	// telling where it lives.
	ErrNoSessionPath = errors.New("server did not return a session path")
)
