package api

import "context"

// Session is the public interface of a remote browser session.
type Session interface {
	Locatable

	Path() string
	Capabilities() map[string]any
	BaseURL() string
	SetBaseURL(baseURL string)
	Visit(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Refresh(ctx context.Context) error
	Screenshot(ctx context.Context, path string) error
	ScreenshotBytes(ctx context.Context) ([]byte, error)
	AlertText(ctx context.Context) (string, error)
	AcceptAlert(ctx context.Context) error
	DismissAlert(ctx context.Context) error
	AnswerPrompt(ctx context.Context, text string) error
	ClearCookies(ctx context.Context) error
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
	Close(ctx context.Context) error
	IsClosed() bool
}
