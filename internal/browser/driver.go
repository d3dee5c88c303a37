// Package browser wraps the external automation library behind a small
// Driver contract and a Launcher that starts one browser per call.
package browser

import (
	"context"
	"io"
)

// Driver is a handle to one automated browser. Element and action methods
// resolve their Locator within the current frame, waiting up to the
// locator's timeout for the element to be attached.
type Driver interface {
	// Navigation
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	Resize(ctx context.Context, width, height int) error
	CurrentURL() string

	// Elements
	FindElement(ctx context.Context, loc Locator) error
	Click(ctx context.Context, loc Locator) error
	Type(ctx context.Context, loc Locator, text string) error
	Clear(ctx context.Context, loc Locator) error
	Text(ctx context.Context, loc Locator) (string, error)
	Attribute(ctx context.Context, loc Locator, name string) (string, bool, error)
	IsDisplayed(ctx context.Context, loc Locator) (bool, error)
	SwitchToFrame(ctx context.Context, loc Locator) error
	SwitchToDefault(ctx context.Context) error
	UploadFile(ctx context.Context, loc Locator, path string) error

	// Actions
	Hover(ctx context.Context, loc Locator) error
	WaitFor(ctx context.Context, loc Locator) error
	DragAndDrop(ctx context.Context, source, target Locator) error
	DoubleClick(ctx context.Context, loc Locator) error
	RightClick(ctx context.Context, loc Locator) error
	SelectByText(ctx context.Context, loc Locator, text string) error
	SelectByValue(ctx context.Context, loc Locator, value string) error
	PressKey(ctx context.Context, key string) error
	ExecuteScript(ctx context.Context, script string) (interface{}, error)
	ScrollToElement(ctx context.Context, loc Locator) error
	ScrollToTop(ctx context.Context) error
	ScrollToBottom(ctx context.Context) error
	ScrollTo(ctx context.Context, x, y float64) error
	ScrollBy(ctx context.Context, x, y float64) error
	SetChecked(ctx context.Context, loc Locator, checked bool) error
	SubmitForm(ctx context.Context, loc Locator) error
	Focus(ctx context.Context, loc Locator) error
	Blur(ctx context.Context, loc Locator) error
	Screenshot(ctx context.Context) ([]byte, error)

	// Cookies
	Cookies(ctx context.Context) ([]Cookie, error)
	Cookie(ctx context.Context, name string) (*Cookie, error)
	AddCookie(ctx context.Context, c Cookie) error
	DeleteCookie(ctx context.Context, name string) error
	DeleteAllCookies(ctx context.Context) error

	// Quit ends the browser process. It takes no context: callers that need
	// a bound race it against their own deadline and abandon it on expiry.
	Quit() error
}

// Launcher starts browsers. Each Launch call yields a new, independent
// browser process; there is no pooling and no retry.
type Launcher interface {
	Launch(ctx context.Context, spec Spec) (Driver, error)
	io.Closer
}
