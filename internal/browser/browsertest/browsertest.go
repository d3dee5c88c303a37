// Package browsertest provides in-memory Driver and Launcher fakes.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

// Driver is a fake browser.Driver. It records every call by method name and
// keeps a tiny model of page state (URL, cookies, frame) so tool handlers can
// be exercised end to end.
type Driver struct {
	mu sync.Mutex

	Kind  browser.Kind
	Calls []string

	URL        string
	Width      int
	Height     int
	InFrame    bool
	Jar        map[string]browser.Cookie
	Elements   map[string]string // locator string -> element text
	Attributes map[string]string // "<locator>@<name>" -> value
	Hidden     map[string]bool   // locator string -> not displayed

	ScriptResult interface{}
	Image        []byte

	// Err, when set, is returned by every method except Quit.
	Err error

	// QuitErr is returned by Quit; QuitDelay delays Quit; QuitBlock, when
	// non-nil, makes Quit wait until the channel is closed.
	QuitErr   error
	QuitDelay time.Duration
	QuitBlock chan struct{}

	quits int
}

// NewDriver returns an empty fake on about:blank.
func NewDriver(kind browser.Kind) *Driver {
	return &Driver{
		Kind:       kind,
		URL:        "about:blank",
		Jar:        make(map[string]browser.Cookie),
		Elements:   make(map[string]string),
		Attributes: make(map[string]string),
		Hidden:     make(map[string]bool),
		Image:      []byte("\x89PNG fake"),
	}
}

// ErrNoSuchElement is returned for locators that were never registered with AddElement.
var ErrNoSuchElement = errors.New("no such element")

// AddElement makes loc resolvable, with text as its inner text.
func (d *Driver) AddElement(by browser.Strategy, value, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Elements[browser.Locator{By: by, Value: value}.String()] = text
}

// Called reports whether method was invoked at least once.
func (d *Driver) Called(method string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.Calls {
		if c == method {
			return true
		}
	}
	return false
}

// QuitCount returns how many times Quit completed.
func (d *Driver) QuitCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quits
}

func (d *Driver) record(ctx context.Context, method string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, method)
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Err
}

func (d *Driver) find(ctx context.Context, method string, loc browser.Locator) (string, error) {
	if err := d.record(ctx, method); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.Elements[loc.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSuchElement, loc)
	}
	return text, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.record(ctx, "Navigate"); err != nil {
		return err
	}
	d.mu.Lock()
	d.URL = url
	d.InFrame = false
	d.mu.Unlock()
	return nil
}

func (d *Driver) Back(ctx context.Context) error    { return d.record(ctx, "Back") }
func (d *Driver) Forward(ctx context.Context) error { return d.record(ctx, "Forward") }

func (d *Driver) Resize(ctx context.Context, width, height int) error {
	if err := d.record(ctx, "Resize"); err != nil {
		return err
	}
	d.mu.Lock()
	d.Width, d.Height = width, height
	d.mu.Unlock()
	return nil
}

func (d *Driver) CurrentURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.URL
}

func (d *Driver) FindElement(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "FindElement", loc)
	return err
}

func (d *Driver) Click(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "Click", loc)
	return err
}

func (d *Driver) Type(ctx context.Context, loc browser.Locator, text string) error {
	if _, err := d.find(ctx, "Type", loc); err != nil {
		return err
	}
	d.mu.Lock()
	d.Elements[loc.String()] = text
	d.mu.Unlock()
	return nil
}

func (d *Driver) Clear(ctx context.Context, loc browser.Locator) error {
	if _, err := d.find(ctx, "Clear", loc); err != nil {
		return err
	}
	d.mu.Lock()
	d.Elements[loc.String()] = ""
	d.mu.Unlock()
	return nil
}

func (d *Driver) Text(ctx context.Context, loc browser.Locator) (string, error) {
	return d.find(ctx, "Text", loc)
}

func (d *Driver) Attribute(ctx context.Context, loc browser.Locator, name string) (string, bool, error) {
	if _, err := d.find(ctx, "Attribute", loc); err != nil {
		return "", false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.Attributes[loc.String()+"@"+name]
	return v, ok, nil
}

func (d *Driver) IsDisplayed(ctx context.Context, loc browser.Locator) (bool, error) {
	if _, err := d.find(ctx, "IsDisplayed", loc); err != nil {
		if errors.Is(err, ErrNoSuchElement) {
			return false, nil
		}
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.Hidden[loc.String()], nil
}

func (d *Driver) SwitchToFrame(ctx context.Context, loc browser.Locator) error {
	if _, err := d.find(ctx, "SwitchToFrame", loc); err != nil {
		return err
	}
	d.mu.Lock()
	d.InFrame = true
	d.mu.Unlock()
	return nil
}

func (d *Driver) SwitchToDefault(ctx context.Context) error {
	if err := d.record(ctx, "SwitchToDefault"); err != nil {
		return err
	}
	d.mu.Lock()
	d.InFrame = false
	d.mu.Unlock()
	return nil
}

func (d *Driver) UploadFile(ctx context.Context, loc browser.Locator, path string) error {
	_, err := d.find(ctx, "UploadFile", loc)
	return err
}

func (d *Driver) Hover(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "Hover", loc)
	return err
}

func (d *Driver) WaitFor(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "WaitFor", loc)
	return err
}

func (d *Driver) DragAndDrop(ctx context.Context, source, target browser.Locator) error {
	if _, err := d.find(ctx, "DragAndDrop", source); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.Elements[target.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchElement, target)
	}
	return nil
}

func (d *Driver) DoubleClick(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "DoubleClick", loc)
	return err
}

func (d *Driver) RightClick(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "RightClick", loc)
	return err
}

func (d *Driver) SelectByText(ctx context.Context, loc browser.Locator, text string) error {
	_, err := d.find(ctx, "SelectByText", loc)
	return err
}

func (d *Driver) SelectByValue(ctx context.Context, loc browser.Locator, value string) error {
	_, err := d.find(ctx, "SelectByValue", loc)
	return err
}

func (d *Driver) PressKey(ctx context.Context, key string) error { return d.record(ctx, "PressKey") }

func (d *Driver) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	if err := d.record(ctx, "ExecuteScript"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ScriptResult, nil
}

func (d *Driver) ScrollToElement(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "ScrollToElement", loc)
	return err
}

func (d *Driver) ScrollToTop(ctx context.Context) error    { return d.record(ctx, "ScrollToTop") }
func (d *Driver) ScrollToBottom(ctx context.Context) error { return d.record(ctx, "ScrollToBottom") }

func (d *Driver) ScrollTo(ctx context.Context, x, y float64) error {
	return d.record(ctx, "ScrollTo")
}

func (d *Driver) ScrollBy(ctx context.Context, x, y float64) error {
	return d.record(ctx, "ScrollBy")
}

func (d *Driver) SetChecked(ctx context.Context, loc browser.Locator, checked bool) error {
	_, err := d.find(ctx, "SetChecked", loc)
	return err
}

func (d *Driver) SubmitForm(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "SubmitForm", loc)
	return err
}

func (d *Driver) Focus(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "Focus", loc)
	return err
}

func (d *Driver) Blur(ctx context.Context, loc browser.Locator) error {
	_, err := d.find(ctx, "Blur", loc)
	return err
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := d.record(ctx, "Screenshot"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.Image...), nil
}

func (d *Driver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	if err := d.record(ctx, "Cookies"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]browser.Cookie, 0, len(d.Jar))
	for _, c := range d.Jar {
		out = append(out, c)
	}
	return out, nil
}

func (d *Driver) Cookie(ctx context.Context, name string) (*browser.Cookie, error) {
	if err := d.record(ctx, "Cookie"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.Jar[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (d *Driver) AddCookie(ctx context.Context, c browser.Cookie) error {
	if err := d.record(ctx, "AddCookie"); err != nil {
		return err
	}
	d.mu.Lock()
	d.Jar[c.Name] = c
	d.mu.Unlock()
	return nil
}

func (d *Driver) DeleteCookie(ctx context.Context, name string) error {
	if err := d.record(ctx, "DeleteCookie"); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.Jar, name)
	d.mu.Unlock()
	return nil
}

func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	if err := d.record(ctx, "DeleteAllCookies"); err != nil {
		return err
	}
	d.mu.Lock()
	d.Jar = make(map[string]browser.Cookie)
	d.mu.Unlock()
	return nil
}

func (d *Driver) Quit() error {
	d.mu.Lock()
	d.Calls = append(d.Calls, "Quit")
	delay, block, err := d.QuitDelay, d.QuitBlock, d.QuitErr
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if block != nil {
		<-block
	}

	d.mu.Lock()
	d.quits++
	d.mu.Unlock()
	return err
}

// Launcher is a fake browser.Launcher that hands out Drivers.
type Launcher struct {
	mu sync.Mutex

	// Err, when set, fails every Launch.
	Err error
	// Prepare, when set, is applied to each new Driver before it is returned.
	Prepare func(*Driver)

	Specs   []browser.Spec
	Drivers []*Driver
	Closed  bool
}

func (l *Launcher) Launch(ctx context.Context, spec browser.Spec) (browser.Driver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Err != nil {
		return nil, l.Err
	}
	d := NewDriver(spec.Kind())
	if l.Prepare != nil {
		l.Prepare(d)
	}
	l.Specs = append(l.Specs, spec)
	l.Drivers = append(l.Drivers, d)
	return d, nil
}

func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Closed = true
	return nil
}

// Last returns the most recently launched driver, or nil.
func (l *Launcher) Last() *Driver {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Drivers) == 0 {
		return nil
	}
	return l.Drivers[len(l.Drivers)-1]
}

var (
	_ browser.Driver   = (*Driver)(nil)
	_ browser.Launcher = (*Launcher)(nil)
)
