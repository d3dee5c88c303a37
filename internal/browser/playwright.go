package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PlaywrightLauncher starts browsers through playwright-go. The playwright
// driver process is installed and started lazily on the first Launch and
// shared by every browser it starts.
type PlaywrightLauncher struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	closed  bool
	install bool
	logger  *zap.Logger
}

// ErrLauncherClosed is returned by Launch after Close.
var ErrLauncherClosed = errors.New("browser launcher is closed")

// NewPlaywrightLauncher returns a launcher. When install is true the
// playwright driver and browsers are downloaded if missing before the
// first launch.
func NewPlaywrightLauncher(install bool, logger *zap.Logger) *PlaywrightLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaywrightLauncher{install: install, logger: logger}
}

func (l *PlaywrightLauncher) runtime() (*playwright.Playwright, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLauncherClosed
	}
	if l.pw != nil {
		return l.pw, nil
	}

	// stdout carries the MCP protocol, keep the driver quiet.
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if l.install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	l.pw = pw
	l.logger.Debug("playwright runtime started")
	return pw, nil
}

// Launch starts one browser for spec and opens a single page in a fresh context.
func (l *PlaywrightLauncher) Launch(ctx context.Context, spec Spec) (Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine, opts, err := launchOptions(spec)
	if err != nil {
		return nil, err
	}

	pw, err := l.runtime()
	if err != nil {
		return nil, err
	}

	var bt playwright.BrowserType
	switch engine {
	case engineChromium:
		bt = pw.Chromium
	case engineFirefox:
		bt = pw.Firefox
	case engineWebKit:
		bt = pw.WebKit
	}

	b, err := bt.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", spec.Kind(), err)
	}

	bctx, err := b.NewContext()
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	l.logger.Info("browser launched",
		zap.String("kind", string(spec.Kind())),
		zap.String("engine", engine),
		zap.Bool("headless", opts.Headless != nil && *opts.Headless))

	return &playwrightDriver{browser: b, context: bctx, page: page, frame: page.MainFrame()}, nil
}

// Close stops the shared playwright runtime. Browsers still open are
// terminated with it, and later launches fail with ErrLauncherClosed.
func (l *PlaywrightLauncher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

const (
	engineChromium = "chromium"
	engineFirefox  = "firefox"
	engineWebKit   = "webkit"
)

// launchOptions is the per-kind option builder. Headless switches passed as
// raw arguments ("--headless", "--headless=new") are folded into the
// Headless flag since playwright manages that switch itself.
func launchOptions(spec Spec) (string, playwright.BrowserTypeLaunchOptions, error) {
	base := SpecOptions(spec)
	headless := base.Headless
	var args []string
	for _, a := range base.Arguments {
		if a == "--headless" || strings.HasPrefix(a, "--headless=") || a == "-headless" {
			headless = true
			continue
		}
		args = append(args, a)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args:     args,
	}

	switch s := spec.(type) {
	case ChromeSpec:
		if s.Channel != "" {
			opts.Channel = playwright.String(s.Channel)
		}
		return engineChromium, opts, nil
	case EdgeSpec:
		opts.Channel = playwright.String("msedge")
		return engineChromium, opts, nil
	case FirefoxSpec:
		if len(s.Prefs) > 0 {
			opts.FirefoxUserPrefs = s.Prefs
		}
		return engineFirefox, opts, nil
	case SafariSpec:
		return engineWebKit, opts, nil
	default:
		return "", opts, fmt.Errorf("%w: %T", ErrUnsupportedBrowser, spec)
	}
}

type playwrightDriver struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	mu    sync.Mutex
	frame playwright.Frame
}

func (d *playwrightDriver) currentFrame() playwright.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frame
}

func (d *playwrightDriver) setFrame(f playwright.Frame) {
	d.mu.Lock()
	d.frame = f
	d.mu.Unlock()
}

// locate resolves loc within the current frame and waits for it to attach.
func (d *playwrightDriver) locate(ctx context.Context, loc Locator) (playwright.Locator, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := loc.Selector()
	if err != nil {
		return nil, err
	}
	l := d.currentFrame().Locator(sel).First()
	err = l.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(loc.TimeoutMillis()),
	})
	if err != nil {
		return nil, fmt.Errorf("element %s not found: %w", loc, err)
	}
	return l, nil
}

func (d *playwrightDriver) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.page.Goto(rawURL); err != nil {
		return err
	}
	d.setFrame(d.page.MainFrame())
	return nil
}

func (d *playwrightDriver) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.GoBack()
	d.setFrame(d.page.MainFrame())
	return err
}

func (d *playwrightDriver) Forward(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.GoForward()
	d.setFrame(d.page.MainFrame())
	return err
}

func (d *playwrightDriver) Resize(ctx context.Context, width, height int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.SetViewportSize(width, height)
}

func (d *playwrightDriver) CurrentURL() string {
	return d.page.URL()
}

func (d *playwrightDriver) FindElement(ctx context.Context, loc Locator) error {
	_, err := d.locate(ctx, loc)
	return err
}

func (d *playwrightDriver) Click(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

// Type replaces the element's value with text.
func (d *playwrightDriver) Type(ctx context.Context, loc Locator, text string) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Fill(text, playwright.LocatorFillOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) Clear(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Clear(playwright.LocatorClearOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) Text(ctx context.Context, loc Locator) (string, error) {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return "", err
	}
	return l.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

// Attribute reports ok=false when the attribute is absent.
func (d *playwrightDriver) Attribute(ctx context.Context, loc Locator, name string) (string, bool, error) {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return "", false, err
	}
	v, err := l.Evaluate("(el, name) => el.getAttribute(name)", name,
		playwright.LocatorEvaluateOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
	if err != nil {
		return "", false, err
	}
	s, ok := v.(string)
	return s, ok, nil
}

// IsDisplayed reports false rather than an error when the element never appears.
func (d *playwrightDriver) IsDisplayed(ctx context.Context, loc Locator) (bool, error) {
	l, err := d.locate(ctx, loc)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return l.IsVisible()
}

func (d *playwrightDriver) SwitchToFrame(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	h, err := l.ElementHandle(playwright.LocatorElementHandleOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
	if err != nil {
		return err
	}
	f, err := h.ContentFrame()
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("element %s is not a frame", loc)
	}
	d.setFrame(f)
	return nil
}

func (d *playwrightDriver) SwitchToDefault(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.setFrame(d.page.MainFrame())
	return nil
}

func (d *playwrightDriver) UploadFile(ctx context.Context, loc Locator, path string) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.SetInputFiles(path, playwright.LocatorSetInputFilesOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) Hover(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Hover(playwright.LocatorHoverOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) WaitFor(ctx context.Context, loc Locator) error {
	_, err := d.locate(ctx, loc)
	return err
}

func (d *playwrightDriver) DragAndDrop(ctx context.Context, source, target Locator) error {
	src, err := d.locate(ctx, source)
	if err != nil {
		return err
	}
	dst, err := d.locate(ctx, target)
	if err != nil {
		return err
	}
	return src.DragTo(dst, playwright.LocatorDragToOptions{Timeout: playwright.Float(source.TimeoutMillis())})
}

func (d *playwrightDriver) DoubleClick(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Dblclick(playwright.LocatorDblclickOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) RightClick(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Click(playwright.LocatorClickOptions{
		Button:  playwright.MouseButtonRight,
		Timeout: playwright.Float(loc.TimeoutMillis()),
	})
}

func (d *playwrightDriver) SelectByText(ctx context.Context, loc Locator, text string) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	_, err = l.SelectOption(playwright.SelectOptionValues{Labels: &[]string{text}},
		playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
	return err
}

func (d *playwrightDriver) SelectByValue(ctx context.Context, loc Locator, value string) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	_, err = l.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}},
		playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
	return err
}

func (d *playwrightDriver) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.Keyboard().Press(key)
}

// ExecuteScript runs script as a function body in the current frame, so a
// "return" statement yields the result.
func (d *playwrightDriver) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.currentFrame().Evaluate("() => {\n" + script + "\n}")
}

func (d *playwrightDriver) ScrollToElement(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) evaluate(ctx context.Context, expr string, arg ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.currentFrame().Evaluate(expr, arg...)
	return err
}

func (d *playwrightDriver) ScrollToTop(ctx context.Context) error {
	return d.evaluate(ctx, "() => window.scrollTo(0, 0)")
}

func (d *playwrightDriver) ScrollToBottom(ctx context.Context) error {
	return d.evaluate(ctx, "() => window.scrollTo(0, document.body.scrollHeight)")
}

func (d *playwrightDriver) ScrollTo(ctx context.Context, x, y float64) error {
	return d.evaluate(ctx, "([x, y]) => window.scrollTo(x, y)", []float64{x, y})
}

func (d *playwrightDriver) ScrollBy(ctx context.Context, x, y float64) error {
	return d.evaluate(ctx, "([x, y]) => window.scrollBy(x, y)", []float64{x, y})
}

func (d *playwrightDriver) SetChecked(ctx context.Context, loc Locator, checked bool) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.SetChecked(checked, playwright.LocatorSetCheckedOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

const submitFormScript = `el => {
	const form = el.tagName === 'FORM' ? el : el.form;
	if (!form) throw new Error('element is not inside a form');
	if (form.requestSubmit) form.requestSubmit(); else form.submit();
}`

func (d *playwrightDriver) SubmitForm(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	_, err = l.Evaluate(submitFormScript, nil, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
	return err
}

func (d *playwrightDriver) Focus(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Focus(playwright.LocatorFocusOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) Blur(ctx context.Context, loc Locator) error {
	l, err := d.locate(ctx, loc)
	if err != nil {
		return err
	}
	return l.Blur(playwright.LocatorBlurOptions{Timeout: playwright.Float(loc.TimeoutMillis())})
}

func (d *playwrightDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.page.Screenshot()
}

// cookieScope returns the page URL when it can scope a cookie query.
func (d *playwrightDriver) cookieScope() (string, bool) {
	u, err := url.Parse(d.page.URL())
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}

func (d *playwrightDriver) Cookies(ctx context.Context) ([]Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Without an http(s) page there is nothing to scope to; list everything.
	var urls []string
	if _, ok := d.cookieScope(); ok {
		urls = append(urls, d.page.URL())
	}
	raw, err := d.context.Cookies(urls...)
	if err != nil {
		return nil, err
	}
	out := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, fromPlaywrightCookie(c))
	}
	return out, nil
}

func (d *playwrightDriver) Cookie(ctx context.Context, name string) (*Cookie, error) {
	all, err := d.Cookies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}
	return nil, nil
}

// AddCookie scopes a cookie without a domain to the current page, the way
// a WebDriver session does.
func (d *playwrightDriver) AddCookie(ctx context.Context, c Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	oc := playwright.OptionalCookie{Name: c.Name, Value: c.Value}
	if c.Domain == "" {
		origin, ok := d.cookieScope()
		if !ok {
			return fmt.Errorf("cannot add cookie %q: page %q has no http(s) origin", c.Name, d.page.URL())
		}
		oc.URL = playwright.String(origin + c.Path)
	} else {
		oc.Domain = playwright.String(c.Domain)
		path := c.Path
		if path == "" {
			path = "/"
		}
		oc.Path = playwright.String(path)
	}
	if !c.Expires.IsZero() {
		oc.Expires = playwright.Float(float64(c.Expires.Unix()))
	}
	if c.Secure {
		oc.Secure = playwright.Bool(true)
	}
	if c.HTTPOnly {
		oc.HttpOnly = playwright.Bool(true)
	}
	return d.context.AddCookies([]playwright.OptionalCookie{oc})
}

func (d *playwrightDriver) DeleteCookie(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.context.ClearCookies(playwright.BrowserContextClearCookiesOptions{Name: name})
}

func (d *playwrightDriver) DeleteAllCookies(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.context.ClearCookies()
}

func (d *playwrightDriver) Quit() error {
	var errs []error
	if err := d.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := d.browser.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func fromPlaywrightCookie(c playwright.Cookie) Cookie {
	out := Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
	}
	// playwright reports -1 for session cookies
	if c.Expires > 0 {
		out.Expires = time.Unix(int64(c.Expires), 0)
	}
	return out
}
