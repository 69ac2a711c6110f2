package meetbot

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// ChromeOptions configures a Chrome-backed driver.
type ChromeOptions struct {
	Headless    bool
	UserDataDir string
	UserAgent   string

	// NavigationTimeout bounds Navigate calls. Zero means 30s.
	NavigationTimeout time.Duration
}

// ChromeDriver implements Driver on top of chromedp. One driver owns one
// browser process; it is not safe for concurrent use, matching the
// one-session-per-adapter model.
type ChromeDriver struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	navTimeout    time.Duration
	closed        bool
}

// NewChromeDriver launches a Chrome instance configured for unattended
// meeting attendance: fake media streams instead of real devices, no
// sandbox, and automation-control features disabled so the conferencing
// page behaves as it would for a regular visitor.
func NewChromeDriver(opts ChromeOptions) (*ChromeDriver, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
		chromedp.Flag("use-fake-device-for-media-stream", true),
		chromedp.NoSandbox,
		chromedp.UserAgent(userAgent),
	)
	if opts.UserDataDir != "" {
		flags = append(flags, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), flags...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser to actually start so launch
	// failures surface here instead of on the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}

	return &ChromeDriver{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		navTimeout:    navTimeout,
	}, nil
}

// run executes chromedp actions with an optional per-call timeout.
func (d *ChromeDriver) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := d.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(d.ctx, timeout)
		defer cancel()
	}
	return chromedp.Run(ctx, actions...)
}

func (d *ChromeDriver) Navigate(url string) error {
	return d.run(d.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *ChromeDriver) CurrentURL() (string, error) {
	var url string
	err := d.run(5*time.Second, chromedp.Location(&url))
	return url, err
}

func (d *ChromeDriver) WaitVisible(selector string, timeout time.Duration) error {
	return d.run(timeout, chromedp.WaitVisible(selector, chromedp.BySearch))
}

func (d *ChromeDriver) Click(selector string, timeout time.Duration) error {
	return d.run(timeout, chromedp.Click(selector, chromedp.BySearch))
}

func (d *ChromeDriver) SendKeys(selector, text string, timeout time.Duration) error {
	return d.run(timeout,
		chromedp.Clear(selector, chromedp.BySearch),
		chromedp.SendKeys(selector, text, chromedp.BySearch),
	)
}

func (d *ChromeDriver) PageText() (string, error) {
	var text string
	err := d.run(10*time.Second, chromedp.Text("body", &text, chromedp.ByQuery))
	return text, err
}

func (d *ChromeDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	err := chromedp.Cancel(d.ctx)
	d.cancelBrowser()
	d.cancelAlloc()
	return err
}
