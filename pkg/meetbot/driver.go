package meetbot

import "time"

// Driver is the capability surface the session machine needs from a browser
// automation backend. Selectors are XPath expressions. Implementations must
// be safe to Close more than once.
type Driver interface {
	// Navigate loads the given URL and waits for the document to be ready.
	Navigate(url string) error

	// CurrentURL reports the URL the browser actually landed on.
	CurrentURL() (string, error)

	// WaitVisible blocks until the element is visible or the timeout
	// elapses.
	WaitVisible(selector string, timeout time.Duration) error

	// Click waits for the element and clicks it.
	Click(selector string, timeout time.Duration) error

	// SendKeys waits for the element and types text into it.
	SendKeys(selector, text string, timeout time.Duration) error

	// PageText returns the visible text of the current page.
	PageText() (string, error)

	// Close releases the browser and all associated resources.
	Close() error
}

// DriverFactory creates a fresh driver for one session.
type DriverFactory func() (Driver, error)
