package meetbot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver is a scriptable Driver for exercising the session machine
// without a browser.
type fakeDriver struct {
	mu sync.Mutex

	currentURL  string
	redirectTo  string
	pageText    string
	navigateErr error
	allVisible  bool

	clicks []string
	closed int
}

func (d *fakeDriver) Navigate(url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.navigateErr != nil {
		return d.navigateErr
	}
	if d.redirectTo != "" {
		d.currentURL = d.redirectTo
	} else {
		d.currentURL = url
	}
	return nil
}

func (d *fakeDriver) CurrentURL() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentURL, nil
}

func (d *fakeDriver) WaitVisible(selector string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.allVisible {
		return nil
	}
	return context.DeadlineExceeded
}

func (d *fakeDriver) Click(selector string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.allVisible {
		return context.DeadlineExceeded
	}
	d.clicks = append(d.clicks, selector)
	return nil
}

func (d *fakeDriver) SendKeys(selector, text string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.allVisible {
		return context.DeadlineExceeded
	}
	return nil
}

func (d *fakeDriver) PageText() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pageText, nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

// fakeRecorder stands in for the ffmpeg subprocess.
type fakeRecorder struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	uploads  []string
	startErr error
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.started = true
	return nil
}

func (r *fakeRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func (r *fakeRecorder) Path() string { return "out/fake.opus" }

func (r *fakeRecorder) Upload(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, url)
	return nil
}

// admissionFlag is an AdmissionCheck toggled from the test.
type admissionFlag struct {
	mu       sync.Mutex
	admitted bool
	err      error
}

func (f *admissionFlag) set(admitted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.admitted = admitted
}

func (f *admissionFlag) check(Driver) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.admitted, f.err
}

func newTestSession(d *fakeDriver, r *fakeRecorder, flag *admissionFlag, mutate func(*SessionOptions)) *Session {
	opts := SessionOptions{
		MeetLink:       "https://meet.google.com/abc-defg-hij",
		BotName:        "Test Bot",
		MinRecordTime:  30 * time.Millisecond,
		MaxWaitingTime: 60 * time.Millisecond,
		PollInterval:   2 * time.Millisecond,
		AdmissionCheck: flag.check,
		NewDriver:      func() (Driver, error) { return d, nil },
		NewRecorder:    func(string) AudioRecorder { return r },
	}
	if mutate != nil {
		mutate(&opts)
	}

	session := NewSession(opts)
	session.pause = time.Millisecond
	return session
}

func TestSessionHappyPath(t *testing.T) {
	driver := &fakeDriver{allVisible: true}
	recorder := &fakeRecorder{}
	flag := &admissionFlag{admitted: true}

	session := newTestSession(driver, recorder, flag, nil)
	require.NoError(t, session.Run())

	info := session.Info()
	assert.Equal(t, StateEnded, info.State)
	assert.Empty(t, info.ErrorMessage)
	assert.False(t, info.JoinRequestedAt.IsZero())
	assert.False(t, info.AdmittedAt.IsZero())
	assert.False(t, info.RecordingStartedAt.IsZero())
	assert.False(t, info.EndedAt.IsZero())
	assert.Equal(t, "out/fake.opus", info.ArtifactPath)

	assert.True(t, recorder.started)
	assert.True(t, recorder.stopped)
	assert.Equal(t, 1, driver.closed)
}

func TestSessionRecordsOnlyAfterAdmission(t *testing.T) {
	driver := &fakeDriver{allVisible: true}
	recorder := &fakeRecorder{}
	flag := &admissionFlag{}

	session := newTestSession(driver, recorder, flag, func(opts *SessionOptions) {
		opts.MaxWaitingTime = time.Second
	})

	done := make(chan error, 1)
	go func() { done <- session.Run() }()

	// Let the monitor poll a few times while admission is denied
	time.Sleep(20 * time.Millisecond)
	assert.False(t, session.Recorded())
	assert.Equal(t, StateAwaitingAdmission, session.State())

	flag.set(true)
	require.NoError(t, <-done)

	assert.True(t, session.Recorded())
	assert.Equal(t, StateEnded, session.State())
}

func TestSessionAdmissionTimeoutIsNormalEnd(t *testing.T) {
	driver := &fakeDriver{allVisible: true}
	recorder := &fakeRecorder{}
	flag := &admissionFlag{} // never admitted

	session := newTestSession(driver, recorder, flag, nil)
	require.NoError(t, session.Run())

	info := session.Info()
	assert.Equal(t, StateEnded, info.State)
	assert.Empty(t, info.ErrorMessage)
	assert.Empty(t, info.ArtifactPath)
	assert.False(t, recorder.started)
	assert.Equal(t, 1, driver.closed)
}

func TestSessionNavigationRedirectFails(t *testing.T) {
	driver := &fakeDriver{
		allVisible: true,
		redirectTo: "https://accounts.google.com/signin",
	}

	session := newTestSession(driver, &fakeRecorder{}, &admissionFlag{}, nil)
	err := session.Run()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNavigation)
	assert.Equal(t, StateFailed, session.State())
	assert.NotEmpty(t, session.Info().ErrorMessage)
	assert.Equal(t, 1, driver.closed)
}

func TestSessionMeetingNotFound(t *testing.T) {
	driver := &fakeDriver{
		allVisible: true,
		pageText:   "Oops. Check your meeting code and try again.",
	}

	session := newTestSession(driver, &fakeRecorder{}, &admissionFlag{}, nil)
	err := session.Run()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMeetingNotFound)
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionJoinTimeout(t *testing.T) {
	// No element is ever clickable, so the join control never appears.
	driver := &fakeDriver{}

	session := newTestSession(driver, &fakeRecorder{}, &admissionFlag{}, nil)
	err := session.Run()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJoinTimeout)
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionDriverFailureWhileMonitoring(t *testing.T) {
	driver := &fakeDriver{allVisible: true}
	flag := &admissionFlag{err: errors.New("browser crashed")}

	session := newTestSession(driver, &fakeRecorder{}, flag, nil)
	err := session.Run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser crashed")
	assert.Equal(t, StateFailed, session.State())
	assert.Equal(t, 1, driver.closed)
}

func TestSessionRequestStop(t *testing.T) {
	driver := &fakeDriver{allVisible: true}
	recorder := &fakeRecorder{}
	flag := &admissionFlag{admitted: true}

	session := newTestSession(driver, recorder, flag, func(opts *SessionOptions) {
		opts.MinRecordTime = time.Hour
	})

	done := make(chan error, 1)
	go func() { done <- session.Run() }()

	time.Sleep(20 * time.Millisecond)
	session.RequestStop()
	session.RequestStop() // second request is a no-op

	require.NoError(t, <-done)
	assert.Equal(t, StateEnded, session.State())
	assert.True(t, recorder.stopped)
}

func TestSessionFinalizerIsIdempotent(t *testing.T) {
	driver := &fakeDriver{allVisible: true}
	flag := &admissionFlag{admitted: true}

	session := newTestSession(driver, &fakeRecorder{}, flag, nil)
	require.NoError(t, session.Run())

	// Re-running the finalizer must not touch the driver again
	session.EndSession()
	session.EndSession()
	assert.Equal(t, 1, driver.closed)
}

func TestSessionTerminalStatesAbsorb(t *testing.T) {
	session := newTestSession(&fakeDriver{allVisible: true}, &fakeRecorder{}, &admissionFlag{admitted: true}, nil)
	require.NoError(t, session.Run())
	require.Equal(t, StateEnded, session.State())

	assert.False(t, session.transition(StateRecording))
	assert.False(t, session.transition(StateFailed))
	assert.Equal(t, StateEnded, session.State())
}

func TestSessionTransitionRefusesRegression(t *testing.T) {
	session := NewSession(SessionOptions{MeetLink: "https://meet.google.com/abc-defg-hij"})

	require.True(t, session.transition(StateBrowserReady))
	require.True(t, session.transition(StateNavigating))
	assert.False(t, session.transition(StateBrowserReady))
	assert.Equal(t, StateNavigating, session.State())

	// Failure is reachable from any non-terminal state
	assert.True(t, session.transition(StateFailed))
	assert.Equal(t, StateFailed, session.State())
}

func TestSessionUploadsWhenDestinationSet(t *testing.T) {
	recorder := &fakeRecorder{}
	flag := &admissionFlag{admitted: true}

	session := newTestSession(&fakeDriver{allVisible: true}, recorder, flag, func(opts *SessionOptions) {
		opts.AudioUploadURL = "https://storage.example.com/audio?sig=abc"
	})
	require.NoError(t, session.Run())

	require.Len(t, recorder.uploads, 1)
	assert.Equal(t, "https://storage.example.com/audio?sig=abc", recorder.uploads[0])
}

func TestSessionNoUploadWithoutRecording(t *testing.T) {
	recorder := &fakeRecorder{}

	session := newTestSession(&fakeDriver{allVisible: true}, recorder, &admissionFlag{}, func(opts *SessionOptions) {
		opts.AudioUploadURL = "https://storage.example.com/audio?sig=abc"
	})
	require.NoError(t, session.Run())

	assert.Empty(t, recorder.uploads)
}

func TestAdmissionBySelectors(t *testing.T) {
	chain := DefaultSelectors().AdmissionIndicator

	t.Run("admitted when an indicator is visible", func(t *testing.T) {
		admitted, err := AdmissionBySelectors(chain)(&fakeDriver{allVisible: true})
		require.NoError(t, err)
		assert.True(t, admitted)
	})

	t.Run("not yet when every indicator times out", func(t *testing.T) {
		admitted, err := AdmissionBySelectors(chain)(&fakeDriver{})
		require.NoError(t, err)
		assert.False(t, admitted)
	})
}
