package meetbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a phase of the join/record/monitor lifecycle. Transitions only
// move forward; StateEnded and StateFailed are terminal.
type State string

const (
	StateInitializing      State = "initializing"
	StateBrowserReady      State = "browser_ready"
	StateNavigating        State = "navigating"
	StateAwaitingAdmission State = "awaiting_admission"
	StateRecording         State = "recording"
	StateEnding            State = "ending"
	StateEnded             State = "ended"
	StateFailed            State = "failed"
)

var stateRank = map[State]int{
	StateInitializing:      0,
	StateBrowserReady:      1,
	StateNavigating:        2,
	StateAwaitingAdmission: 3,
	StateRecording:         4,
	StateEnding:            5,
	StateEnded:             6,
	StateFailed:            6,
}

// Terminal reports whether no further transition is defined from s.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateFailed
}

// AdmissionCheck decides whether the bot has been let into the meeting. A
// false result with a nil error means "not yet"; a non-nil error means the
// driver itself failed and the session cannot continue.
type AdmissionCheck func(d Driver) (bool, error)

// AdmissionBySelectors builds an AdmissionCheck that probes a strategy chain
// of in-meeting indicators. Element-wait timeouts mean "not admitted yet";
// any other driver error is fatal.
func AdmissionBySelectors(chain []Strategy) AdmissionCheck {
	return func(d Driver) (bool, error) {
		for _, strategy := range chain {
			err := d.WaitVisible(strategy.Selector, 5*time.Second)
			if err == nil {
				return true, nil
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			return false, err
		}
		return false, nil
	}
}

// SessionOptions configures one meeting session. Zero values fall back to
// sensible defaults in NewSession.
type SessionOptions struct {
	MeetLink       string
	BotName        string
	MinRecordTime  time.Duration // recording length before a normal end
	MaxWaitingTime time.Duration // admission wait bound before giving up
	AudioUploadURL string        // optional presigned destination
	OutputDir      string
	Headless       bool
	PollInterval   time.Duration

	Selectors      *SelectorSet
	AdmissionCheck AdmissionCheck
	NewDriver      DriverFactory
	NewRecorder    RecorderFactory
}

const (
	navigateAttempts = 3
	joinAttempts     = 3
	elementTimeout   = 5 * time.Second

	defaultMinRecordTime  = time.Hour
	defaultMaxWaitingTime = 30 * time.Minute
	defaultPollInterval   = 5 * time.Second
	defaultOutputDir      = "out"
	defaultBotName        = "Scrum Bot"
)

// Session drives one bot through a meeting: launch browser, navigate, join,
// wait for admission, record, and clean up. A session is owned by the
// adapter that created it and runs to completion on one worker goroutine;
// state reads are safe from other goroutines.
type Session struct {
	ID        string
	opts      SessionOptions
	selectors SelectorSet
	admitted  AdmissionCheck

	driver   Driver
	recorder AudioRecorder

	// pause between retries; shortened by tests
	pause time.Duration

	mu                 sync.Mutex
	state              State
	errMsg             string
	finalized          bool
	joinRequestedAt    time.Time
	admittedAt         time.Time
	recordingStartedAt time.Time
	endedAt            time.Time
	artifactPath       string

	stop     chan struct{}
	stopOnce sync.Once
}

// SessionInfo is a point-in-time snapshot of a session for status surfaces.
type SessionInfo struct {
	ID                 string    `json:"id"`
	MeetLink           string    `json:"meet_link"`
	BotName            string    `json:"bot_name"`
	State              State     `json:"state"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	JoinRequestedAt    time.Time `json:"join_requested_at,omitzero"`
	AdmittedAt         time.Time `json:"admitted_at,omitzero"`
	RecordingStartedAt time.Time `json:"recording_started_at,omitzero"`
	EndedAt            time.Time `json:"ended_at,omitzero"`
	ArtifactPath       string    `json:"artifact_path,omitempty"`
}

// NewSession creates a session with defaults filled in. The session does
// nothing until Run is called.
func NewSession(opts SessionOptions) *Session {
	id := uuid.NewString()

	if opts.BotName == "" {
		opts.BotName = defaultBotName
	}
	if opts.MinRecordTime <= 0 {
		opts.MinRecordTime = defaultMinRecordTime
	}
	if opts.MaxWaitingTime <= 0 {
		opts.MaxWaitingTime = defaultMaxWaitingTime
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaultOutputDir
	}

	selectors := DefaultSelectors()
	if opts.Selectors != nil {
		selectors = *opts.Selectors
	}

	if opts.NewDriver == nil {
		headless := opts.Headless
		opts.NewDriver = func() (Driver, error) {
			return NewChromeDriver(ChromeOptions{
				Headless:    headless,
				UserDataDir: filepath.Join(os.TempDir(), "meetbot-"+id),
			})
		}
	}
	if opts.NewRecorder == nil {
		outputDir := opts.OutputDir
		opts.NewRecorder = func(id string) AudioRecorder {
			return NewFFmpegRecorder(outputDir, id)
		}
	}

	admitted := opts.AdmissionCheck
	if admitted == nil {
		admitted = AdmissionBySelectors(selectors.AdmissionIndicator)
	}

	return &Session{
		ID:        id,
		opts:      opts,
		selectors: selectors,
		admitted:  admitted,
		pause:     3 * time.Second,
		state:     StateInitializing,
		stop:      make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:                 s.ID,
		MeetLink:           s.opts.MeetLink,
		BotName:            s.opts.BotName,
		State:              s.state,
		ErrorMessage:       s.errMsg,
		JoinRequestedAt:    s.joinRequestedAt,
		AdmittedAt:         s.admittedAt,
		RecordingStartedAt: s.recordingStartedAt,
		EndedAt:            s.endedAt,
		ArtifactPath:       s.artifactPath,
	}
}

// Recorded reports whether recording ever started.
func (s *Session) Recorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.recordingStartedAt.IsZero()
}

// RequestStop asks the monitoring loop to end the session at its next
// iteration. It never terminates the worker forcibly; resources are
// released by the finalizer on the worker's own goroutine.
func (s *Session) RequestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// transitionLocked advances the state machine. Terminal states absorb, and
// regressions are refused; StateFailed is reachable from any non-terminal
// state. Caller must hold s.mu.
func (s *Session) transitionLocked(next State) bool {
	if s.state.Terminal() {
		return false
	}
	if next != StateFailed && stateRank[next] < stateRank[s.state] {
		return false
	}
	log.Printf("[SESSION]: %s: %s -> %s", s.ID, s.state, next)
	s.state = next
	return true
}

func (s *Session) transition(next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(next)
}

// fail records the first failure; the finalizer turns it into StateFailed.
func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errMsg == "" {
		s.errMsg = err.Error()
	}
}

// Run executes the full join/record/monitor workflow. The finalizer runs on
// every exit path.
func (s *Session) Run() error {
	defer s.EndSession()

	log.Printf("[SESSION]: %s: starting for %s", s.ID, s.opts.MeetLink)

	if err := s.Start(); err != nil {
		s.fail(err)
		return err
	}
	if err := s.Navigate(); err != nil {
		s.fail(err)
		return err
	}
	if err := s.AttemptJoin(); err != nil {
		s.fail(err)
		return err
	}
	if err := s.monitor(); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

// Start launches the browser driver.
func (s *Session) Start() error {
	driver, err := s.opts.NewDriver()
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	s.driver = driver
	s.transition(StateBrowserReady)
	return nil
}

// Navigate loads the meeting link, countering redirects away from the
// conferencing domain and failing fast on explicit not-found markers.
func (s *Session) Navigate() error {
	s.transition(StateNavigating)

	wantHost := hostOf(s.opts.MeetLink)
	var lastErr error

	for attempt := 1; attempt <= navigateAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(s.pause)
		}

		if err := s.driver.Navigate(s.opts.MeetLink); err != nil {
			lastErr = err
			log.Printf("[SESSION]: %s: navigation attempt %d failed: %v", s.ID, attempt, err)
			continue
		}

		current, err := s.driver.CurrentURL()
		if err != nil {
			lastErr = err
			continue
		}
		if wantHost != "" && hostOf(current) != wantHost {
			lastErr = fmt.Errorf("redirected to %s", current)
			log.Printf("[SESSION]: %s: %v", s.ID, lastErr)
			continue
		}

		if text, err := s.driver.PageText(); err == nil {
			for _, marker := range s.selectors.NotFoundMarkers {
				if containsFold(text, marker) {
					return fmt.Errorf("%w: page shows %q", ErrMeetingNotFound, marker)
				}
			}
		}

		log.Printf("[SESSION]: %s: navigation successful", s.ID)
		return nil
	}

	return fmt.Errorf("%w: %v", ErrNavigation, lastErr)
}

// AttemptJoin prepares the pre-join screen (mute, camera off, display name)
// and clicks the join control. Missing mute/camera/name controls are logged
// and tolerated; a join control that never appears is ErrJoinTimeout.
func (s *Session) AttemptJoin() error {
	if name, ok := s.clickFirst(s.selectors.MuteMicrophone); ok {
		log.Printf("[SESSION]: %s: microphone muted via %s", s.ID, name)
	} else {
		log.Printf("[SESSION]: %s: could not mute microphone, continuing", s.ID)
	}

	if name, ok := s.clickFirst(s.selectors.DisableCamera); ok {
		log.Printf("[SESSION]: %s: camera disabled via %s", s.ID, name)
	} else {
		log.Printf("[SESSION]: %s: could not disable camera, continuing", s.ID)
	}

	entered := false
	for _, strategy := range s.selectors.NameInput {
		if err := s.driver.SendKeys(strategy.Selector, s.opts.BotName, elementTimeout); err == nil {
			log.Printf("[SESSION]: %s: entered display name via %s", s.ID, strategy.Name)
			entered = true
			break
		}
	}
	if !entered {
		log.Printf("[SESSION]: %s: could not enter display name, continuing", s.ID)
	}

	for attempt := 1; attempt <= joinAttempts; attempt++ {
		if name, ok := s.clickFirst(s.selectors.JoinButton); ok {
			log.Printf("[SESSION]: %s: clicked join control %s", s.ID, name)
			s.mu.Lock()
			s.joinRequestedAt = time.Now().UTC()
			s.transitionLocked(StateAwaitingAdmission)
			s.mu.Unlock()
			return nil
		}
		time.Sleep(s.pause)
	}

	return ErrJoinTimeout
}

// clickFirst clicks the first strategy in the chain that matches.
func (s *Session) clickFirst(chain []Strategy) (string, bool) {
	for _, strategy := range chain {
		if err := s.driver.Click(strategy.Selector, elementTimeout); err == nil {
			return strategy.Name, true
		}
	}
	return "", false
}

// PollAdmission runs the admission predicate once.
func (s *Session) PollAdmission() (bool, error) {
	return s.admitted(s.driver)
}

// BeginRecording starts the capture subprocess. Recording only ever begins
// here, after an admission signal has been observed.
func (s *Session) BeginRecording() error {
	recorder := s.opts.NewRecorder(s.ID)
	if err := recorder.Start(); err != nil {
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.recorder = recorder
	s.admittedAt = now
	s.recordingStartedAt = now
	s.artifactPath = recorder.Path()
	s.transitionLocked(StateRecording)
	s.mu.Unlock()

	log.Printf("[SESSION]: %s: admitted, recording started", s.ID)
	return nil
}

// StopRecording stops the capture subprocess if one is running.
func (s *Session) StopRecording() error {
	s.mu.Lock()
	recorder := s.recorder
	s.mu.Unlock()

	if recorder == nil {
		return nil
	}
	return recorder.Stop()
}

// monitor watches the meeting until a bound is hit, a stop is requested, or
// the driver fails. Exceeding the admission wait with no admission is a
// normal outcome, not a failure; once recording runs, only the minimum
// recording bound applies.
func (s *Session) monitor() error {
	waitStart := time.Now()
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			log.Printf("[SESSION]: %s: stop requested", s.ID)
			return nil
		case <-ticker.C:
		}

		s.mu.Lock()
		recordingStart := s.recordingStartedAt
		s.mu.Unlock()

		if !recordingStart.IsZero() {
			if time.Since(recordingStart) >= s.opts.MinRecordTime {
				log.Printf("[SESSION]: %s: minimum recording time reached", s.ID)
				return nil
			}
			continue
		}

		if time.Since(waitStart) >= s.opts.MaxWaitingTime {
			log.Printf("[SESSION]: %s: admission wait of %s exceeded, ending without recording",
				s.ID, s.opts.MaxWaitingTime)
			return nil
		}

		admitted, err := s.PollAdmission()
		if err != nil {
			return fmt.Errorf("driver failure while monitoring: %w", err)
		}
		if admitted {
			if err := s.BeginRecording(); err != nil {
				return err
			}
		}
	}
}

// EndSession finalizes the session exactly once: stop recording if started,
// close the driver, upload the artifact when a destination was supplied,
// and settle on the terminal state.
func (s *Session) EndSession() {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return
	}
	s.finalized = true
	failed := s.errMsg != ""
	recorded := !s.recordingStartedAt.IsZero()
	s.transitionLocked(StateEnding)
	s.mu.Unlock()

	if recorded {
		if err := s.StopRecording(); err != nil {
			log.Printf("[SESSION]: %s: stop recording: %v", s.ID, err)
		}
	}

	if s.driver != nil {
		if err := s.driver.Close(); err != nil {
			log.Printf("[SESSION]: %s: close driver: %v", s.ID, err)
		}
	}

	if recorded && s.opts.AudioUploadURL != "" {
		if err := s.recorder.Upload(s.opts.AudioUploadURL); err != nil {
			log.Printf("[SESSION]: %s: %v", s.ID, err)
		}
	}

	s.mu.Lock()
	s.endedAt = time.Now().UTC()
	if failed {
		s.transitionLocked(StateFailed)
	} else {
		s.transitionLocked(StateEnded)
	}
	s.mu.Unlock()

	log.Printf("[SESSION]: %s: session ended (%s)", s.ID, s.State())
}

func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
