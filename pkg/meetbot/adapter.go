package meetbot

import (
	"log"
	"sync"
)

// External status vocabulary reported to callers of the worker service.
const (
	ExternalInitialized = "initialized"
	ExternalConnecting  = "connecting"
	ExternalConnected   = "connected"
	ExternalCompleted   = "completed"
	ExternalFailed      = "failed"
)

// ExternalStatus maps a session state onto the worker service's status
// vocabulary.
func ExternalStatus(state State) string {
	switch state {
	case StateInitializing, StateBrowserReady:
		return ExternalInitialized
	case StateNavigating, StateAwaitingAdmission:
		return ExternalConnecting
	case StateRecording, StateEnding:
		return ExternalConnected
	case StateEnded:
		return ExternalCompleted
	case StateFailed:
		return ExternalFailed
	default:
		return ExternalInitialized
	}
}

// Adapter bridges a non-blocking caller to long-running meeting sessions.
// It holds a single execution slot: Trigger hands a new session to a
// dedicated goroutine and returns immediately, or fails fast with
// ErrAdapterBusy while a session is in flight. Finished sessions stay
// queryable by id.
type Adapter struct {
	defaults SessionOptions

	slot chan struct{}

	mu       sync.RWMutex
	current  *Session
	sessions map[string]*Session
}

// NewAdapter creates an adapter whose sessions inherit the given defaults.
// Per-trigger options override non-zero fields.
func NewAdapter(defaults SessionOptions) *Adapter {
	return &Adapter{
		defaults: defaults,
		slot:     make(chan struct{}, 1),
		sessions: make(map[string]*Session),
	}
}

// Trigger starts a session on a background worker and returns its id
// immediately. The calling context is never blocked for the duration of
// the meeting.
func (a *Adapter) Trigger(opts SessionOptions) (string, error) {
	select {
	case a.slot <- struct{}{}:
	default:
		return "", ErrAdapterBusy
	}

	session := NewSession(a.merge(opts))

	a.mu.Lock()
	a.current = session
	a.sessions[session.ID] = session
	a.mu.Unlock()

	go func() {
		defer func() { <-a.slot }()
		if err := session.Run(); err != nil {
			log.Printf("[ADAPTER]: session %s failed: %v", session.ID, err)
		}
	}()

	log.Printf("[ADAPTER]: session %s started for %s", session.ID, opts.MeetLink)
	return session.ID, nil
}

// Lookup returns the session with the given id, including finished ones.
func (a *Adapter) Lookup(id string) (*Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	session, ok := a.sessions[id]
	return session, ok
}

// Stop requests a cooperative stop of the in-flight session, if any. The
// session's own worker performs the cleanup.
func (a *Adapter) Stop() {
	a.mu.RLock()
	current := a.current
	a.mu.RUnlock()

	if current != nil && !current.State().Terminal() {
		current.RequestStop()
	}
}

// merge fills zero fields of opts from the adapter defaults.
func (a *Adapter) merge(opts SessionOptions) SessionOptions {
	if opts.BotName == "" {
		opts.BotName = a.defaults.BotName
	}
	if opts.MinRecordTime <= 0 {
		opts.MinRecordTime = a.defaults.MinRecordTime
	}
	if opts.MaxWaitingTime <= 0 {
		opts.MaxWaitingTime = a.defaults.MaxWaitingTime
	}
	if opts.OutputDir == "" {
		opts.OutputDir = a.defaults.OutputDir
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = a.defaults.PollInterval
	}
	if opts.Selectors == nil {
		opts.Selectors = a.defaults.Selectors
	}
	if opts.AdmissionCheck == nil {
		opts.AdmissionCheck = a.defaults.AdmissionCheck
	}
	if opts.NewDriver == nil {
		opts.NewDriver = a.defaults.NewDriver
	}
	if opts.NewRecorder == nil {
		opts.NewRecorder = a.defaults.NewRecorder
	}
	opts.Headless = opts.Headless || a.defaults.Headless
	return opts
}
