package botstatus

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	defaultRetention     = 24 * time.Hour
	defaultSweepInterval = time.Hour
)

// Registry is a concurrency-safe in-memory map of bot id to lifecycle
// record. One coarse mutex guards all operations; every critical section is
// an O(1) map access, so the lock is shared safely between request handlers
// and background workers. A periodic sweep purges records whose last update
// is older than the retention horizon.
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record

	retention     time.Duration
	sweepInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRegistry creates a registry with the default 24h retention horizon and
// hourly sweep.
func NewRegistry() *Registry {
	return &Registry{
		records:       make(map[string]*Record),
		retention:     defaultRetention,
		sweepInterval: defaultSweepInterval,
	}
}

// Start launches the retention sweep.
func (r *Registry) Start() {
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.sweepLoop(ctx)
	log.Print("[REGISTRY]: retention sweep started")
}

// Stop cancels the retention sweep and waits for it to finish.
func (r *Registry) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	log.Print("[REGISTRY]: retention sweep stopped")
}

func (r *Registry) sweepLoop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(time.Now().UTC())
		}
	}
}

// sweepOnce removes records last updated before now minus the retention
// horizon.
func (r *Registry) sweepOnce(now time.Time) {
	cutoff := now.Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	for botID, record := range r.records {
		if record.UpdatedAt.Before(cutoff) {
			delete(r.records, botID)
			log.Printf("[REGISTRY]: swept stale record %s", botID)
		}
	}
}

// Create registers a new record for botID owned by userID.
func (r *Registry) Create(botID, userID string, status Status) Record {
	now := time.Now().UTC()
	record := &Record{
		BotID:     botID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.records[botID] = record
	r.mu.Unlock()

	log.Printf("[REGISTRY]: created %s with status %s", botID, status)
	return *record
}

// Get returns a snapshot of the record for botID.
func (r *Registry) Get(botID string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[botID]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// UpdateOptions carries the optional fields of an update.
type UpdateOptions struct {
	ErrorMessage string
	SessionID    string
	ResultData   map[string]any
}

// Update advances a record's status and stamps the update time. Backward
// transitions are refused and leave the record untouched; StatusError is
// accepted from any non-terminal state. Returns the resulting snapshot.
func (r *Registry) Update(botID string, status Status, opts UpdateOptions) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[botID]
	if !ok {
		return Record{}, false
	}
	if !record.Status.canAdvance(status) {
		return *record, true
	}

	record.Status = status
	record.UpdatedAt = time.Now().UTC()
	if opts.ErrorMessage != "" {
		record.ErrorMessage = opts.ErrorMessage
	}
	if opts.SessionID != "" {
		record.SessionID = opts.SessionID
	}
	if opts.ResultData != nil {
		record.ResultData = opts.ResultData
	}

	log.Printf("[REGISTRY]: updated %s to %s", botID, status)
	return *record, true
}

// Delete removes the record for botID.
func (r *Registry) Delete(botID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[botID]; !ok {
		return false
	}
	delete(r.records, botID)
	log.Printf("[REGISTRY]: deleted %s", botID)
	return true
}

// ActiveIDs returns the ids of records not yet in a terminal status.
func (r *Registry) ActiveIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.records))
	for botID, record := range r.records {
		if !record.Status.Terminal() {
			ids = append(ids, botID)
		}
	}
	return ids
}
