package botstatus

import (
	"context"
	"log"
	"strings"
	"time"
)

const defaultSyncInterval = 3 * time.Second

// StatusFetcher looks up a bot's status at the external automation worker.
type StatusFetcher interface {
	GetBotStatus(ctx context.Context, botID string) (string, error)
}

// MapExternalStatus maps the automation worker's status vocabulary onto the
// local enum. The mapping is total: unrecognized values return ok=false,
// which the sync worker treats as "no change".
func MapExternalStatus(external string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "initialized", "connecting", "starting":
		return StatusStarting, true
	case "connected", "recording":
		return StatusRunning, true
	case "completed":
		return StatusTranscribing, true
	case "failed", "error":
		return StatusError, true
	default:
		return "", false
	}
}

// SyncWorker periodically reconciles non-terminal registry records against
// the external automation worker. It is an eventually-converging mirror:
// per-entry lookup failures are logged and skipped, with no retries inside
// a cycle and no propagation to callers.
type SyncWorker struct {
	registry *Registry
	fetcher  StatusFetcher
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncWorker creates a sync worker over the given registry and fetcher.
func NewSyncWorker(registry *Registry, fetcher StatusFetcher) *SyncWorker {
	return &SyncWorker{
		registry: registry,
		fetcher:  fetcher,
		interval: defaultSyncInterval,
	}
}

// Start launches the sync loop.
func (w *SyncWorker) Start() {
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go w.loop(ctx)
	log.Print("[SYNC]: status sync worker started")
}

// Stop cancels the sync loop and waits for it to finish.
func (w *SyncWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	log.Print("[SYNC]: status sync worker stopped")
}

func (w *SyncWorker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.syncOnce(ctx)
		}
	}
}

// syncOnce reconciles every non-terminal record once.
func (w *SyncWorker) syncOnce(ctx context.Context) {
	for _, botID := range w.registry.ActiveIDs() {
		record, ok := w.registry.Get(botID)
		if !ok || record.Status.Terminal() {
			continue
		}

		external, err := w.fetcher.GetBotStatus(ctx, botID)
		if err != nil {
			log.Printf("[SYNC]: lookup failed for %s: %v", botID, err)
			continue
		}

		mapped, ok := MapExternalStatus(external)
		if !ok || mapped == record.Status {
			continue
		}

		if _, ok := w.registry.Update(botID, mapped, UpdateOptions{}); ok {
			log.Printf("[SYNC]: %s: %s -> %s", botID, record.Status, mapped)
		}
	}
}
