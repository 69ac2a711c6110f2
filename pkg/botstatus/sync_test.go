package botstatus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves scripted external statuses keyed by bot id.
type fakeFetcher struct {
	mu       sync.Mutex
	statuses map[string]string
	errs     map[string]error
	calls    []string
}

func (f *fakeFetcher) GetBotStatus(ctx context.Context, botID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, botID)
	if err := f.errs[botID]; err != nil {
		return "", err
	}
	return f.statuses[botID], nil
}

func TestMapExternalStatus(t *testing.T) {
	tests := []struct {
		external string
		expected Status
		ok       bool
	}{
		{"initialized", StatusStarting, true},
		{"connecting", StatusStarting, true},
		{"starting", StatusStarting, true},
		{"connected", StatusRunning, true},
		{"recording", StatusRunning, true},
		{"completed", StatusTranscribing, true},
		{"failed", StatusError, true},
		{"error", StatusError, true},
		{"  Connected  ", StatusRunning, true},
		{"COMPLETED", StatusTranscribing, true},
		{"something-new", "", false},
		{"", "", false},
	}

	for _, test := range tests {
		mapped, ok := MapExternalStatus(test.external)
		assert.Equal(t, test.ok, ok, "external %q", test.external)
		assert.Equal(t, test.expected, mapped, "external %q", test.external)
	}
}

func TestSyncOnce(t *testing.T) {
	t.Run("advances records from the external view", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusStarting)
		registry.Create("bot-2", "user-1", StatusRunning)

		fetcher := &fakeFetcher{statuses: map[string]string{
			"bot-1": "connected",
			"bot-2": "completed",
		}}

		worker := NewSyncWorker(registry, fetcher)
		worker.syncOnce(context.Background())

		record, _ := registry.Get("bot-1")
		assert.Equal(t, StatusRunning, record.Status)
		record, _ = registry.Get("bot-2")
		assert.Equal(t, StatusTranscribing, record.Status)
	})

	t.Run("skips terminal records", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("done", "user-1", StatusDone)

		fetcher := &fakeFetcher{statuses: map[string]string{"done": "failed"}}
		worker := NewSyncWorker(registry, fetcher)
		worker.syncOnce(context.Background())

		assert.Empty(t, fetcher.calls)
		record, _ := registry.Get("done")
		assert.Equal(t, StatusDone, record.Status)
	})

	t.Run("lookup failure leaves record untouched", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusRunning)

		fetcher := &fakeFetcher{errs: map[string]error{"bot-1": errors.New("worker unreachable")}}
		worker := NewSyncWorker(registry, fetcher)
		worker.syncOnce(context.Background())

		record, _ := registry.Get("bot-1")
		assert.Equal(t, StatusRunning, record.Status)
	})

	t.Run("unknown external status means no change", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusRunning)

		fetcher := &fakeFetcher{statuses: map[string]string{"bot-1": "rebooting"}}
		worker := NewSyncWorker(registry, fetcher)
		worker.syncOnce(context.Background())

		record, _ := registry.Get("bot-1")
		assert.Equal(t, StatusRunning, record.Status)
	})

	t.Run("never moves a record backwards", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusTranscribing)

		// Worker still reports the meeting in progress
		fetcher := &fakeFetcher{statuses: map[string]string{"bot-1": "connected"}}
		worker := NewSyncWorker(registry, fetcher)
		worker.syncOnce(context.Background())

		record, ok := registry.Get("bot-1")
		require.True(t, ok)
		assert.Equal(t, StatusTranscribing, record.Status)
	})
}

func TestSyncWorkerStartStop(t *testing.T) {
	registry := NewRegistry()
	worker := NewSyncWorker(registry, &fakeFetcher{})

	worker.Start()
	worker.Start() // second start is a no-op
	worker.Stop()
	worker.Stop() // second stop is a no-op
}
