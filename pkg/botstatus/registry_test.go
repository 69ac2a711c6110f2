package botstatus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateAndGet(t *testing.T) {
	registry := NewRegistry()

	created := registry.Create("bot-1", "user-1", StatusStarting)
	assert.Equal(t, "bot-1", created.BotID)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, StatusStarting, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	record, ok := registry.Get("bot-1")
	require.True(t, ok)
	assert.Equal(t, created, record)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistryUpdate(t *testing.T) {
	t.Run("forward transition", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusStarting)

		record, ok := registry.Update("bot-1", StatusRunning, UpdateOptions{})
		require.True(t, ok)
		assert.Equal(t, StatusRunning, record.Status)
	})

	t.Run("backward transition is refused", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusTranscribing)

		record, ok := registry.Update("bot-1", StatusRunning, UpdateOptions{})
		require.True(t, ok)
		assert.Equal(t, StatusTranscribing, record.Status)
	})

	t.Run("error from any non-terminal state", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusAnalyzing)

		record, ok := registry.Update("bot-1", StatusError, UpdateOptions{ErrorMessage: "pipeline broke"})
		require.True(t, ok)
		assert.Equal(t, StatusError, record.Status)
		assert.Equal(t, "pipeline broke", record.ErrorMessage)
	})

	t.Run("terminal states absorb", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusDone)

		record, ok := registry.Update("bot-1", StatusError, UpdateOptions{})
		require.True(t, ok)
		assert.Equal(t, StatusDone, record.Status)
	})

	t.Run("result data attached on completion", func(t *testing.T) {
		registry := NewRegistry()
		registry.Create("bot-1", "user-1", StatusCreatingTasks)

		record, ok := registry.Update("bot-1", StatusDone, UpdateOptions{
			SessionID:  "session-9",
			ResultData: map[string]any{"tasks_created": 3},
		})
		require.True(t, ok)
		assert.Equal(t, StatusDone, record.Status)
		assert.Equal(t, "session-9", record.SessionID)
		assert.Equal(t, 3, record.ResultData["tasks_created"])
	})

	t.Run("unknown bot", func(t *testing.T) {
		registry := NewRegistry()
		_, ok := registry.Update("missing", StatusRunning, UpdateOptions{})
		assert.False(t, ok)
	})
}

func TestRegistryDelete(t *testing.T) {
	registry := NewRegistry()
	registry.Create("bot-1", "user-1", StatusStarting)

	assert.True(t, registry.Delete("bot-1"))
	assert.False(t, registry.Delete("bot-1"))

	_, ok := registry.Get("bot-1")
	assert.False(t, ok)
}

func TestRegistryActiveIDs(t *testing.T) {
	registry := NewRegistry()
	registry.Create("active-1", "user-1", StatusStarting)
	registry.Create("active-2", "user-1", StatusRunning)
	registry.Create("finished", "user-1", StatusDone)
	registry.Create("broken", "user-1", StatusError)

	ids := registry.ActiveIDs()
	assert.ElementsMatch(t, []string{"active-1", "active-2"}, ids)
}

func TestRegistrySweep(t *testing.T) {
	registry := NewRegistry()
	registry.Create("fresh", "user-1", StatusRunning)
	registry.Create("stale", "user-1", StatusDone)

	// Age the stale record past the retention horizon
	registry.mu.Lock()
	registry.records["stale"].UpdatedAt = time.Now().UTC().Add(-25 * time.Hour)
	registry.mu.Unlock()

	registry.sweepOnce(time.Now().UTC())

	_, ok := registry.Get("stale")
	assert.False(t, ok)
	_, ok = registry.Get("fresh")
	assert.True(t, ok)
}

func TestRegistryStartStop(t *testing.T) {
	registry := NewRegistry()
	registry.Start()
	registry.Start() // second start is a no-op
	registry.Stop()
	registry.Stop() // second stop is a no-op
}

func TestStatusCanAdvance(t *testing.T) {
	assert.True(t, StatusStarting.canAdvance(StatusRunning))
	assert.True(t, StatusStarting.canAdvance(StatusDone))
	assert.True(t, StatusRunning.canAdvance(StatusRunning))
	assert.False(t, StatusTranscribing.canAdvance(StatusRunning))
	assert.True(t, StatusCreatingTasks.canAdvance(StatusError))
	assert.False(t, StatusDone.canAdvance(StatusError))
	assert.False(t, StatusError.canAdvance(StatusDone))
}
