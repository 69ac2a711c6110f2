package botstatus

import "time"

// Status is a bot's position in the processing pipeline. Statuses only move
// forward through the listed order, except that StatusError is reachable
// from any state.
type Status string

const (
	StatusStarting      Status = "starting"
	StatusRunning       Status = "running"
	StatusTranscribing  Status = "transcribing"
	StatusAnalyzing     Status = "analyzing_meeting"
	StatusCreatingTasks Status = "creating_tasks"
	StatusDone          Status = "done"
	StatusError         Status = "error"
)

var statusRank = map[Status]int{
	StatusStarting:      0,
	StatusRunning:       1,
	StatusTranscribing:  2,
	StatusAnalyzing:     3,
	StatusCreatingTasks: 4,
	StatusDone:          5,
	StatusError:         5,
}

// Terminal reports whether no further status change is expected.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// canAdvance reports whether a record may move from s to next.
func (s Status) canAdvance(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	return statusRank[next] >= statusRank[s]
}

// Record tracks one triggered bot through its lifecycle.
type Record struct {
	BotID        string         `json:"bot_id"`
	UserID       string         `json:"user_id"`
	Status       Status         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	ErrorMessage string         `json:"error_message,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	ResultData   map[string]any `json:"result_data,omitempty"`
}
