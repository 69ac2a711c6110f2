package sdk

/** Wire types shared by the backend, the bot worker service, and clients */

// StartBotRequest asks the bot worker service to join a meeting.
type StartBotRequest struct {
	MeetLink          string `json:"meetlink" binding:"required"`
	BotName           string `json:"bot_name"`
	MinRecordTime     int    `json:"min_record_time"`     // seconds
	MaxWaitingTime    int    `json:"max_waiting_time"`    // seconds
	PresignedURLAudio string `json:"presigned_url_audio"` // optional upload destination
}

// StartBotResponse acknowledges a started bot.
type StartBotResponse struct {
	BotID  string `json:"bot_id"`
	Status string `json:"status"`
}

// BotStatusResponse reports a bot's status in the worker's vocabulary.
type BotStatusResponse struct {
	BotID  string `json:"bot_id"`
	Status string `json:"status"`
}

// TriggerBotRequest asks the backend to send a bot into a meeting.
type TriggerBotRequest struct {
	MeetURL string `json:"meet_url" binding:"required"`
	BotName string `json:"bot_name"`
}

// TriggerBotResponse acknowledges a trigger with the tracking id.
type TriggerBotResponse struct {
	BotID   string `json:"bot_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CallbackRequest is posted by the downstream processing pipeline once a
// bot's results are ready.
type CallbackRequest struct {
	BotID      string         `json:"bot_id" binding:"required"`
	SessionID  string         `json:"session_id"`
	ResultData map[string]any `json:"result_data"`
}
