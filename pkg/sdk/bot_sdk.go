package sdk

import (
	"context"
	"net/http"
)

/** Calls against the bot worker service */

// StartBot asks the worker to join a meeting and returns the bot id.
func (c *Client) StartBot(ctx context.Context, req *StartBotRequest) (*StartBotResponse, error) {
	var resp StartBotResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/bots/start", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBotStatus fetches a bot's current status in the worker's vocabulary.
// Satisfies the status sync worker's fetcher interface.
func (c *Client) GetBotStatus(ctx context.Context, botID string) (string, error) {
	var resp BotStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/bots/"+botID, nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

/** Calls against the backend's trigger boundary */

// TriggerBot hits the backend trigger endpoint on behalf of userID, passing
// through the caller's bearer token when one exists. Used by the scheduler
// when a job fires.
func (c *Client) TriggerBot(ctx context.Context, req *TriggerBotRequest, userID, bearer string) (*TriggerBotResponse, error) {
	headers := map[string]string{"X-User-ID": userID}
	if bearer != "" {
		headers["Authorization"] = "Bearer " + bearer
	}

	var resp TriggerBotResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/meet-bot/trigger", headers, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
