package meetbot_module

import (
	"context"
	"fmt"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/botstatus"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/sdk"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"
)

// service bridges the trigger/status endpoints to the bot worker service
// and the status registry.
type service struct {
	cfg      *utils.Config
	registry *botstatus.Registry
	bots     *sdk.Client
}

var meetbotService *service

// Init wires the module's service. Must be called before serving.
func Init(cfg *utils.Config, registry *botstatus.Registry, bots *sdk.Client) {
	meetbotService = &service{
		cfg:      cfg,
		registry: registry,
		bots:     bots,
	}
}

// Trigger starts a bot at the worker service and registers its status
// record. It returns as soon as the worker has acknowledged the start;
// everything after that is visible only through status polling.
func (s *service) Trigger(ctx context.Context, userID string, req *sdk.TriggerBotRequest) (*sdk.TriggerBotResponse, error) {
	startReq := &sdk.StartBotRequest{
		MeetLink:       req.MeetURL,
		BotName:        req.BotName,
		MinRecordTime:  s.cfg.GetIntWithDefault("MIN_RECORD_SECONDS", 120),
		MaxWaitingTime: s.cfg.GetIntWithDefault("MAX_WAIT_SECONDS", 1800),
	}

	resp, err := s.bots.StartBot(ctx, startReq)
	if err != nil {
		return nil, err
	}

	s.registry.Create(resp.BotID, userID, botstatus.StatusStarting)

	return &sdk.TriggerBotResponse{
		BotID:   resp.BotID,
		Status:  resp.Status,
		Message: fmt.Sprintf("Bot %s started for meeting", resp.BotID),
	}, nil
}

// Status returns the registry record for a bot.
func (s *service) Status(botID string) (botstatus.Record, bool) {
	return s.registry.Get(botID)
}

// Callback marks a bot's record done with the downstream results attached.
func (s *service) Callback(req *sdk.CallbackRequest) (botstatus.Record, bool) {
	return s.registry.Update(req.BotID, botstatus.StatusDone, botstatus.UpdateOptions{
		SessionID:  req.SessionID,
		ResultData: req.ResultData,
	})
}
