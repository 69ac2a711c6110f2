package bots_module

import (
	"time"

	"github.com/kernel-parrot-org/scrum-master-backend/pkg/meetbot"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/sdk"
	"github.com/kernel-parrot-org/scrum-master-backend/pkg/utils"
)

// service exposes the single-slot adapter to the HTTP surface.
type service struct {
	cfg     *utils.Config
	adapter *meetbot.Adapter
}

var botsService *service

// Init wires the module's service. Must be called before serving.
func Init(cfg *utils.Config, adapter *meetbot.Adapter) {
	botsService = &service{
		cfg:     cfg,
		adapter: adapter,
	}
}

// Start hands a session to the adapter and returns its id, or
// meetbot.ErrAdapterBusy while another session is in flight.
func (s *service) Start(req *sdk.StartBotRequest) (*sdk.StartBotResponse, error) {
	id, err := s.adapter.Trigger(meetbot.SessionOptions{
		MeetLink:       req.MeetLink,
		BotName:        req.BotName,
		MinRecordTime:  time.Duration(req.MinRecordTime) * time.Second,
		MaxWaitingTime: time.Duration(req.MaxWaitingTime) * time.Second,
		AudioUploadURL: req.PresignedURLAudio,
	})
	if err != nil {
		return nil, err
	}

	return &sdk.StartBotResponse{
		BotID:  id,
		Status: meetbot.ExternalInitialized,
	}, nil
}

// Status reports a bot's external status and session snapshot.
func (s *service) Status(botID string) (*sdk.BotStatusResponse, *meetbot.SessionInfo, bool) {
	session, ok := s.adapter.Lookup(botID)
	if !ok {
		return nil, nil, false
	}

	info := session.Info()
	return &sdk.BotStatusResponse{
		BotID:  botID,
		Status: meetbot.ExternalStatus(info.State),
	}, &info, true
}
