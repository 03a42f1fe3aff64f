package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"leadflow/internal/engine/dedup"
	"leadflow/internal/pkg/response"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/repositories"
)

type pipelineRunner interface {
	Run(ctx context.Context, lead *models.LeadLog) error
}

// EventHandler receives provider webhooks. The inbound protocol expects an
// acknowledgment regardless of downstream outcome, so content events are
// acked 200 and processed on their own goroutine.
type EventHandler struct {
	userRepo *repositories.UserRepository
	leadRepo *repositories.LeadLogRepository
	seen     dedup.Cache
	pipeline pipelineRunner
}

func NewEventHandler(userRepo *repositories.UserRepository, leadRepo *repositories.LeadLogRepository,
	seen dedup.Cache, pipeline pipelineRunner) *EventHandler {
	return &EventHandler{
		userRepo: userRepo,
		leadRepo: leadRepo,
		seen:     seen,
		pipeline: pipeline,
	}
}

type slackEventBody struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	EventID   string `json:"event_id"`
	Event     *struct {
		Type    string `json:"type"`
		Text    string `json:"text"`
		User    string `json:"user"`
		Channel string `json:"channel"`
		BotID   string `json:"bot_id"`
	} `json:"event"`
}

func (h *EventHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var body slackEventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.Type == "" {
		log.Warn().Msg("missing event type in webhook body")
		response.Fail(w, http.StatusBadRequest, "Missing event type")
		return
	}

	switch body.Type {
	case "url_verification":
		if body.Challenge == "" {
			response.Fail(w, http.StatusBadRequest, "Missing challenge")
			return
		}
		response.OK(w, map[string]string{"challenge": body.Challenge}, "Challenge token verified")
		return

	case "event_callback":
		if body.Event == nil {
			response.Fail(w, http.StatusBadRequest, "Invalid event format")
			return
		}
		h.handleContentEvent(&body)
	}

	response.OK(w, nil, "Event processed")
}

func (h *EventHandler) handleContentEvent(body *slackEventBody) {
	ev := body.Event
	// Bot echoes and partial events are acked and dropped.
	if ev.Type != "message" || ev.BotID != "" || ev.Text == "" || ev.User == "" || ev.Channel == "" {
		return
	}

	if body.EventID != "" {
		if h.seen.Seen(body.EventID) {
			log.Debug().Str("event_id", body.EventID).Msg("duplicate event discarded")
			return
		}
		h.seen.Mark(body.EventID)
	}

	user, err := h.userRepo.GetBySlackUserID(ev.User)
	if err != nil {
		log.Error().Err(err).Str("slack_user_id", ev.User).Msg("user lookup failed")
		return
	}
	if user == nil {
		log.Warn().Str("slack_user_id", ev.User).Msg("no linked user for inbound message")
		return
	}

	// The lead row is written before the pipeline starts so a record exists
	// even when extraction or the CRM call fails.
	lead := &models.LeadLog{
		UserID:      user.ID,
		SlackUserID: ev.User,
		ChannelID:   ev.Channel,
		EventType:   ev.Type,
		Text:        ev.Text,
	}
	if err := h.leadRepo.Create(lead); err != nil {
		log.Error().Err(err).Str("slack_user_id", ev.User).Msg("failed to create lead log")
		return
	}

	log.Info().Str("lead_log_id", lead.ID).Str("channel_id", ev.Channel).Msg("lead received")

	go func() {
		if err := h.pipeline.Run(context.Background(), lead); err != nil {
			log.Debug().Err(err).Str("lead_log_id", lead.ID).Msg("pipeline finished with failure")
		}
	}()
}
