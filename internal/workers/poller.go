package workers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"leadflow/internal/engine/dedup"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/oauth"
	"leadflow/internal/platform/repositories"
)

type pipelineRunner interface {
	Run(ctx context.Context, lead *models.LeadLog) error
}

type tokenSource interface {
	EnsureValid(ctx context.Context, userID, provider string) (string, error)
}

// Poller periodically reads channel history for every active trigger config
// and feeds new messages through the same dedup and pipeline path as the
// webhook receiver.
type Poller struct {
	triggerRepo *repositories.TriggerRepository
	leadRepo    *repositories.LeadLogRepository
	tokens      tokenSource
	pipeline    pipelineRunner
	seen        dedup.Cache

	// APIBase is overridable for tests; defaults to Slack's Web API.
	APIBase    string
	httpClient *http.Client

	mu      sync.Mutex
	cursors map[string]string // channel id -> newest processed ts
}

func NewPoller(triggerRepo *repositories.TriggerRepository, leadRepo *repositories.LeadLogRepository,
	tokens tokenSource, pipeline pipelineRunner, seen dedup.Cache) *Poller {
	return &Poller{
		triggerRepo: triggerRepo,
		leadRepo:    leadRepo,
		tokens:      tokens,
		pipeline:    pipeline,
		seen:        seen,
		APIBase:     "https://slack.com/api",
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		cursors:     make(map[string]string),
	}
}

// Run blocks, polling on the given interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("channel poller started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("channel poller stopping")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce walks every active trigger. Per-trigger failures are logged and
// skipped so one broken credential cannot stall the rest.
func (p *Poller) PollOnce(ctx context.Context) {
	triggers, err := p.triggerRepo.ListActive()
	if err != nil {
		log.Error().Err(err).Msg("failed to list active triggers")
		return
	}

	for _, trigger := range triggers {
		if err := p.pollChannel(ctx, trigger); err != nil {
			log.Error().Err(err).Str("user_id", trigger.UserID).
				Str("channel_id", trigger.ChannelID).Msg("channel poll failed")
		}
	}
}

type historyResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages []struct {
		Type  string `json:"type"`
		User  string `json:"user"`
		Text  string `json:"text"`
		TS    string `json:"ts"`
		BotID string `json:"bot_id"`
	} `json:"messages"`
}

func (p *Poller) pollChannel(ctx context.Context, trigger *models.TriggerConfig) error {
	accessToken, err := p.tokens.EnsureValid(ctx, trigger.UserID, oauth.ProviderSlack)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("channel", trigger.ChannelID)
	q.Set("limit", "50")
	if oldest := p.cursor(trigger.ChannelID); oldest != "" {
		q.Set("oldest", oldest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.APIBase+"/conversations.history?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(errors.KindInternal, "build history request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.KindUpstream, "channel history unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.KindUpstream, "read history response", err)
	}

	var history historyResponse
	if err := json.Unmarshal(body, &history); err != nil {
		return errors.Wrap(errors.KindUpstream, "malformed history response", err)
	}
	if !history.OK {
		return errors.New(errors.KindUpstream, "channel history failed: "+history.Error)
	}

	// Messages arrive newest-first; walk oldest-first so the cursor only
	// ever moves forward.
	newest := p.cursor(trigger.ChannelID)
	for i := len(history.Messages) - 1; i >= 0; i-- {
		msg := history.Messages[i]
		if msg.TS > newest {
			newest = msg.TS
		}
		if msg.Type != "message" || msg.BotID != "" || msg.Text == "" || msg.User == "" {
			continue
		}

		eventID := trigger.ChannelID + ":" + msg.TS
		if p.seen.Seen(eventID) {
			continue
		}
		p.seen.Mark(eventID)

		lead := &models.LeadLog{
			UserID:      trigger.UserID,
			SlackUserID: msg.User,
			ChannelID:   trigger.ChannelID,
			EventType:   msg.Type,
			Text:        msg.Text,
		}
		if err := p.leadRepo.Create(lead); err != nil {
			log.Error().Err(err).Str("channel_id", trigger.ChannelID).Msg("failed to create lead log")
			continue
		}

		if err := p.pipeline.Run(ctx, lead); err != nil {
			log.Debug().Err(err).Str("lead_log_id", lead.ID).Msg("pipeline finished with failure")
		}
	}

	if newest != "" {
		p.setCursor(trigger.ChannelID, newest)
	}
	return nil
}

func (p *Poller) cursor(channelID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursors[channelID]
}

func (p *Poller) setCursor(channelID, ts string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors[channelID] = ts
}
