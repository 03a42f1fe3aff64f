package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"leadflow/internal/engine/crm"
	"leadflow/internal/engine/extract"
	"leadflow/internal/engine/notify"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/oauth"
)

type crmCreator interface {
	Create(ctx context.Context, accessToken string, contact *extract.Contact) (*crm.Result, error)
}

type tokenSource interface {
	EnsureValid(ctx context.Context, userID, provider string) (string, error)
}

type statusLogger interface {
	Create(log *models.CRMStatusLog) error
}

type outcomeNotifier interface {
	Notify(outcome notify.Outcome)
}

// Pipeline runs one lead from extraction through CRM submission, status
// logging and notification. Any step's failure short-circuits to a FAILURE
// status log; the inbound webhook has already been acked by then, so
// nothing here propagates back to the provider.
type Pipeline struct {
	extractor extract.Extractor
	crm       crmCreator
	tokens    tokenSource
	statusLog statusLogger
	notifier  outcomeNotifier

	retryAttempts int
	retryDelay    time.Duration
}

func New(extractor extract.Extractor, crmClient crmCreator, tokens tokenSource,
	statusLog statusLogger, notifier outcomeNotifier, retryAttempts int, retryDelay time.Duration) *Pipeline {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Pipeline{
		extractor:     extractor,
		crm:           crmClient,
		tokens:        tokens,
		statusLog:     statusLog,
		notifier:      notifier,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// Run processes a stored lead. The returned error reports the terminal
// failure for callers that care (the worker); the webhook path ignores it.
func (p *Pipeline) Run(ctx context.Context, lead *models.LeadLog) error {
	var contact *extract.Contact
	err := withRetry(ctx, p.retryAttempts, p.retryDelay, func() error {
		var exErr error
		contact, exErr = p.extractor.Extract(ctx, lead.Text)
		return exErr
	})
	if err != nil {
		return p.fail(lead, err)
	}

	accessToken, err := p.tokens.EnsureValid(ctx, lead.UserID, oauth.ProviderZoho)
	if err != nil {
		return p.fail(lead, err)
	}

	var result *crm.Result
	err = withRetry(ctx, p.retryAttempts, p.retryDelay, func() error {
		var crmErr error
		result, crmErr = p.crm.Create(ctx, accessToken, contact)
		return crmErr
	})
	if err != nil {
		return p.fail(lead, err)
	}

	raw, _ := json.Marshal(result)
	logged := p.writeStatus(lead, models.CRMStatusSuccess, string(raw))

	log.Info().Str("lead_log_id", lead.ID).Str("crm_id", result.ID).Msg("lead created in CRM")

	// Notification only follows a written status log, preserving the audit
	// trail over best-effort delivery.
	if logged {
		p.notifier.Notify(notify.Outcome{
			LeadLogID: lead.ID,
			UserID:    lead.UserID,
			FirstName: contact.FirstName,
			LastName:  contact.LastName,
			Company:   contact.Company,
			CRMID:     result.ID,
			Success:   true,
		})
	}
	return nil
}

func (p *Pipeline) fail(lead *models.LeadLog, cause error) error {
	log.Error().Err(cause).Str("lead_log_id", lead.ID).Str("user_id", lead.UserID).
		Str("kind", errors.KindOf(cause).Code()).Msg("pipeline run failed")

	raw, _ := json.Marshal(map[string]string{"error": cause.Error()})
	logged := p.writeStatus(lead, models.CRMStatusFailure, string(raw))

	if logged {
		p.notifier.Notify(notify.Outcome{
			LeadLogID: lead.ID,
			UserID:    lead.UserID,
			Success:   false,
			Detail:    cause.Error(),
		})
	}
	return cause
}

// writeStatus appends the attempt's status row. An insert failure is logged
// and suppresses notification, but does not abort the pipeline's own
// bookkeeping.
func (p *Pipeline) writeStatus(lead *models.LeadLog, status, raw string) bool {
	entry := &models.CRMStatusLog{
		LeadLogID:   lead.ID,
		UserID:      lead.UserID,
		Status:      status,
		RawResponse: raw,
	}
	if err := p.statusLog.Create(entry); err != nil {
		log.Error().Err(err).Str("lead_log_id", lead.ID).
			Msg("failed to write CRM status log")
		return false
	}
	return true
}
