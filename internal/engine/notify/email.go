package notify

import (
	"fmt"

	"gopkg.in/gomail.v2"
	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/config"
)

// Outcome summarizes one finished pipeline run for the owning user.
type Outcome struct {
	LeadLogID string
	UserID    string
	FirstName string
	LastName  string
	Company   string
	CRMID     string
	Success   bool
	Detail    string
}

type EmailSender struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func composeOutcome(outcome Outcome) (subject, body string) {
	if outcome.Success {
		subject = fmt.Sprintf("New CRM Lead Created: %s", outcome.Company)
		body = fmt.Sprintf("Lead ID %s created for %s %s.", outcome.CRMID, outcome.FirstName, outcome.LastName)
		return subject, body
	}
	subject = fmt.Sprintf("CRM Lead Creation FAILED for %s", outcome.LeadLogID)
	body = fmt.Sprintf("Error: %s", outcome.Detail)
	return subject, body
}

func (s *EmailSender) Send(to string, outcome Outcome) error {
	subject, body := composeOutcome(outcome)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(errors.KindUpstream, "send outcome email", err)
	}
	return nil
}
