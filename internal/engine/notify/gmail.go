package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"gopkg.in/gomail.v2"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/oauth"
)

// xoauth2Auth implements the SASL XOAUTH2 exchange Gmail's SMTP endpoint
// expects for bearer tokens.
type xoauth2Auth struct {
	user  string
	token string
}

func (a *xoauth2Auth) Start(*smtp.ServerInfo) (string, []byte, error) {
	payload := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.user, a.token)
	return "XOAUTH2", []byte(payload), nil
}

func (a *xoauth2Auth) Next(_ []byte, more bool) ([]byte, error) {
	// On failure the server sends an error blob and expects an empty
	// response before closing the exchange.
	if more {
		return []byte{}, nil
	}
	return nil, nil
}

type tokenSource interface {
	EnsureValid(ctx context.Context, userID, provider string) (string, error)
}

// GmailSender delivers outcome mail through the user's own Google account.
// The stored credential is refreshed before every send.
type GmailSender struct {
	tokens tokenSource
	host   string
	port   int

	dialAndSend func(d *gomail.Dialer, m *gomail.Message) error
}

func NewGmailSender(tokens tokenSource) *GmailSender {
	return &GmailSender{
		tokens: tokens,
		host:   "smtp.gmail.com",
		port:   587,
		dialAndSend: func(d *gomail.Dialer, m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

// Send mails the outcome to the user from their own address. Errors from
// EnsureValid pass through unwrapped so callers can distinguish a
// missing Google connection from a delivery failure.
func (s *GmailSender) Send(ctx context.Context, user *models.User, outcome Outcome) error {
	token, err := s.tokens.EnsureValid(ctx, user.ID, oauth.ProviderGoogle)
	if err != nil {
		return err
	}

	subject, body := composeOutcome(outcome)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", user.Email, user.Name)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, "", "")
	d.Auth = &xoauth2Auth{user: user.Email, token: token}

	if err := s.dialAndSend(d, m); err != nil {
		return errors.Wrap(errors.KindUpstream, "send outcome email via gmail", err)
	}
	return nil
}
