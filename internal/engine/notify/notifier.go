package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"leadflow/internal/pkg/errors"
	"leadflow/internal/platform/models"
)

// EventLeadCreated is the room-scoped event name pushed to clients.
const EventLeadCreated = "leadCreated"

type userDirectory interface {
	GetByID(id string) (*models.User, error)
}

type userMailer interface {
	Send(ctx context.Context, user *models.User, outcome Outcome) error
}

type emailSender interface {
	Send(to string, outcome Outcome) error
}

type broadcaster interface {
	Broadcast(userID, event string, data interface{})
}

// Notifier fans one pipeline outcome out to email and the websocket room.
// Mail goes through the user's linked Google account when one is
// connected; config SMTP is the fallback. Fire-and-forget relative to the
// pipeline: every failure here is logged and swallowed, never surfaced to
// the webhook caller.
type Notifier struct {
	users userDirectory
	gmail userMailer
	email emailSender
	hub   broadcaster
}

func NewNotifier(users userDirectory, gmail userMailer, email emailSender, hub broadcaster) *Notifier {
	return &Notifier{users: users, gmail: gmail, email: email, hub: hub}
}

func (n *Notifier) Notify(outcome Outcome) {
	if n.hub != nil {
		n.hub.Broadcast(outcome.UserID, EventLeadCreated, outcome)
	}

	if n.gmail == nil && n.email == nil {
		return
	}

	user, err := n.users.GetByID(outcome.UserID)
	if err != nil || user == nil {
		log.Error().Err(err).Str("user_id", outcome.UserID).
			Str("lead_log_id", outcome.LeadLogID).Msg("cannot resolve notification recipient")
		return
	}

	if n.gmail != nil {
		err := n.gmail.Send(context.Background(), user, outcome)
		if err == nil {
			return
		}
		if !errors.IsKind(err, errors.KindAuth) {
			log.Error().Err(err).Str("user_id", outcome.UserID).
				Str("lead_log_id", outcome.LeadLogID).Msg("outcome email via gmail failed")
			return
		}
		log.Debug().Str("user_id", outcome.UserID).
			Msg("no usable google credential, falling back to SMTP")
	}

	if n.email == nil {
		return
	}
	if err := n.email.Send(user.Email, outcome); err != nil {
		log.Error().Err(err).Str("user_id", outcome.UserID).
			Str("lead_log_id", outcome.LeadLogID).Msg("outcome email failed")
	}
}
