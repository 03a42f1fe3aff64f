package models

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
	SlackUserID  string `json:"slack_user_id,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// OAuthToken is a per-user, per-provider credential. One row per
// (user_id, provider); overwritten in place on reconnect or refresh.
type OAuthToken struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Provider     string `json:"provider"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	ExpiresAt    int64  `json:"expires_at"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// LeadLog records one qualifying inbound message. Immutable after creation.
type LeadLog struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	SlackUserID string `json:"slack_user_id"`
	ChannelID   string `json:"channel_id"`
	EventType   string `json:"event_type"`
	Text        string `json:"text"`
	CreatedAt   int64  `json:"created_at"`
}

const (
	CRMStatusSuccess = "SUCCESS"
	CRMStatusFailure = "FAILURE"
)

// CRMStatusLog is append-only; one row per pipeline attempt.
type CRMStatusLog struct {
	ID          string `json:"id"`
	LeadLogID   string `json:"lead_log_id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	RawResponse string `json:"raw_response"`
	CreatedAt   int64  `json:"created_at"`
}

type TriggerConfig struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
