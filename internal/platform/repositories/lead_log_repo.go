package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"leadflow/internal/platform/models"
)

type LeadLogRepository struct {
	db *sql.DB
}

func NewLeadLogRepository(db *sql.DB) *LeadLogRepository {
	return &LeadLogRepository{db: db}
}

func (r *LeadLogRepository) Create(lead *models.LeadLog) error {
	lead.ID = "lead_" + uuid.NewString()
	lead.CreatedAt = time.Now().Unix()

	query := `
		INSERT INTO lead_logs (id, user_id, slack_user_id, channel_id, event_type, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, lead.ID, lead.UserID, lead.SlackUserID,
		lead.ChannelID, lead.EventType, lead.Text, lead.CreatedAt)
	return err
}

func (r *LeadLogRepository) GetByID(id string) (*models.LeadLog, error) {
	query := `SELECT id, user_id, slack_user_id, channel_id, event_type, text, created_at FROM lead_logs WHERE id = ?`
	row := r.db.QueryRow(query, id)

	var l models.LeadLog
	err := row.Scan(&l.ID, &l.UserID, &l.SlackUserID, &l.ChannelID, &l.EventType, &l.Text, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LeadLogRepository) ListByUser(userID string, limit, offset int) ([]*models.LeadLog, error) {
	query := `
		SELECT id, user_id, slack_user_id, channel_id, event_type, text, created_at
		FROM lead_logs WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.LeadLog
	for rows.Next() {
		var l models.LeadLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.SlackUserID, &l.ChannelID, &l.EventType, &l.Text, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, &l)
	}
	return leads, rows.Err()
}
