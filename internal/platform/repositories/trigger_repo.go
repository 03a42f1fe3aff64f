package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"leadflow/internal/platform/models"
)

type TriggerRepository struct {
	db *sql.DB
}

func NewTriggerRepository(db *sql.DB) *TriggerRepository {
	return &TriggerRepository{db: db}
}

func (r *TriggerRepository) Create(trigger *models.TriggerConfig) error {
	trigger.ID = "trg_" + uuid.NewString()
	trigger.CreatedAt = time.Now().Unix()
	trigger.UpdatedAt = trigger.CreatedAt

	query := `
		INSERT INTO trigger_configs (id, user_id, channel_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, trigger.ID, trigger.UserID, trigger.ChannelID,
		trigger.IsActive, trigger.CreatedAt, trigger.UpdatedAt)
	return err
}

func (r *TriggerRepository) GetByID(id string) (*models.TriggerConfig, error) {
	query := `SELECT id, user_id, channel_id, is_active, created_at, updated_at FROM trigger_configs WHERE id = ?`
	row := r.db.QueryRow(query, id)

	var t models.TriggerConfig
	err := row.Scan(&t.ID, &t.UserID, &t.ChannelID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TriggerRepository) GetByUserAndChannel(userID, channelID string) (*models.TriggerConfig, error) {
	query := `SELECT id, user_id, channel_id, is_active, created_at, updated_at FROM trigger_configs WHERE user_id = ? AND channel_id = ?`
	row := r.db.QueryRow(query, userID, channelID)

	var t models.TriggerConfig
	err := row.Scan(&t.ID, &t.UserID, &t.ChannelID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TriggerRepository) ListByUser(userID string) ([]*models.TriggerConfig, error) {
	return r.list(`WHERE user_id = ?`, userID)
}

func (r *TriggerRepository) ListActive() ([]*models.TriggerConfig, error) {
	return r.list(`WHERE is_active = 1`)
}

func (r *TriggerRepository) list(where string, args ...interface{}) ([]*models.TriggerConfig, error) {
	query := `SELECT id, user_id, channel_id, is_active, created_at, updated_at FROM trigger_configs ` +
		where + ` ORDER BY created_at DESC`
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []*models.TriggerConfig
	for rows.Next() {
		var t models.TriggerConfig
		if err := rows.Scan(&t.ID, &t.UserID, &t.ChannelID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		triggers = append(triggers, &t)
	}
	return triggers, rows.Err()
}

func (r *TriggerRepository) Update(trigger *models.TriggerConfig) error {
	trigger.UpdatedAt = time.Now().Unix()

	query := `
		UPDATE trigger_configs
		SET channel_id = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, trigger.ChannelID, trigger.IsActive, trigger.UpdatedAt, trigger.ID)
	return err
}

func (r *TriggerRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM trigger_configs WHERE id = ?`, id)
	return err
}
