package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"leadflow/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	user.ID = "usr_" + uuid.NewString()
	user.CreatedAt = time.Now().Unix()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (id, email, name, password_hash, is_active, slack_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, user.ID, user.Email, user.Name, user.PasswordHash,
		user.IsActive, user.SlackUserID, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getBy(`WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getBy(`WHERE email = ?`, email)
}

func (r *UserRepository) GetBySlackUserID(slackUserID string) (*models.User, error) {
	return r.getBy(`WHERE slack_user_id = ?`, slackUserID)
}

func (r *UserRepository) getBy(where string, arg interface{}) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, is_active, slack_user_id, created_at, updated_at FROM users ` + where
	row := r.db.QueryRow(query, arg)

	var u models.User
	var slackUserID sql.NullString

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &slackUserID, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if slackUserID.Valid {
		u.SlackUserID = slackUserID.String
	}
	return &u, nil
}

func (r *UserRepository) UpdateSlackUserID(id, slackUserID string) error {
	_, err := r.db.Exec(`UPDATE users SET slack_user_id = ?, updated_at = ? WHERE id = ?`,
		slackUserID, time.Now().Unix(), id)
	return err
}

func (r *UserRepository) SetActive(id string, active bool) error {
	_, err := r.db.Exec(`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().Unix(), id)
	return err
}
