package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"leadflow/internal/platform/models"
)

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Upsert stores a credential keyed by (user_id, provider). A reconnect
// overwrites the existing row; the credential is never deleted.
func (r *TokenRepository) Upsert(token *models.OAuthToken) error {
	now := time.Now().Unix()

	existing, err := r.Get(token.UserID, token.Provider)
	if err != nil {
		return err
	}

	if existing == nil {
		token.ID = "tok_" + uuid.NewString()
		token.CreatedAt = now
		token.UpdatedAt = now
		query := `
			INSERT INTO oauth_tokens (id, user_id, provider, access_token, refresh_token, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = r.db.Exec(query, token.ID, token.UserID, token.Provider,
			token.AccessToken, token.RefreshToken, token.ExpiresAt, token.CreatedAt, token.UpdatedAt)
		return err
	}

	token.ID = existing.ID
	token.CreatedAt = existing.CreatedAt
	token.UpdatedAt = now

	// Providers do not always return a refresh token on re-auth; keep the old one.
	if token.RefreshToken == "" {
		token.RefreshToken = existing.RefreshToken
	}

	query := `
		UPDATE oauth_tokens
		SET access_token = ?, refresh_token = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Exec(query, token.AccessToken, token.RefreshToken, token.ExpiresAt, token.UpdatedAt, token.ID)
	return err
}

func (r *TokenRepository) Get(userID, provider string) (*models.OAuthToken, error) {
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, expires_at, created_at, updated_at
		FROM oauth_tokens WHERE user_id = ? AND provider = ?
	`
	row := r.db.QueryRow(query, userID, provider)

	var t models.OAuthToken
	var refreshToken sql.NullString
	var expiresAt sql.NullInt64

	err := row.Scan(&t.ID, &t.UserID, &t.Provider, &t.AccessToken, &refreshToken, &expiresAt, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if refreshToken.Valid {
		t.RefreshToken = refreshToken.String
	}
	if expiresAt.Valid {
		t.ExpiresAt = expiresAt.Int64
	}
	return &t, nil
}

func (r *TokenRepository) UpdateAccessToken(id, accessToken string, expiresAt int64) error {
	_, err := r.db.Exec(`UPDATE oauth_tokens SET access_token = ?, expires_at = ?, updated_at = ? WHERE id = ?`,
		accessToken, expiresAt, time.Now().Unix(), id)
	return err
}
