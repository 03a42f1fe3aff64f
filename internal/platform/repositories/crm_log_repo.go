package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"leadflow/internal/platform/models"
)

type CRMLogRepository struct {
	db *sql.DB
}

func NewCRMLogRepository(db *sql.DB) *CRMLogRepository {
	return &CRMLogRepository{db: db}
}

// Create appends one status row for a pipeline attempt. Rows are never
// updated or deleted; each attempt gets its own row.
func (r *CRMLogRepository) Create(log *models.CRMStatusLog) error {
	log.ID = "crmlog_" + uuid.NewString()
	log.CreatedAt = time.Now().Unix()

	query := `
		INSERT INTO crm_status_logs (id, lead_log_id, user_id, status, raw_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, log.ID, log.LeadLogID, log.UserID, log.Status, log.RawResponse, log.CreatedAt)
	return err
}

func (r *CRMLogRepository) ListByUser(userID string, limit, offset int) ([]*models.CRMStatusLog, error) {
	query := `
		SELECT id, lead_log_id, user_id, status, raw_response, created_at
		FROM crm_status_logs WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`
	rows, err := r.db.Query(query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCRMLogs(rows)
}

func (r *CRMLogRepository) ListByLeadLog(leadLogID string) ([]*models.CRMStatusLog, error) {
	query := `
		SELECT id, lead_log_id, user_id, status, raw_response, created_at
		FROM crm_status_logs WHERE lead_log_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, leadLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCRMLogs(rows)
}

func scanCRMLogs(rows *sql.Rows) ([]*models.CRMStatusLog, error) {
	var logs []*models.CRMStatusLog
	for rows.Next() {
		var l models.CRMStatusLog
		if err := rows.Scan(&l.ID, &l.LeadLogID, &l.UserID, &l.Status, &l.RawResponse, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
