package repositories

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"leadflow/internal/platform/models"
)

func seedLeadLog(t *testing.T, db *sql.DB, repo *LeadLogRepository, userID, text string, createdAt int64) *models.LeadLog {
	t.Helper()

	lead := &models.LeadLog{
		UserID:      userID,
		SlackUserID: "U1",
		ChannelID:   "C1",
		EventType:   "message",
		Text:        text,
	}
	if err := repo.Create(lead); err != nil {
		t.Fatalf("Failed to create lead log: %v", err)
	}
	// Pin created_at so ordering assertions do not depend on wall time.
	if _, err := db.Exec(`UPDATE lead_logs SET created_at = ? WHERE id = ?`, createdAt, lead.ID); err != nil {
		t.Fatalf("Failed to pin created_at: %v", err)
	}
	lead.CreatedAt = createdAt
	return lead
}

func TestLeadLogRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "usr_1")
	repo := NewLeadLogRepository(db)

	lead := &models.LeadLog{
		UserID:      "usr_1",
		SlackUserID: "U1",
		ChannelID:   "C1",
		EventType:   "message",
		Text:        "John Doe|Acme|john@acme.com|555-1234",
	}
	if err := repo.Create(lead); err != nil {
		t.Fatalf("Failed to create lead log: %v", err)
	}
	if !strings.HasPrefix(lead.ID, "lead_") {
		t.Errorf("Expected lead_ id prefix, got %q", lead.ID)
	}

	got, err := repo.GetByID(lead.ID)
	if err != nil {
		t.Fatalf("Failed to get lead log: %v", err)
	}
	if got == nil || got.Text != lead.Text {
		t.Errorf("Expected stored lead back, got %+v", got)
	}
}

func TestLeadLogRepository_ListByUserOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "usr_1")
	seedUser(t, db, "usr_2")
	repo := NewLeadLogRepository(db)

	seedLeadLog(t, db, repo, "usr_1", "oldest", 100)
	seedLeadLog(t, db, repo, "usr_1", "newest", 300)
	seedLeadLog(t, db, repo, "usr_1", "middle", 200)
	seedLeadLog(t, db, repo, "usr_2", "other user", 400)

	leads, err := repo.ListByUser("usr_1", 10, 0)
	if err != nil {
		t.Fatalf("Failed to list lead logs: %v", err)
	}
	if len(leads) != 3 {
		t.Fatalf("Expected 3 leads for usr_1, got %d", len(leads))
	}
	if leads[0].Text != "newest" || leads[2].Text != "oldest" {
		t.Errorf("Expected newest-first ordering, got %q .. %q", leads[0].Text, leads[2].Text)
	}

	page, err := repo.ListByUser("usr_1", 1, 1)
	if err != nil {
		t.Fatalf("Failed to page lead logs: %v", err)
	}
	if len(page) != 1 || page[0].Text != "middle" {
		t.Errorf("Expected offset paging to return middle, got %+v", page)
	}
}

func TestCRMLogRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "usr_1")
	leadRepo := NewLeadLogRepository(db)
	repo := NewCRMLogRepository(db)

	lead := seedLeadLog(t, db, leadRepo, "usr_1", "text", 100)

	first := &models.CRMStatusLog{
		LeadLogID:   lead.ID,
		UserID:      "usr_1",
		Status:      models.CRMStatusFailure,
		RawResponse: `{"error":"CRM unreachable"}`,
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("Failed to create status log: %v", err)
	}
	second := &models.CRMStatusLog{
		LeadLogID:   lead.ID,
		UserID:      "usr_1",
		Status:      models.CRMStatusSuccess,
		RawResponse: `{"id":"zoho-42"}`,
	}
	if err := repo.Create(second); err != nil {
		t.Fatalf("Failed to create status log: %v", err)
	}
	if _, err := db.Exec(`UPDATE crm_status_logs SET created_at = 1 WHERE id = ?`, first.ID); err != nil {
		t.Fatalf("Failed to pin created_at: %v", err)
	}
	if _, err := db.Exec(`UPDATE crm_status_logs SET created_at = 2 WHERE id = ?`, second.ID); err != nil {
		t.Fatalf("Failed to pin created_at: %v", err)
	}

	// Attempt history stays in chronological order.
	history, err := repo.ListByLeadLog(lead.ID)
	if err != nil {
		t.Fatalf("Failed to list by lead log: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(history))
	}
	if history[0].Status != models.CRMStatusFailure || history[1].Status != models.CRMStatusSuccess {
		t.Errorf("Expected failure then success, got %q then %q", history[0].Status, history[1].Status)
	}

	byUser, err := repo.ListByUser("usr_1", 10, 0)
	if err != nil {
		t.Fatalf("Failed to list by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("Expected 2 logs for user, got %d", len(byUser))
	}
}

func TestCRMLogRepository_RejectsUnknownStatus(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "usr_1")
	repo := NewCRMLogRepository(db)

	err := repo.Create(&models.CRMStatusLog{
		LeadLogID: "lead_1",
		UserID:    "usr_1",
		Status:    "PENDING",
	})
	if err == nil {
		t.Error("Expected check constraint violation for unknown status")
	}
}

func TestCRMLogRepository_CreatePropagatesDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO crm_status_logs").
		WillReturnError(sql.ErrConnDone)

	repo := NewCRMLogRepository(db)
	if err := repo.Create(&models.CRMStatusLog{LeadLogID: "lead_1", UserID: "usr_1", Status: models.CRMStatusSuccess}); err == nil {
		t.Error("Expected database error to propagate")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}
