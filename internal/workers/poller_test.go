package workers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"leadflow/internal/engine/dedup"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/repositories"
)

func setupPollerDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE trigger_configs (
	    id TEXT PRIMARY KEY,
	    user_id TEXT NOT NULL,
	    channel_id TEXT NOT NULL,
	    is_active INTEGER DEFAULT 1,
	    created_at INTEGER NOT NULL,
	    updated_at INTEGER NOT NULL,
	    UNIQUE(user_id, channel_id)
	);
	CREATE TABLE lead_logs (
	    id TEXT PRIMARY KEY,
	    user_id TEXT NOT NULL,
	    slack_user_id TEXT NOT NULL,
	    channel_id TEXT NOT NULL,
	    event_type TEXT NOT NULL,
	    text TEXT NOT NULL,
	    created_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}
	return db
}

type staticTokens struct{}

func (staticTokens) EnsureValid(_ context.Context, _, _ string) (string, error) {
	return "slack-token", nil
}

type countingPipeline struct {
	mu    sync.Mutex
	texts []string
}

func (p *countingPipeline) Run(_ context.Context, lead *models.LeadLog) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, lead.Text)
	return nil
}

func (p *countingPipeline) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

type historyMessage struct {
	Type  string `json:"type"`
	User  string `json:"user"`
	Text  string `json:"text"`
	TS    string `json:"ts"`
	BotID string `json:"bot_id,omitempty"`
}

// historyServer serves conversations.history, recording the oldest param of
// each call and returning the configured newest-first page.
type historyServer struct {
	mu      sync.Mutex
	oldest  []string
	replies [][]historyMessage
	calls   int
}

func (s *historyServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.oldest = append(s.oldest, r.URL.Query().Get("oldest"))
		reply := []historyMessage{}
		if s.calls < len(s.replies) {
			reply = s.replies[s.calls]
		}
		s.calls++
		s.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":       true,
			"messages": reply,
		})
	}
}

func newPollerFixture(t *testing.T, srvURL string) (*Poller, *repositories.TriggerRepository, *repositories.LeadLogRepository, *countingPipeline) {
	t.Helper()

	db := setupPollerDB(t)
	triggerRepo := repositories.NewTriggerRepository(db)
	leadRepo := repositories.NewLeadLogRepository(db)
	pipe := &countingPipeline{}

	p := NewPoller(triggerRepo, leadRepo, staticTokens{}, pipe, dedup.NewBoundedSet(100))
	p.APIBase = srvURL
	return p, triggerRepo, leadRepo, pipe
}

func TestPoller_ProcessesNewMessagesOldestFirst(t *testing.T) {
	srv := &historyServer{replies: [][]historyMessage{{
		{Type: "message", User: "U1", Text: "second", TS: "200.0"},
		{Type: "message", User: "U1", Text: "first", TS: "100.0"},
	}}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	p, triggerRepo, leadRepo, pipe := newPollerFixture(t, ts.URL)
	if err := triggerRepo.Create(&models.TriggerConfig{UserID: "usr_1", ChannelID: "C1", IsActive: true}); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	p.PollOnce(context.Background())

	if pipe.count() != 2 {
		t.Fatalf("Expected 2 pipeline runs, got %d", pipe.count())
	}
	if pipe.texts[0] != "first" || pipe.texts[1] != "second" {
		t.Errorf("Expected oldest-first processing, got %v", pipe.texts)
	}

	leads, err := leadRepo.ListByUser("usr_1", 10, 0)
	if err != nil {
		t.Fatalf("Failed to list leads: %v", err)
	}
	if len(leads) != 2 {
		t.Errorf("Expected 2 lead rows, got %d", len(leads))
	}
}

func TestPoller_CursorAdvancesBetweenPolls(t *testing.T) {
	srv := &historyServer{replies: [][]historyMessage{
		{{Type: "message", User: "U1", Text: "hello", TS: "100.0"}},
		{},
	}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	p, triggerRepo, _, pipe := newPollerFixture(t, ts.URL)
	if err := triggerRepo.Create(&models.TriggerConfig{UserID: "usr_1", ChannelID: "C1", IsActive: true}); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	p.PollOnce(context.Background())
	p.PollOnce(context.Background())

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.oldest[0] != "" {
		t.Errorf("Expected first poll without oldest, got %q", srv.oldest[0])
	}
	if srv.oldest[1] != "100.0" {
		t.Errorf("Expected second poll from cursor 100.0, got %q", srv.oldest[1])
	}
	if pipe.count() != 1 {
		t.Errorf("Expected 1 pipeline run across both polls, got %d", pipe.count())
	}
}

func TestPoller_SkipsBotAndRepeatedMessages(t *testing.T) {
	srv := &historyServer{replies: [][]historyMessage{
		{
			{Type: "message", User: "U1", Text: "real lead", TS: "100.0"},
			{Type: "message", User: "U2", Text: "bot echo", TS: "101.0", BotID: "B1"},
			{Type: "channel_join", User: "U3", Text: "joined", TS: "102.0"},
		},
		{
			// Redelivered despite the cursor; dedup catches it.
			{Type: "message", User: "U1", Text: "real lead", TS: "100.0"},
		},
	}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	p, triggerRepo, _, pipe := newPollerFixture(t, ts.URL)
	if err := triggerRepo.Create(&models.TriggerConfig{UserID: "usr_1", ChannelID: "C1", IsActive: true}); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	p.PollOnce(context.Background())
	p.PollOnce(context.Background())

	if pipe.count() != 1 {
		t.Errorf("Expected only the real lead to run once, got %d runs", pipe.count())
	}
}

func TestPoller_InactiveTriggersNotPolled(t *testing.T) {
	srv := &historyServer{}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	p, triggerRepo, _, _ := newPollerFixture(t, ts.URL)
	if err := triggerRepo.Create(&models.TriggerConfig{UserID: "usr_1", ChannelID: "C1", IsActive: false}); err != nil {
		t.Fatalf("Failed to create trigger: %v", err)
	}

	p.PollOnce(context.Background())

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.calls != 0 {
		t.Errorf("Expected no history calls for inactive trigger, got %d", srv.calls)
	}
}
