package handlers

import (
	"database/sql"
	"net/http"

	"leadflow/internal/pkg/response"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		response.Fail(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	response.OK(w, map[string]string{"status": "ok"}, "healthy")
}
