package handlers

import (
	"net/http"
	"strconv"

	apiContext "leadflow/internal/api/context"
	"leadflow/internal/pkg/response"
	"leadflow/internal/platform/auth"
	"leadflow/internal/platform/repositories"
)

type LogHandler struct {
	leadRepo   *repositories.LeadLogRepository
	crmLogRepo *repositories.CRMLogRepository
}

func NewLogHandler(leadRepo *repositories.LeadLogRepository, crmLogRepo *repositories.CRMLogRepository) *LogHandler {
	return &LogHandler{leadRepo: leadRepo, crmLogRepo: crmLogRepo}
}

func (h *LogHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	limit, offset := paging(r)

	leads, err := h.leadRepo.ListByUser(claims.UserID, limit, offset)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.OK(w, leads, "Lead logs fetched")
}

func (h *LogHandler) ListCRMLogs(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	limit, offset := paging(r)

	logs, err := h.crmLogRepo.ListByUser(claims.UserID, limit, offset)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.OK(w, logs, "CRM status logs fetched")
}

func paging(r *http.Request) (int, int) {
	limit := 50
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
