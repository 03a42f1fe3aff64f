package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "leadflow/internal/api/context"
	"leadflow/internal/pkg/response"
	"leadflow/internal/platform/auth"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/repositories"
)

type TriggerHandler struct {
	triggerRepo *repositories.TriggerRepository
}

func NewTriggerHandler(triggerRepo *repositories.TriggerRepository) *TriggerHandler {
	return &TriggerHandler{triggerRepo: triggerRepo}
}

type triggerRequest struct {
	ChannelID string `json:"channel_id"`
	IsActive  *bool  `json:"is_active"`
}

func (h *TriggerHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChannelID == "" {
		response.Fail(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	existing, err := h.triggerRepo.GetByUserAndChannel(claims.UserID, req.ChannelID)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		response.Fail(w, http.StatusConflict, "Trigger already exists for this channel")
		return
	}

	trigger := &models.TriggerConfig{
		UserID:    claims.UserID,
		ChannelID: req.ChannelID,
		IsActive:  true,
	}
	if err := h.triggerRepo.Create(trigger); err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to create trigger")
		return
	}

	response.Created(w, trigger, "Trigger created successfully")
}

func (h *TriggerHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	triggers, err := h.triggerRepo.ListByUser(claims.UserID)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	response.OK(w, triggers, "Trigger configs fetched")
}

func (h *TriggerHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := paramsFrom(r).ByName("trigger_id")

	trigger, err := h.triggerRepo.GetByID(id)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	if trigger == nil || trigger.UserID != claims.UserID {
		response.Fail(w, http.StatusNotFound, "Trigger not found")
		return
	}

	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ChannelID != "" {
		trigger.ChannelID = req.ChannelID
	}
	if req.IsActive != nil {
		trigger.IsActive = *req.IsActive
	}

	if err := h.triggerRepo.Update(trigger); err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to update trigger")
		return
	}

	response.OK(w, trigger, "Trigger updated")
}

func (h *TriggerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	id := paramsFrom(r).ByName("trigger_id")

	trigger, err := h.triggerRepo.GetByID(id)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	if trigger == nil || trigger.UserID != claims.UserID {
		response.Fail(w, http.StatusNotFound, "Trigger not found")
		return
	}

	if err := h.triggerRepo.Delete(id); err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to delete trigger")
		return
	}

	response.OK(w, nil, "Trigger deleted")
}
