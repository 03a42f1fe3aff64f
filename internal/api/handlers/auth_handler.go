package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	apiContext "leadflow/internal/api/context"
	"leadflow/internal/pkg/response"
	"leadflow/internal/platform/auth"
	"leadflow/internal/platform/models"
	"leadflow/internal/platform/repositories"
)

type AuthHandler struct {
	userRepo *repositories.UserRepository
	tokenSvc *auth.TokenService
}

func NewAuthHandler(userRepo *repositories.UserRepository, tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, tokenSvc: tokenSvc}
}

type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" || req.Name == "" {
		response.Fail(w, http.StatusBadRequest, "email, name and password are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		response.Fail(w, http.StatusBadRequest, "invalid email address")
		return
	}

	existing, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	if existing != nil {
		response.Fail(w, http.StatusConflict, "User already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}
	if err := h.userRepo.Create(user); err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	response.Created(w, AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, "User registered")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userRepo.GetByEmail(strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		response.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		response.Fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, err := h.tokenSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	refreshToken, err := h.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	response.OK(w, AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, "Login successful")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	user, err := h.userRepo.GetByID(claims.UserID)
	if err != nil {
		response.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		response.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	response.OK(w, user, "Profile fetched")
}
