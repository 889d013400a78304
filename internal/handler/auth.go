package handler

import (
	"net/http"
	"time"

	"github.com/templui/claimguard/internal/ctxkeys"
	"github.com/templui/claimguard/internal/model"
	"github.com/templui/claimguard/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        userResponse `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.issueToken(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.issueToken(w, r, user, http.StatusOK)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.authService.SetJWTCookie(w, token, expiry)
	respondJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiry.UTC(),
		User:        newUserResponse(user),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newUserResponse(ctxkeys.User(r.Context())))
}

type profileRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req profileRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, service.ProfileInput{
		Name:   req.Name,
		Avatar: req.Avatar,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newUserResponse(updated))
}
