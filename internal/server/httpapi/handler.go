package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

type authHandler struct {
	svc    AuthService
	logger logging.Logger
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type meResponse struct {
	Status string       `json:"status"`
	User   *models.User `json:"user"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

func (h *authHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}

	if _, err := h.svc.Signup(r.Context(), req.Username, req.Email, req.Password); err != nil {
		h.logger.Warn(r.Context(), "signup failed", "username", req.Username, "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, statusResponse{Status: common.StatusSuccess})
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logger.Warn(r.Context(), "login failed", "username", req.Username, "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Status:       common.StatusSuccess,
	})
}

func (h *authHandler) activate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Activate(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.logger.Warn(r.Context(), "activation failed", "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{Status: common.StatusSuccess})
}

func (h *authHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}

	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warn(r.Context(), "refresh failed", "error", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Status:       common.StatusSuccess,
	})
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondFail(w, http.StatusUnauthorized, "invalid or missing access token")
		return
	}

	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meResponse{Status: common.StatusSuccess, User: user})
}
