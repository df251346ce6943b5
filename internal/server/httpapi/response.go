package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

type statusResponse struct {
	Status string `json:"status"`
}

type failResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Status       string `json:"status"`
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"fail","message":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondFail(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, failResponse{Status: common.StatusFail, Message: message})
}

// respondError writes err with the status statusFromError picks. Server-side
// failures and authentication failures get a fixed message.
func respondError(w http.ResponseWriter, err error) {
	code := statusFromError(err)
	switch code {
	case http.StatusUnauthorized:
		respondFail(w, code, "invalid credentials")
	case http.StatusInternalServerError:
		respondFail(w, code, "internal server error")
	default:
		respondFail(w, code, err.Error())
	}
}

// statusFromError maps error kinds to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
