package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/service"
)

type SessionsHandler struct {
	Users *service.UserService
	Log   zerolog.Logger
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type githubLoginReq struct {
	AccessToken string `json:"access_token"`
}

func (h *SessionsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "logged in", u)
}

func (h *SessionsHandler) GitHub(w http.ResponseWriter, r *http.Request) {
	var req githubLoginReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Users.LoginWithGitHub(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "logged in with github", u)
}
