package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/service"
	"ecommerce-shop/shared/pkg/models"
)

type UsersHandler struct {
	Users *service.UserService
	Log   zerolog.Logger
}

// userSummary is the list view: no ids of carts or documents.
type userSummary struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type changeRoleReq struct {
	Role models.Role `json:"role"`
}

type resetRequestReq struct {
	Email string `json:"email"`
}

type resetPasswordReq struct {
	Password string `json:"password"`
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, userSummary{ID: u.ID, Name: u.FullName(), Email: u.Email, Role: u.Role})
	}
	writeData(w, http.StatusOK, "", out)
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Users.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, "user created", u)
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "", u)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateUserInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	u, err := h.Users.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "user updated", u)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "user deleted", nil)
}

func (h *UsersHandler) SweepInactive(w http.ResponseWriter, r *http.Request) {
	gone, err := h.Users.SweepInactive(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]userSummary, 0, len(gone))
	for _, u := range gone {
		out = append(out, userSummary{ID: u.ID, Name: u.FullName(), Email: u.Email, Role: u.Role})
	}
	writeData(w, http.StatusOK, "inactive users deleted", out)
}

func (h *UsersHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.Users.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "", map[string]models.Role{"role": role})
}

// ChangeRole toggles when the body is empty or carries no role.
func (h *UsersHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleReq
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, h.Log, err)
			return
		}
	}
	u, err := h.Users.ChangeRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "role updated", map[string]any{"id": u.ID, "role": u.Role})
}

func (h *UsersHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Users.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusAccepted, "if the account exists a reset link was sent", nil)
}

func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	err := h.Users.ResetPassword(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, "password updated", nil)
}
