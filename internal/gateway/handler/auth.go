package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/membership"
)

// Me reports who the caller is and their membership status. Inactive members
// get 200 with the status so the client can explain what happened.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if h.gate == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "auth_not_configured")
		return
	}
	d, err := h.gate.Check(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.authFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// adminCaller authenticates the request and requires the admin role. It
// writes the error response itself and returns false on failure.
func (h *Handler) adminCaller(w http.ResponseWriter, r *http.Request, method string) bool {
	if !allowMethod(w, r, method) {
		return false
	}
	if h.gate == nil || h.admin == nil {
		writeErrorMsg(w, http.StatusServiceUnavailable, "auth_not_configured")
		return false
	}
	d, err := h.gate.Check(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.authFailure(w, err)
		return false
	}
	if err := h.admin.RequireAdmin(r.Context(), d.User.ID); err != nil {
		h.adminError(w, err)
		return false
	}
	return true
}

func (h *Handler) authFailure(w http.ResponseWriter, err error) {
	var ae *llmclient.AuthorizationError
	if errors.As(err, &ae) {
		writeErrorMsg(w, ae.Status, ae.Reason)
		return
	}
	h.logger.Error("auth check failed", zap.Error(err))
	writeErrorMsg(w, http.StatusInternalServerError, "auth_check_failed")
}

func (h *Handler) adminError(w http.ResponseWriter, err error) {
	var upd *membership.AuthUpdateError
	switch {
	case errors.Is(err, membership.ErrForbidden):
		writeErrorMsg(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, membership.ErrEmailRequired):
		writeErrorMsg(w, http.StatusUnprocessableEntity, "email_required")
	case errors.Is(err, membership.ErrUserIDRequired):
		writeErrorMsg(w, http.StatusUnprocessableEntity, "user_id_required")
	case errors.Is(err, membership.ErrEmailMissing):
		writeErrorMsg(w, http.StatusUnprocessableEntity, "email_missing")
	case errors.Is(err, membership.ErrUserCreation):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "user_creation_failed", Detail: err.Error()})
	case errors.As(err, &upd):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "auth_update_failed", Detail: upd.Err.Error()})
	default:
		writeError(w, err)
	}
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	if !h.adminCaller(w, r, http.MethodGet) {
		return
	}
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserResponse struct {
	OK bool `json:"ok"`
	membership.CreateUserResult
}

func (h *Handler) AdminCreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.adminCaller(w, r, http.MethodPost) {
		return
	}
	var in membership.CreateUserInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.admin.CreateUser(r.Context(), in)
	if err != nil {
		h.adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createUserResponse{OK: true, CreateUserResult: res})
}

type updateUserResponse struct {
	OK    bool            `json:"ok"`
	Email string          `json:"email"`
	Role  membership.Role `json:"role"`
	Name  string          `json:"name"`
}

func (h *Handler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	if !h.adminCaller(w, r, http.MethodPost) {
		return
	}
	var in membership.UpdateUserInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.admin.UpdateUser(r.Context(), in)
	if err != nil {
		h.adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateUserResponse{OK: true, Email: p.Email, Role: p.Role, Name: p.Name})
}

type userIDRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) AdminRevoke(w http.ResponseWriter, r *http.Request) {
	if !h.adminCaller(w, r, http.MethodPost) {
		return
	}
	var in userIDRequest
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := h.admin.Revoke(r.Context(), in.UserID); err != nil {
		h.adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type resendResponse struct {
	OK bool `json:"ok"`
	membership.ResendResult
}

func (h *Handler) AdminResendMagicLink(w http.ResponseWriter, r *http.Request) {
	if !h.adminCaller(w, r, http.MethodPost) {
		return
	}
	var in userIDRequest
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.admin.ResendMagicLink(r.Context(), in.UserID)
	if err != nil {
		h.adminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resendResponse{OK: true, ResendResult: res})
}
