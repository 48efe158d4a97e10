package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"topicgrid/internal/export"
	"topicgrid/internal/gateway/session"
	"topicgrid/internal/grid"
	"topicgrid/internal/llm"
	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/membership"
	"topicgrid/internal/parse"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/prompt"
	"topicgrid/internal/util/jsonutil"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, `{"error":"encode_failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// allowMethod answers 405 with an Allow header when r.Method is not method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeErrorMsg(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	return false
}

// decode reads a JSON body into v and runs its validate tags. An empty body
// decodes as {}.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &requestError{msg: "invalid_json", detail: err.Error()}
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// requestError is a client mistake reported as 422.
type requestError struct {
	msg    string
	detail string
}

func (e *requestError) Error() string {
	if e.detail == "" {
		return e.msg
	}
	return e.msg + ": " + e.detail
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{msg: "invalid_request", detail: err.Error()}
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		parts = append(parts, formatFieldError(e))
	}
	return &requestError{msg: "invalid_request", detail: strings.Join(parts, "; ")}
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// writeError maps domain errors to HTTP answers.
func writeError(w http.ResponseWriter, err error) {
	var (
		reqErr  *requestError
		cfgErr  *llmclient.ConfigurationError
		authErr *llmclient.AuthorizationError
		upErr   *llmclient.UpstreamError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: reqErr.msg, Detail: reqErr.detail})
	case errors.As(err, &cfgErr):
		writeErrorMsg(w, http.StatusInternalServerError, cfgErr.Key+" not configured")
	case errors.As(err, &authErr):
		writeErrorMsg(w, authErr.Status, authErr.Reason)
	case errors.As(err, &upErr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "upstream_error", Status: upErr.Status, Body: upErr.Body})
	case errors.Is(err, llm.ErrCircuitOpen):
		writeErrorMsg(w, http.StatusServiceUnavailable, "provider_unavailable")
	case errors.Is(err, parse.ErrParse), errors.Is(err, llmclient.ErrEmptyCompletion):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "generation_failed", Detail: err.Error()})
	case errors.Is(err, pipeline.ErrStale):
		writeErrorMsg(w, http.StatusConflict, "stale")
	case errors.Is(err, prompt.ErrInvalidParams),
		errors.Is(err, pipeline.ErrInvalidSets),
		errors.Is(err, pipeline.ErrNoSelection),
		errors.Is(err, pipeline.ErrEmptyTopic),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, session.ErrUnknownFlow):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid_request", Detail: err.Error()})
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, grid.ErrKeywordNotFound),
		errors.Is(err, export.ErrNotFound),
		errors.Is(err, membership.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Detail: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorMsg(w, http.StatusGatewayTimeout, "timeout")
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "server_error", Detail: err.Error()})
	}
}
