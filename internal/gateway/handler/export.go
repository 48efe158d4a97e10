package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"topicgrid/internal/export"
	"topicgrid/internal/prompt"
)

type exportRequest struct {
	Flow   string   `json:"flow" validate:"omitempty,oneof=dwhy ninegrid"`
	Topic  string   `json:"topic"`
	Topics []string `json:"topics" validate:"required,min=1"`
	Format string   `json:"format" validate:"omitempty,oneof=txt csv json"`
}

type exportResponse struct {
	export.Record
	// Download is the gateway path serving the file.
	Download string `json:"download"`
}

// Export renders topics and stores the file for download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	f, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	flow := prompt.FlowDWHY
	if req.Flow != "" {
		flow = prompt.Flow(req.Flow)
	}
	rec, _, err := h.exporter.Save(r.Context(), f, export.Document{Flow: flow, Topic: req.Topic, Topics: req.Topics})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exportResponse{Record: rec, Download: "/api/exports/" + rec.ID})
}

// Download serves a stored export as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name, body, err := h.exporter.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	ct := "application/octet-stream"
	if f, err := export.ParseFormat(strings.TrimPrefix(path.Ext(name), ".")); err == nil {
		ct = f.ContentType()
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
