package handler

import (
	"net/http"

	llmclient "topicgrid/internal/llm/client"
	"topicgrid/internal/settings"
)

type settingsResponse struct {
	Provider  llmclient.Name   `json:"provider"`
	Providers []llmclient.Name `json:"providers"`
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.loadSettings(r.Context())
	providers := h.providers
	if providers == nil {
		providers = []llmclient.Name{}
	}
	writeJSON(w, http.StatusOK, settingsResponse{Provider: s.Provider, Providers: providers})
}

type putSettingsRequest struct {
	Provider string `json:"provider" validate:"required,oneof=openai deepseek gemini"`
}

// PutSettings persists the caller's provider choice. It is read on the
// next call; calls already in flight keep the provider they started with.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var req putSettingsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	name, _ := llmclient.ParseName(req.Provider)
	s := settings.Settings{Provider: name}
	if err := settings.Save(r.Context(), h.settings, owner(r.Context()), s); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Provider: s.Provider, Providers: h.providers})
}
