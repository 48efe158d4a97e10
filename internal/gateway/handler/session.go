package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"topicgrid/internal/gateway/session"
	"topicgrid/internal/grid"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/prompt"
)

type sessionResponse struct {
	ID    string          `json:"id"`
	State grid.BoardState `json:"state"`
}

func snapshot(s *session.Session) sessionResponse {
	return sessionResponse{ID: s.ID, State: s.Board.Snapshot()}
}

func (h *Handler) session(r *http.Request) (*session.Session, error) {
	return h.sessions.Get(owner(r.Context()), chi.URLParam(r, "id"))
}

type createSessionRequest struct {
	Flow string `json:"flow" validate:"omitempty,oneof=dwhy ninegrid"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	flow := prompt.FlowDWHY
	if req.Flow != "" {
		flow = prompt.Flow(req.Flow)
	}
	s, err := h.sessions.Create(owner(r.Context()), flow)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshot(s))
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(s))
}

// ResetSession clears every keyword, lock and topic; the session id stays valid.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.Board.Reset()
	writeJSON(w, http.StatusOK, snapshot(s))
}

type generateRequest struct {
	Topic string `json:"topic"`
}

// topicOr falls back to the board's topic when the request omits one.
func topicOr(req generateRequest, b *grid.Board) string {
	if t := strings.TrimSpace(req.Topic); t != "" {
		return t
	}
	return b.Topic()
}

// GenerateSession refills every unlocked dimension concurrently.
func (h *Handler) GenerateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req generateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topic := topicOr(req, s.Board)
	if topic == "" {
		writeError(w, pipeline.ErrEmptyTopic)
		return
	}
	ctx := r.Context()
	results := h.gen.GenerateBoard(ctx, h.loadSettings(ctx), s.Board, topic, nil)
	writeJSON(w, http.StatusOK, boardResponse{Results: results, State: s.Board.Snapshot()})
}

// GenerateDimension refills one dimension. A failure is reported in the
// dimension's state as well as in the status code.
func (h *Handler) GenerateDimension(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, ok := s.Board.Dimension(chi.URLParam(r, "dim"))
	if !ok {
		writeError(w, session.ErrNotFound)
		return
	}
	var req generateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	topic := topicOr(req, s.Board)
	if topic == "" {
		writeError(w, pipeline.ErrEmptyTopic)
		return
	}
	s.Board.SetTopic(topic)
	ctx := r.Context()
	if _, err := h.gen.GenerateKeywords(ctx, h.loadSettings(ctx), d, topic); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Snapshot())
}

type lockDimensionRequest struct {
	Locked bool `json:"locked"`
}

// LockDimension excludes a nine-grid dimension from "generate all".
func (h *Handler) LockDimension(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	d, ok := s.Board.Dimension(chi.URLParam(r, "dim"))
	if !ok {
		writeError(w, session.ErrNotFound)
		return
	}
	var req lockDimensionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d.SetLocked(req.Locked)
	writeJSON(w, http.StatusOK, d.Snapshot())
}

// ToggleKeyword flips the selected or locked flag of one keyword.
func (h *Handler) ToggleKeyword(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.session(r)
		if err != nil {
			writeError(w, err)
			return
		}
		kid := chi.URLParam(r, "kid")
		d, ok := s.Board.FindKeyword(kid)
		if !ok {
			writeError(w, grid.ErrKeywordNotFound)
			return
		}
		var kw grid.Keyword
		switch action {
		case "select":
			kw, err = d.ToggleSelect(kid)
		case "lock":
			kw, err = d.ToggleLock(kid)
		default:
			err = errors.New("unknown keyword action " + action)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, kw)
	}
}

type sessionTopicsRequest struct {
	Sets     int  `json:"sets" validate:"required,min=1,max=10"`
	Classify bool `json:"classify"`
}

// SessionTopics synthesizes topics from the board's selection and stores them.
func (h *Handler) SessionTopics(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req sessionTopicsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	st := h.loadSettings(ctx)
	topics, err := h.gen.BoardTopics(ctx, st, s.Board, req.Sets)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := topicsResponse{Topics: topics, Count: req.Sets * pipeline.TopicsPerSet}
	if req.Classify {
		resp.Items = label(topics, h.gen.Classify(ctx, st, topics))
	}
	writeJSON(w, http.StatusOK, resp)
}
