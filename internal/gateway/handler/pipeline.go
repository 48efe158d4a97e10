package handler

import (
	"net/http"

	"topicgrid/internal/classify"
	"topicgrid/internal/grid"
	"topicgrid/internal/lang"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/prompt"
)

type keywordsRequest struct {
	Dimension string   `json:"dimension" validate:"required"`
	Topic     string   `json:"topic" validate:"required"`
	Locked    []string `json:"locked" validate:"max=8"`
}

type keywordsResponse struct {
	Dimension string         `json:"dimension"`
	Keywords  []grid.Keyword `json:"keywords"`
}

// Keywords generates one dimension's keywords, keeping the locked values.
func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	var req keywordsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	kws, err := h.gen.Keywords(r.Context(), h.loadSettings(r.Context()), req.Dimension, req.Topic, req.Locked)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keywordsResponse{Dimension: req.Dimension, Keywords: kws})
}

type topicsRequest struct {
	Flow     string              `json:"flow" validate:"omitempty,oneof=dwhy ninegrid"`
	Topic    string              `json:"topic"`
	Selected map[string][]string `json:"selected" validate:"required"`
	Sets     int                 `json:"sets" validate:"required,min=1,max=10"`
	Classify bool                `json:"classify"`
}

type classifiedTopic struct {
	Topic    string            `json:"topic"`
	Category classify.Category `json:"category"`
	Label    string            `json:"label"`
}

type topicsResponse struct {
	Topics []string          `json:"topics"`
	Count  int               `json:"count"`
	Items  []classifiedTopic `json:"items,omitempty"`
}

// Topics synthesizes sets×6 topics from a keyword selection.
func (h *Handler) Topics(w http.ResponseWriter, r *http.Request) {
	var req topicsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.topics(w, r, pipeline.TopicRequest{
		Flow:     prompt.Flow(req.Flow),
		Topic:    req.Topic,
		Selected: req.Selected,
		Sets:     req.Sets,
	}, req.Classify)
}

type nineGridTopicsRequest struct {
	Topic    string              `json:"topic" validate:"required"`
	Selected map[string][]string `json:"selected" validate:"required"`
	Sets     int                 `json:"sets" validate:"required,min=1,max=10"`
}

func (h *Handler) NineGridTopics(w http.ResponseWriter, r *http.Request) {
	var req nineGridTopicsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.topics(w, r, pipeline.TopicRequest{
		Flow:     prompt.FlowNineGrid,
		Topic:    req.Topic,
		Selected: req.Selected,
		Sets:     req.Sets,
	}, false)
}

func (h *Handler) topics(w http.ResponseWriter, r *http.Request, req pipeline.TopicRequest, withCategories bool) {
	ctx := r.Context()
	s := h.loadSettings(ctx)
	topics, err := h.gen.GenerateTopics(ctx, s, req)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := topicsResponse{Topics: topics, Count: req.Count()}
	if withCategories {
		resp.Items = label(topics, h.gen.Classify(ctx, s, topics))
	}
	writeJSON(w, http.StatusOK, resp)
}

func label(topics []string, cats []classify.Category) []classifiedTopic {
	out := make([]classifiedTopic, len(topics))
	for i, t := range topics {
		c := classify.Curiosity
		if i < len(cats) {
			c = cats[i]
		}
		out[i] = classifiedTopic{Topic: t, Category: c, Label: c.Label(lang.IsCJK(t))}
	}
	return out
}

type classifyRequest struct {
	Topics []string `json:"topics" validate:"required,min=1,max=200,dive,required"`
}

// Classify labels each topic with a narrative category; it only fails on a
// bad request.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	cats := h.gen.Classify(ctx, h.loadSettings(ctx), req.Topics)
	writeJSON(w, http.StatusOK, map[string]any{"items": label(req.Topics, cats)})
}

type contentPlanRequest struct {
	Topic string `json:"topic" validate:"required"`
}

func (h *Handler) ContentPlan(w http.ResponseWriter, r *http.Request) {
	var req contentPlanRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()
	plan, err := h.gen.ContentPlan(ctx, h.loadSettings(ctx), req.Topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type nineGridKeywordsRequest struct {
	Topic string `json:"topic" validate:"required"`
	// Locked keeps these values per dimension; they count toward its eight.
	Locked map[string][]string `json:"locked"`
	// LockedDimensions are skipped entirely; their Locked values are kept.
	LockedDimensions []string `json:"lockedDimensions"`
}

type boardResponse struct {
	Results []pipeline.DimensionResult `json:"results"`
	State   grid.BoardState            `json:"state"`
}

// NineGridKeywords fills all eight trigger dimensions concurrently.
func (h *Handler) NineGridKeywords(w http.ResponseWriter, r *http.Request) {
	var req nineGridKeywordsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b := grid.NewBoard(prompt.FlowNineGrid)
	for id, values := range req.Locked {
		d, ok := b.Dimension(id)
		if !ok {
			writeErrorMsg(w, http.StatusUnprocessableEntity, "unknown dimension "+id)
			return
		}
		for _, k := range d.Merge(values) {
			_, _ = d.ToggleLock(k.ID)
		}
	}
	for _, id := range req.LockedDimensions {
		d, ok := b.Dimension(id)
		if !ok {
			writeErrorMsg(w, http.StatusUnprocessableEntity, "unknown dimension "+id)
			return
		}
		d.SetLocked(true)
	}
	ctx := r.Context()
	results, err := h.gen.GenerateNineGridKeywords(ctx, h.loadSettings(ctx), b, req.Topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, boardResponse{Results: results, State: b.Snapshot()})
}
