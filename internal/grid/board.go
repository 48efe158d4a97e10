package grid

import (
	"sync"

	"topicgrid/internal/prompt"
)

// Board is one user's set of dimensions for a flow plus the topics last
// synthesized from it.
type Board struct {
	flow prompt.Flow
	defs []prompt.Dimension
	dims []*Dimension

	mu     sync.Mutex
	topic  string
	topics []string
}

// NewBoard returns nil for an unknown flow.
func NewBoard(flow prompt.Flow) *Board {
	defs := prompt.Dimensions(flow)
	if defs == nil {
		return nil
	}
	b := &Board{flow: flow, defs: defs}
	for _, def := range defs {
		b.dims = append(b.dims, NewDimension(def.ID))
	}
	return b
}

func (b *Board) Flow() prompt.Flow { return b.flow }

func (b *Board) Dimension(id string) (*Dimension, bool) {
	for _, d := range b.dims {
		if d.id == id {
			return d, true
		}
	}
	return nil, false
}

// Dimensions returns the columns in display order.
func (b *Board) Dimensions() []*Dimension {
	return append([]*Dimension(nil), b.dims...)
}

// FindKeyword returns the dimension holding keyword id.
func (b *Board) FindKeyword(id string) (*Dimension, bool) {
	for _, d := range b.dims {
		if d.Has(id) {
			return d, true
		}
	}
	return nil, false
}

func (b *Board) SetTopic(topic string) {
	b.mu.Lock()
	b.topic = topic
	b.mu.Unlock()
}

func (b *Board) Topic() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topic
}

func (b *Board) SetTopics(topics []string) {
	b.mu.Lock()
	b.topics = append([]string(nil), topics...)
	b.mu.Unlock()
}

func (b *Board) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.topics...)
}

// Selection is the keyword map handed to topic synthesis. The three-column
// flow uses selected keywords only. The nine-grid flow uses a dimension's
// selection when it has one and all of its keywords otherwise.
func (b *Board) Selection() map[string][]string {
	out := make(map[string][]string, len(b.dims))
	for _, d := range b.dims {
		vals := d.SelectedValues()
		if len(vals) == 0 && b.flow == prompt.FlowNineGrid {
			vals = d.Values()
		}
		if len(vals) > 0 {
			out[d.id] = vals
		}
	}
	return out
}

// Reset clears every dimension, the topic and the topics.
func (b *Board) Reset() {
	for _, d := range b.dims {
		d.Reset()
		d.SetLocked(false)
	}
	b.mu.Lock()
	b.topic = ""
	b.topics = nil
	b.mu.Unlock()
}

type BoardState struct {
	Flow       prompt.Flow      `json:"flow"`
	Topic      string           `json:"topic"`
	Dimensions []DimensionState `json:"dimensions"`
	Topics     []string         `json:"topics"`
}

func (b *Board) Snapshot() BoardState {
	st := BoardState{Flow: b.flow, Topic: b.Topic(), Topics: b.Topics()}
	if st.Topics == nil {
		st.Topics = []string{}
	}
	for i, d := range b.dims {
		ds := d.Snapshot()
		ds.Name = b.defs[i].Name
		st.Dimensions = append(st.Dimensions, ds)
	}
	return st
}
