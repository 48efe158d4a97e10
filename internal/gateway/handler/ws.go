package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"topicgrid/internal/gateway/session"
	"topicgrid/internal/grid"
	"topicgrid/internal/pipeline"
	"topicgrid/internal/prompt"
)

const (
	generateWSWriteWait = 10 * time.Second
	generateWSPongWait  = 60 * time.Second
	generateWSPingEvery = (generateWSPongWait * 9) / 10
)

var generateWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type generateWSInbound struct {
	Type      string `json:"type"`
	Topic     string `json:"topic,omitempty"`
	Flow      string `json:"flow,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type generateWSOutbound struct {
	Type      string                    `json:"type"`
	SessionID string                    `json:"sessionId,omitempty"`
	Topic     string                    `json:"topic,omitempty"`
	Result    *pipeline.DimensionResult `json:"result,omitempty"`
	State     *grid.BoardState          `json:"state,omitempty"`
	Code      string                    `json:"code,omitempty"`
	Message   string                    `json:"message,omitempty"`
}

// GenerateWS streams a board-wide generation: one "dimension" event per
// dimension as it finishes, then "done" with the board state. A new
// "generate" message cancels the one in flight.
func (h *Handler) GenerateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := generateWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	user := owner(ctx)

	if err := conn.SetReadDeadline(time.Now().Add(generateWSPongWait)); err != nil {
		h.logger.Warn("generate ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(generateWSPongWait))
	})

	writeCh := make(chan generateWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(generateWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(generateWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	var (
		mu      sync.Mutex
		stopRun context.CancelFunc = func() {}
	)
	defer func() {
		mu.Lock()
		stopRun()
		mu.Unlock()
	}()

	for {
		var in generateWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushGenerateWS(writeCh, generateWSOutbound{Type: "pong"})
		case "generate":
			sess, topic, err := h.wsSession(user, in)
			if err != nil {
				pushGenerateWS(writeCh, generateWSOutbound{Type: "error", Code: "invalid_argument", Message: err.Error()})
				continue
			}
			runCtx, runCancel := context.WithCancel(ctx)
			mu.Lock()
			stopRun()
			stopRun = runCancel
			mu.Unlock()
			go h.streamBoard(runCtx, writeCh, sess, topic)
		case "":
			pushGenerateWS(writeCh, generateWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
		default:
			pushGenerateWS(writeCh, generateWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

// wsSession resolves the board a generate message targets: an existing
// session when sessionId is set, otherwise a fresh one.
func (h *Handler) wsSession(user string, in generateWSInbound) (*session.Session, string, error) {
	var (
		sess *session.Session
		err  error
	)
	if id := strings.TrimSpace(in.SessionID); id != "" {
		sess, err = h.sessions.Get(user, id)
	} else {
		flow := prompt.FlowDWHY
		if f := strings.TrimSpace(in.Flow); f != "" {
			var ok bool
			if flow, ok = prompt.ParseFlow(f); !ok {
				return nil, "", session.ErrUnknownFlow
			}
		}
		sess, err = h.sessions.Create(user, flow)
	}
	if err != nil {
		return nil, "", err
	}
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = sess.Board.Topic()
	}
	if topic == "" {
		return nil, "", pipeline.ErrEmptyTopic
	}
	return sess, topic, nil
}

func (h *Handler) streamBoard(ctx context.Context, writeCh chan generateWSOutbound, sess *session.Session, topic string) {
	pushGenerateWS(writeCh, generateWSOutbound{Type: "started", SessionID: sess.ID, Topic: topic})
	h.gen.GenerateBoard(ctx, h.loadSettings(ctx), sess.Board, topic, dimensionEvents(ctx, writeCh, sess.ID))
	if ctx.Err() != nil {
		return
	}
	state := sess.Board.Snapshot()
	pushGenerateWS(writeCh, generateWSOutbound{Type: "done", SessionID: sess.ID, State: &state})
}

// dimensionEvents forwards finished dimensions until ctx is cancelled; a
// superseded run goes quiet so its results cannot interleave with the next.
func dimensionEvents(ctx context.Context, writeCh chan generateWSOutbound, sessionID string) func(pipeline.DimensionResult) {
	return func(res pipeline.DimensionResult) {
		if ctx.Err() != nil {
			return
		}
		pushGenerateWS(writeCh, generateWSOutbound{Type: "dimension", SessionID: sessionID, Result: &res})
	}
}

// pushGenerateWS never blocks; when the buffer is full the oldest event is dropped.
func pushGenerateWS(writeCh chan generateWSOutbound, out generateWSOutbound) {
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
