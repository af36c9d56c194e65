package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"isoscreen/internal/engine"
	"isoscreen/internal/session"
)

// WatchHandler streams interview progress over a websocket and accepts
// user messages on the same connection.
type WatchHandler struct {
	engine   *engine.Engine
	sessions *session.Store
}

func NewWatchHandler(eng *engine.Engine, sessions *session.Store) *WatchHandler {
	return &WatchHandler{engine: eng, sessions: sessions}
}

const (
	watchWSWriteWait = 10 * time.Second
	watchWSPongWait  = 60 * time.Second
	watchWSPingEvery = (watchWSPongWait * 9) / 10
)

var watchWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type watchWSInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type watchWSOutbound struct {
	Type      string             `json:"type"`
	SessionID string             `json:"sessionId,omitempty"`
	Turn      *engine.TurnResult `json:"turn,omitempty"`
	State     *session.State     `json:"state,omitempty"`
	Code      string             `json:"code,omitempty"`
	Message   string             `json:"message,omitempty"`
}

func pushWatchWS(out chan watchWSOutbound, msg watchWSOutbound) {
	select {
	case out <- msg:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- msg:
	default:
	}
}

func (h *WatchHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	if _, err := h.sessions.View(sessionID); err != nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := watchWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(watchWSPongWait)); err != nil {
		log.Printf("interview ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchWSPongWait))
	})

	writeCh := make(chan watchWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(watchWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(watchWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	pushWatchWS(writeCh, watchWSOutbound{Type: "subscribed", SessionID: sessionID})

	// state watcher: wake on every mutation and push a fresh snapshot
	go func() {
		for {
			changed, err := h.sessions.Watch(sessionID)
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
			st, err := h.sessions.View(sessionID)
			if err != nil {
				return
			}
			pushWatchWS(writeCh, watchWSOutbound{Type: "state", SessionID: sessionID, State: st})
			if st.Complete {
				return
			}
		}
	}()

	for {
		var in watchWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushWatchWS(writeCh, watchWSOutbound{Type: "pong"})
		case "send":
			res, err := h.engine.ProcessTurn(ctx, sessionID, in.Message)
			if err != nil {
				pushWatchWS(writeCh, watchWSOutbound{
					Type:    "error",
					Code:    "internal",
					Message: err.Error(),
				})
				continue
			}
			pushWatchWS(writeCh, watchWSOutbound{Type: "turn", SessionID: sessionID, Turn: &res})
		default:
			pushWatchWS(writeCh, watchWSOutbound{
				Type:    "error",
				Code:    "invalid_argument",
				Message: "unknown message type",
			})
		}
	}
}
