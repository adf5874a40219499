package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/services"
)

const (
	wsReadLimit    = 64 * 1024
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// wsPongWait is how long the connection may stay silent between frames.
// Time spent running a turn does not count against it.
var wsPongWait = 90 * time.Second

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatClientMessage is one frame from the client.
type ChatClientMessage struct {
	Type      string `json:"type"` // "message" or "ping"
	Role      string `json:"role"`
	Message   string `json:"message"`
	ThreadRef string `json:"thread_ref,omitempty"`
}

// ChatServerMessage is one frame to the client.
type ChatServerMessage struct {
	Type        string      `json:"type"` // "response", "error" or "pong"
	Role        models.Role `json:"role,omitempty"`
	ThreadRef   string      `json:"thread_ref,omitempty"`
	Response    string      `json:"response,omitempty"`
	PlanUpdated bool        `json:"plan_updated,omitempty"`
	Version     int         `json:"version,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// wsWriter serializes writes; gorilla allows one concurrent writer and plan
// events arrive from other goroutines.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) WriteJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteJSON(v)
}

// ChatWebSocket runs chat turns over a WebSocket. Frames are handled one at a
// time, so turns from one connection are applied in the order sent. The
// connection also receives plan_changed events for the user.
// Authentication is done by RequireSession (Bearer header or ?token=).
func (h *Handler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	conn, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	out := &wsWriter{conn: conn}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connRef := uuid.NewString()
	log := h.log.With("user_id", userID, "conn", connRef)
	log.Debug("chat websocket connected")

	if h.events != nil {
		unsubscribe := h.events.Subscribe(userID, out)
		defer unsubscribe()
	}

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("chat websocket closed", "error", err)
			return
		}
		h.handleWSFrame(ctx, out, userID, connRef, data)

		// Pongs are only handled inside ReadMessage; restart the deadline
		// once the frame, possibly a long turn, is done.
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
}

func (h *Handler) handleWSFrame(ctx context.Context, out *wsWriter, userID, connRef string, data []byte) {
	var msg ChatClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.writeFrame(out, ChatServerMessage{Type: "error", Error: "invalid frame"})
		return
	}

	switch msg.Type {
	case "message", "":
		if msg.ThreadRef == "" {
			msg.ThreadRef = connRef
		}
		h.writeFrame(out, h.handleWSTurn(ctx, userID, msg))
	case "ping":
		h.writeFrame(out, ChatServerMessage{Type: "pong"})
	default:
		// Ignore unknown types
	}
}

func (h *Handler) handleWSTurn(ctx context.Context, userID string, msg ChatClientMessage) ChatServerMessage {
	role, ok := models.ParseRole(msg.Role)
	if !ok {
		return ChatServerMessage{Type: "error", ThreadRef: msg.ThreadRef, Error: "unknown role: " + msg.Role}
	}
	if h.turns != nil && !h.turns.Allow(userID) {
		return ChatServerMessage{Type: "error", Role: role, ThreadRef: msg.ThreadRef, Error: "too many chat messages, please slow down"}
	}

	res, err := h.coach.Chat(ctx, services.TurnRequest{
		UserID:    userID,
		Role:      role,
		Message:   msg.Message,
		ThreadRef: msg.ThreadRef,
	})
	if err != nil {
		if apperr.KindOf(err) == "" {
			h.log.Error("websocket turn failed", "user_id", userID, "role", role, "error", err)
		}
		return ChatServerMessage{Type: "error", Role: role, ThreadRef: msg.ThreadRef, Error: apperr.PublicMessage(err)}
	}
	return ChatServerMessage{
		Type:        "response",
		Role:        role,
		ThreadRef:   msg.ThreadRef,
		Response:    res.Response,
		PlanUpdated: res.PlanUpdated,
		Version:     res.Plan.Version,
	}
}

func (h *Handler) writeFrame(out *wsWriter, frame ChatServerMessage) {
	if err := out.WriteJSON(frame); err != nil {
		h.log.Debug("websocket write failed", "error", err)
	}
}
