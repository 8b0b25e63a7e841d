package wsocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"sophia_companion_go_backend/internal/auth"
	"sophia_companion_go_backend/internal/chat"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler owns the live chat channel. Each connection walks a small state
// machine: unauthenticated until a valid authenticate event arrives, then
// authenticated until the socket closes. The association is never restored
// across reconnects.
type Handler struct {
	chatService *chat.Service
	authService *auth.Service
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

// clientEvent is a decoded client frame. Token carries the session token
// for authenticate events; the gateway validates it rather than trusting a
// client-asserted user id.
type clientEvent struct {
	Type    string `json:"type"`
	Token   string `json:"token"`
	Content string `json:"content"`
}

type serverEvent struct {
	Type    string      `json:"type"`
	Success bool        `json:"success,omitempty"`
	Message interface{} `json:"message,omitempty"`
}

func NewHandler(chatService *chat.Service, authService *auth.Service, upgrader websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		chatService: chatService,
		authService: authService,
		upgrader:    upgrader,
		log:         logger,
	}
}

// HandleWebSocket runs one connection to completion. Events are handled
// one at a time in arrival order, each through persistence and generation
// before the next is read, so replies for a single channel can never
// interleave.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var userID *uint

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			h.log.Debug().Err(err).Msg("websocket closed")
			return
		}

		var evt clientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			// Malformed frames are dropped without a reply; the channel
			// stays open.
			h.log.Warn().Err(err).Msg("dropping malformed websocket frame")
			continue
		}

		switch evt.Type {
		case "authenticate":
			user, err := h.authService.UserFromToken(evt.Token)
			if err != nil {
				h.writeError(conn, "Invalid session token")
				continue
			}
			id := user.ID
			userID = &id
			h.writeJSON(conn, serverEvent{Type: "authenticated", Success: true})

		case "chat":
			if userID == nil {
				h.writeError(conn, "Not authenticated")
				continue
			}
			h.handleChat(conn, *userID, evt.Content)

		default:
			h.log.Warn().Str("type", evt.Type).Msg("unknown websocket event type")
		}
	}
}

func (h *Handler) handleChat(conn *websocket.Conn, userID uint, content string) {
	// Deliberately not the request context: closing the channel must not
	// cancel an in-flight generation, its result just becomes
	// undeliverable.
	turn, err := h.chatService.ProcessUserMessage(context.Background(), userID, content)
	if err != nil {
		if errors.Is(err, chat.ErrUserNotFound) {
			h.writeError(conn, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("userID", userID).Msg("chat turn failed")
		h.writeError(conn, "Error processing message")
		return
	}

	// Quota rejections ride the normal chat frame so the client transcript
	// needs no special casing.
	h.writeJSON(conn, serverEvent{Type: "chat", Message: turn.AIResponse})
}

func (h *Handler) writeError(conn *websocket.Conn, message string) {
	h.writeJSON(conn, serverEvent{Type: "error", Message: message})
}

func (h *Handler) writeJSON(conn *websocket.Conn, evt serverEvent) {
	if err := conn.WriteJSON(evt); err != nil {
		h.log.Debug().Err(err).Msg("websocket write failed")
	}
}
