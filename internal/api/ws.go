package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"

	"github.com/ashureev/wah-sales/internal/conversation"
)

// wsMessage is a client frame.
type wsMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   *string `json:"message,omitempty"`
}

// wsReply is a reply frame carrying the HTTP reply envelope.
type wsReply struct {
	Type string `json:"type"`
	conversation.Reply
}

// WebSocketHandler serves the lead conversation over a WebSocket.
type WebSocketHandler struct {
	conv           Conversation
	limiter        *RateLimiter
	allowedOrigins []string
	maxMessageSize int64
	logger         *slog.Logger
}

// NewWebSocketHandler creates a WebSocket handler. allowedOrigins follow the
// CORS setting; "*" accepts any origin.
func NewWebSocketHandler(conv Conversation, limiter *RateLimiter, allowedOrigins []string, maxMessageSize int64, logger *slog.Logger) *WebSocketHandler {
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxRequestBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		conv:           conv,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
		maxMessageSize: maxMessageSize,
		logger:         logger,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns(),
	})
	if err != nil {
		h.logger.Warn("Failed to accept WebSocket", "error", err, "ip", ip)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()
	ws.SetReadLimit(h.maxMessageSize)

	h.logger.Info("Lead WebSocket connected", "ip", ip)
	h.readLoop(r.Context(), ws, ip)
}

func (h *WebSocketHandler) originPatterns() []string {
	var patterns []string
	for _, o := range h.allowedOrigins {
		if o == "*" {
			return []string{"*"}
		}
		if host := stripScheme(o); host != "" {
			patterns = append(patterns, host)
		}
	}
	return patterns
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, ip string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "ip", ip)
			} else if ctx.Err() == nil {
				h.logger.Warn("WebSocket read error", "error", err, "ip", ip)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if !h.writeJSON(ctx, ws, map[string]string{"type": "error", "error": "invalid message"}) {
				return
			}
			continue
		}

		var out any
		switch msg.Type {
		case "ping":
			out = map[string]string{"type": "pong"}
		case "message":
			out = h.turn(ctx, msg, ip)
		default:
			out = map[string]string{"type": "error", "error": "unknown message type"}
		}
		if !h.writeJSON(ctx, ws, out) {
			return
		}
	}
}

func (h *WebSocketHandler) turn(ctx context.Context, msg wsMessage, ip string) any {
	if h.limiter != nil && !h.limiter.Allow(ip) {
		return map[string]string{"type": "error", "error": "rate limit exceeded"}
	}
	req := LeadRequest{SessionID: msg.SessionID, Message: msg.Message}
	if problem := req.validate(); problem != "" {
		return map[string]string{"type": "error", "error": problem}
	}

	reply, err := h.conv.Handle(conversation.ContextWithChannel(ctx, "websocket"), req.SessionID, *req.Message)
	if err != nil {
		h.logger.Error("Lead turn failed", "session_id", req.SessionID, "error", err)
		return map[string]string{"type": "error", "error": msgUnexpected}
	}
	return wsReply{Type: "reply", Reply: reply}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("Failed to marshal WebSocket frame", "error", err)
		return false
	}
	if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
		h.logger.Debug("WebSocket write error", "error", err)
		return false
	}
	return true
}

func stripScheme(origin string) string {
	return strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
}
