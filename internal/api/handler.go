// Package api provides the HTTP and WebSocket boundary of the lead service.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/ashureev/wah-sales/internal/conversation"
)

// msgUnexpected is the only detail a client sees for an internal failure.
const msgUnexpected = "Ocurrió un error inesperado. Por favor, intenta de nuevo más tarde."

// Conversation runs one dialogue turn.
type Conversation interface {
	Handle(ctx context.Context, sessionID, message string) (conversation.Reply, error)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
