package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/wah-sales/internal/conversation"
)

const defaultMaxRequestBodySize = 1 << 20

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// LeadRequest is the body of POST /api/v1/lead. Message must be present but
// may be empty; the opening turn ignores it.
type LeadRequest struct {
	SessionID string  `json:"session_id"`
	Message   *string `json:"message"`
}

// validate checks the request envelope and returns a client-facing message.
func (req LeadRequest) validate() string {
	switch {
	case req.SessionID == "":
		return "session_id is required"
	case !sessionIDPattern.MatchString(req.SessionID):
		return "session_id must be 1-128 characters of letters, digits, '.', '_', ':' or '-'"
	case req.Message == nil:
		return "message is required"
	}
	return ""
}

// LeadHandler serves the lead conversation over HTTP.
type LeadHandler struct {
	conv        Conversation
	limiter     *RateLimiter
	maxBodySize int64
	logger      *slog.Logger
}

// NewLeadHandler creates a lead handler. A non-positive maxBodySize falls
// back to 1MB.
func NewLeadHandler(conv Conversation, limiter *RateLimiter, maxBodySize int64, logger *slog.Logger) *LeadHandler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxRequestBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadHandler{conv: conv, limiter: limiter, maxBodySize: maxBodySize, logger: logger}
}

// RegisterRoutes registers the lead routes.
func (h *LeadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/lead", h.HandleLead)
	r.Post("/api/lead", h.HandleLead)
}

// HandleLead handles one conversation turn.
func (h *LeadHandler) HandleLead(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req LeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := req.validate(); msg != "" {
		Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx := conversation.ContextWithChannel(r.Context(), "http")
	reply, err := h.conv.Handle(ctx, req.SessionID, *req.Message)
	if err != nil {
		h.logger.Error("Lead turn failed",
			"session_id", req.SessionID,
			"request_id", chiMiddleware.GetReqID(r.Context()),
			"error", err)
		Error(w, http.StatusInternalServerError, msgUnexpected)
		return
	}

	JSON(w, http.StatusOK, reply)
}
