// Package conversation implements the lead-qualification dialogue: one
// inbound message moves a session through at most one phase transition.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/wah-sales/internal/domain"
	"github.com/ashureev/wah-sales/internal/extraction"
	"github.com/ashureev/wah-sales/internal/store"
	"github.com/ashureev/wah-sales/internal/transcript"
)

// ErrInternal marks a fault that aborted a turn without persisting anything.
var ErrInternal = errors.New("internal conversation fault")

// Reply is the outcome of one turn.
type Reply struct {
	SessionID string         `json:"session_id"`
	Text      string         `json:"response"`
	Phase     domain.Phase   `json:"phase"`
	Data      map[string]any `json:"data,omitempty"`
}

// effect is what a turn does to the stored session.
type effect int

const (
	// leave the stored session untouched.
	effectNone effect = iota
	// store the session in its new phase.
	effectSave
	// delete the session.
	effectDelete
)

// step is the result of a phase handler.
type step struct {
	text   string
	phase  domain.Phase
	data   map[string]any
	effect effect
	lead   *domain.Lead
}

// phaseHandler handles one message for a session in a given phase. It may
// mutate session; the engine persists it according to the returned effect.
type phaseHandler func(ctx context.Context, session *domain.LeadSession, message string) (step, error)

// Engine drives lead sessions through the dialogue.
type Engine struct {
	sessions   store.SessionStore
	leads      store.LeadSink
	extractor  extraction.Extractor
	transcript transcript.Logger
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	locks      *keyedMutex
	handlers   map[domain.Phase]phaseHandler
}

// Option configures an Engine.
type Option func(*Engine)

// WithLeadSink records captured leads.
func WithLeadSink(sink store.LeadSink) Option {
	return func(e *Engine) {
		e.leads = sink
	}
}

// WithTranscript logs every turn.
func WithTranscript(l transcript.Logger) Option {
	return func(e *Engine) {
		e.transcript = l
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator sets how lead ids are made.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// New creates an Engine.
func New(sessions store.SessionStore, extractor extraction.Extractor, opts ...Option) *Engine {
	e := &Engine{
		sessions:   sessions,
		extractor:  extractor,
		transcript: transcript.Nop(),
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
		locks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers = map[domain.Phase]phaseHandler{
		domain.PhaseAskWhoAge:       e.handleAskWhoAge,
		domain.PhaseAskWhoAgeAge:    e.handleAskWhoAgeAge,
		domain.PhaseAskMotivation:   e.handleAskMotivation,
		domain.PhaseAskAvailability: e.handleAskAvailability,
		domain.PhaseProposePlan:     e.handleProposePlan,
		domain.PhaseScheduling:      e.handleScheduling,
	}
	return e
}

// Handle processes one message for sessionID. Turns for the same session id
// are serialized. A returned error means nothing was persisted.
func (e *Engine) Handle(ctx context.Context, sessionID, message string) (reply Reply, err error) {
	unlock, err := e.locks.Lock(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("wait for session %s: %w", sessionID, err)
	}
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Conversation turn panicked",
				"session_id", sessionID,
				"panic", r,
				"stack", string(debug.Stack()))
			reply, err = Reply{}, fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	e.logTurn(ctx, sessionID, transcript.DirectionInbound, "user_message", "", message)

	reply, err = e.turn(ctx, sessionID, message)
	if err != nil {
		return Reply{}, err
	}

	e.logTurn(ctx, sessionID, transcript.DirectionOutbound, "bot_reply", reply.Phase, reply.Text)
	return reply, nil
}

func (e *Engine) turn(ctx context.Context, sessionID, message string) (Reply, error) {
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	if session == nil {
		session = domain.NewLeadSession(sessionID, e.now())
		if err := e.sessions.Put(ctx, session); err != nil {
			return Reply{}, fmt.Errorf("create session %s: %w", sessionID, err)
		}
		e.logger.Info("Lead session started", "session_id", sessionID)
		return Reply{SessionID: sessionID, Text: msgWelcome, Phase: session.Phase}, nil
	}

	handler, ok := e.handlers[session.Phase]
	if !ok {
		e.logger.Warn("Session has unknown phase",
			"session_id", sessionID,
			"phase", string(session.Phase),
			"error", domain.ErrUnknownPhase)
		return Reply{SessionID: sessionID, Text: msgInvalidPhase, Phase: domain.PhaseError}, nil
	}

	from := session.Phase
	st, err := handler(ctx, session, message)
	if err != nil {
		return Reply{}, fmt.Errorf("phase %s: %w", from, err)
	}

	switch st.effect {
	case effectSave:
		session.Phase = st.phase
		session.UpdatedAt = e.now()
		if err := e.sessions.Put(ctx, session); err != nil {
			return Reply{}, fmt.Errorf("save session %s: %w", sessionID, err)
		}
	case effectDelete:
		if err := e.sessions.Delete(ctx, sessionID); err != nil {
			return Reply{}, fmt.Errorf("delete session %s: %w", sessionID, err)
		}
	}

	if from != st.phase {
		e.logger.Info("Phase transition", "session_id", sessionID, "from", string(from), "to", string(st.phase))
	}

	if st.lead != nil {
		e.recordLead(ctx, st.lead)
	}

	return Reply{SessionID: sessionID, Text: st.text, Phase: st.phase, Data: st.data}, nil
}

// CleanupExpired deletes sessions idle longer than ttl. Each candidate is
// re-read under its session lock, so a turn in flight either finishes first
// and refreshes the session or never sees it again.
func (e *Engine) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	ids, err := e.sessions.ListExpired(ctx, ttl)
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	var removed int64
	for _, id := range ids {
		expired, err := e.expire(ctx, id, ttl)
		if err != nil {
			return removed, err
		}
		if expired {
			removed++
		}
	}
	return removed, nil
}

func (e *Engine) expire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	unlock, err := e.locks.Lock(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("wait for session %s: %w", sessionID, err)
	}
	defer unlock()

	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if session == nil || session.IdleFor(e.now()) <= ttl {
		return false, nil
	}
	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	e.logger.Info("Expired idle lead session", "session_id", sessionID, "phase", string(session.Phase))
	return true, nil
}

// recordLead hands the lead to the sink. Failures are logged and never
// change the reply.
func (e *Engine) recordLead(ctx context.Context, lead *domain.Lead) {
	if e.leads == nil {
		return
	}
	if err := e.leads.SaveLead(ctx, lead); err != nil {
		e.logger.Error("Failed to record lead", "session_id", lead.SessionID, "lead_id", lead.ID, "error", err)
		return
	}
	e.logger.Info("Lead captured", "session_id", lead.SessionID, "lead_id", lead.ID, "plan", string(lead.PlanKey))
}

func (e *Engine) logTurn(ctx context.Context, sessionID, direction, eventType string, phase domain.Phase, content string) {
	e.transcript.Log(transcript.Event{
		Timestamp:  e.now().UTC().Format(time.RFC3339Nano),
		SessionID:  sessionID,
		Channel:    ChannelFromContext(ctx),
		Direction:  direction,
		EventType:  eventType,
		Phase:      string(phase),
		ContentRaw: content,
	})
}

type channelKey struct{}

// ContextWithChannel tags ctx with the transport a message arrived on, for
// transcripts.
func ContextWithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

// ChannelFromContext returns the transport tag of ctx, or "direct".
func ChannelFromContext(ctx context.Context) string {
	if channel, ok := ctx.Value(channelKey{}).(string); ok && channel != "" {
		return channel
	}
	return "direct"
}
