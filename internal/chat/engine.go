// ABOUTME: Conversation engine for the booking dialogue
// ABOUTME: Serializes sends, scans replies for the verification trigger, owns the gate

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrEmptyMessage rejects empty or whitespace-only input before any
	// network call.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoSession rejects sends while no session identity is set. There
	// are no anonymous sessions.
	ErrNoSession = errors.New("no session identity set")
)

// finalizeMessage is the synthetic user turn injected after a successful
// verification, instructing the agent to complete the booking.
const finalizeMessage = "Documents uploaded and verified successfully. " +
	"Please proceed to finalize my booking now and provide the booking ID."

// BackendClient is what the engine needs from the API layer.
type BackendClient interface {
	Chat(ctx context.Context, message, sessionID string) (string, error)
}

// SessionSource supplies the current session identity on every send, so
// the correlation key is an explicit input rather than ambient state.
type SessionSource interface {
	Get() string
}

// Engine drives the booking conversation: it owns the append-only log,
// the send/receive cycle, and the verification gate.
type Engine struct {
	client   BackendClient
	sessions SessionSource
	log      *Log
	logger   *slog.Logger

	// sendMu serializes sends so the log order always reflects
	// conversational causality.
	sendMu sync.Mutex

	gateOpen atomic.Bool
}

// New creates an engine with a freshly seeded log.
func New(client BackendClient, sessions SessionSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		client:   client,
		sessions: sessions,
		log:      NewLog(),
		logger:   logger.With("component", "chat"),
	}
}

// Messages returns the conversation so far, in append order.
func (e *Engine) Messages() []Message {
	return e.log.Messages()
}

// Send submits one user turn and returns the agent's reply.
//
// Validation failures (empty text, missing session identity) are local:
// nothing is appended and no request is issued. On transport failure the
// user's turn stays in the log unanswered; nothing is rolled back and no
// retry is attempted.
func (e *Engine) Send(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	sessionID := e.sessions.Get()
	if sessionID == "" {
		return "", ErrNoSession
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	userMsg := e.log.Append(RoleUser, text)
	e.logger.Debug("user turn appended", "message_id", userMsg.ID, "session_id", sessionID)

	reply, err := e.client.Chat(ctx, text, sessionID)
	if err != nil {
		return "", fmt.Errorf("chat send failed: %w", err)
	}

	modelMsg := e.log.Append(RoleModel, reply)
	e.logger.Debug("model turn appended", "message_id", modelMsg.ID)

	// The agent is the sole authority on when documents are needed; the
	// client only infers it from the reply text.
	if NeedsDocuments(reply) {
		e.OpenGate()
	}
	return reply, nil
}

// GateOpen reports whether the verification flow should be presented.
func (e *Engine) GateOpen() bool {
	return e.gateOpen.Load()
}

// OpenGate opens the verification gate. Idempotent: opening an already
// open gate is a no-op.
func (e *Engine) OpenGate() {
	if e.gateOpen.CompareAndSwap(false, true) {
		e.logger.Debug("verification gate opened")
	}
}

// CloseGate closes the gate. Called on explicit user cancellation and on
// verified success; nothing else closes it.
func (e *Engine) CloseGate() {
	if e.gateOpen.CompareAndSwap(true, false) {
		e.logger.Debug("verification gate closed")
	}
}

// ResumeAfterVerification closes the gate and pushes the fixed synthetic
// user turn through the normal send path, producing one more model reply.
func (e *Engine) ResumeAfterVerification(ctx context.Context) (string, error) {
	e.CloseGate()
	return e.Send(ctx, finalizeMessage)
}
