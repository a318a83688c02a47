// ABOUTME: Message and Log types for the booking conversation
// ABOUTME: The log is append-only and ordered - turns are never edited, removed, or reordered

package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single conversation turn.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// WelcomeMessage is the single seeded model turn. It is hardcoded
// client-side and never requested from the backend, so the agent cannot
// produce a duplicate welcome on load.
const WelcomeMessage = "Welcome to Asghar Autos! 🚗 I'm here to help you book your perfect ride. " +
	"To get started, could you please tell me: * What **Car Type** you are interested in " +
	"(Economy, Sedan, or SUV)? * Your desired **Pickup Date**? * And your **Return Date**?"

// Log is the ordered, append-only message history for one session.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

// NewLog returns a log seeded with exactly one welcome turn.
func NewLog() *Log {
	l := &Log{}
	l.Append(RoleModel, WelcomeMessage)
	return l
}

// Append adds a turn to the end of the log and returns it.
func (l *Log) Append(role Role, content string) Message {
	msg := Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a copy of the log in append order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of turns in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
