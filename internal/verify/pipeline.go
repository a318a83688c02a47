// ABOUTME: Verification pipeline - three-document upload then a single verify call
// ABOUTME: Non-atomic by backend contract; partial uploads orphan server-side on failure

package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State names the pipeline's position in the upload-then-verify flow.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateUploading  State = "uploading"
	StateVerifying  State = "verifying"
	StateVerified   State = "verified"
	StateFailed     State = "failed"
)

var (
	// ErrMissingDocuments rejects submission before any network call when
	// the triple is incomplete.
	ErrMissingDocuments = errors.New("all three documents are required: CNIC front, CNIC back, and selfie")

	// ErrNoSession rejects submission without a session identity; the
	// verify call cannot be correlated to a conversation otherwise.
	ErrNoSession = errors.New("no session identity set")

	// ErrVerificationFailed is the backend answering verified=false. A
	// normal outcome, not a transport error: the user resubmits.
	ErrVerificationFailed = errors.New("identity verification failed")
)

// Uploader is what the pipeline needs from the API layer.
type Uploader interface {
	UploadCNIC(ctx context.Context, path string) (string, error)
	UploadSelfie(ctx context.Context, path string) (string, error)
	VerifyFace(ctx context.Context, sessionID, cnicURL, cnicBackURL, selfieURL string) (bool, error)
}

// Resumer continues the booking conversation after a verified outcome.
type Resumer interface {
	ResumeAfterVerification(ctx context.Context) (string, error)
}

// SessionSource supplies the current session identity.
type SessionSource interface {
	Get() string
}

// Pipeline owns one verification attempt at a time: the document triple,
// the state machine, and the resumption hook.
type Pipeline struct {
	uploader Uploader
	resumer  Resumer
	sessions SessionSource
	logger   *slog.Logger

	mu                  sync.Mutex
	state               State
	front, back, selfie string
}

// New creates an idle pipeline.
func New(uploader Uploader, resumer Resumer, sessions SessionSource, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		uploader: uploader,
		resumer:  resumer,
		sessions: sessions,
		logger:   logger.With("component", "verify"),
		state:    StateIdle,
	}
}

// Begin starts a fresh collection. The triple is cleared here and only
// here: a failed attempt keeps the chosen files so the user need not
// pick them again.
func (p *Pipeline) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.front, p.back, p.selfie = "", "", ""
	p.state = StateCollecting
}

// SetFront records the CNIC front file path.
func (p *Pipeline) SetFront(path string) { p.setDoc(&p.front, path) }

// SetBack records the CNIC back file path.
func (p *Pipeline) SetBack(path string) { p.setDoc(&p.back, path) }

// SetSelfie records the selfie file path.
func (p *Pipeline) SetSelfie(path string) { p.setDoc(&p.selfie, path) }

func (p *Pipeline) setDoc(slot *string, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	*slot = path
}

// Documents returns the currently attached triple.
func (p *Pipeline) Documents() (front, back, selfie string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.front, p.back, p.selfie
}

// State returns the pipeline's current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Submit runs the three uploads and the verify call. Every attempt
// re-uploads all three documents, even ones that uploaded fine on a
// previous failed attempt.
//
// The three uploads and the verify call are not transactional: when a
// later step fails, documents uploaded earlier stay orphaned server-side.
// The contract offers no compensating delete, so the gap is logged rather
// than papered over.
func (p *Pipeline) Submit(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.front == "" || p.back == "" || p.selfie == "" {
		return ErrMissingDocuments
	}
	sessionID := p.sessions.Get()
	if sessionID == "" {
		return ErrNoSession
	}

	p.state = StateUploading

	frontURL, err := p.uploader.UploadCNIC(ctx, p.front)
	if err != nil {
		return p.fail(0, fmt.Errorf("uploading CNIC front: %w", err))
	}
	backURL, err := p.uploader.UploadCNIC(ctx, p.back)
	if err != nil {
		return p.fail(1, fmt.Errorf("uploading CNIC back: %w", err))
	}
	selfieURL, err := p.uploader.UploadSelfie(ctx, p.selfie)
	if err != nil {
		return p.fail(2, fmt.Errorf("uploading selfie: %w", err))
	}

	p.state = StateVerifying
	verified, err := p.uploader.VerifyFace(ctx, sessionID, frontURL, backURL, selfieURL)
	if err != nil {
		return p.fail(3, fmt.Errorf("verify call: %w", err))
	}
	if !verified {
		p.state = StateFailed
		p.logger.Info("verification rejected by backend", "session_id", sessionID)
		return ErrVerificationFailed
	}

	p.state = StateVerified
	p.logger.Info("identity verified", "session_id", sessionID)

	if _, err := p.resumer.ResumeAfterVerification(ctx); err != nil {
		// Verification itself succeeded; only the follow-up chat turn
		// failed. The state stays Verified.
		return fmt.Errorf("resuming conversation: %w", err)
	}
	return nil
}

// fail records a failed attempt. The triple is retained; the caller may
// resubmit directly.
func (p *Pipeline) fail(uploaded int, err error) error {
	if uploaded > 0 {
		p.logger.Warn("partial upload orphaned server-side, no compensating delete in contract",
			"uploaded_documents", uploaded)
	}
	p.state = StateFailed
	return err
}
