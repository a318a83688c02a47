// ABOUTME: Tests for the verification pipeline state machine
// ABOUTME: Validation gates, non-atomic upload behavior, and resumption on success

package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUploader implements Uploader with scriptable failures
type mockUploader struct {
	cnicCalls   int
	selfieCalls int
	verifyCalls int

	failCNICAt int // fail the nth CNIC upload (1-based), 0 = never
	failSelfie bool
	verifyErr  error
	verified   bool

	lastVerify [4]string
}

func (m *mockUploader) UploadCNIC(ctx context.Context, path string) (string, error) {
	m.cnicCalls++
	if m.failCNICAt != 0 && m.cnicCalls == m.failCNICAt {
		return "", errors.New("upload refused")
	}
	return "http://backend/uploads/" + path, nil
}

func (m *mockUploader) UploadSelfie(ctx context.Context, path string) (string, error) {
	m.selfieCalls++
	if m.failSelfie {
		return "", errors.New("upload refused")
	}
	return "http://backend/uploads/" + path, nil
}

func (m *mockUploader) VerifyFace(ctx context.Context, sessionID, cnicURL, cnicBackURL, selfieURL string) (bool, error) {
	m.verifyCalls++
	m.lastVerify = [4]string{sessionID, cnicURL, cnicBackURL, selfieURL}
	if m.verifyErr != nil {
		return false, m.verifyErr
	}
	return m.verified, nil
}

// mockResumer implements Resumer
type mockResumer struct {
	calls int
	err   error
}

func (m *mockResumer) ResumeAfterVerification(ctx context.Context) (string, error) {
	m.calls++
	return "booking confirmed", m.err
}

type staticSession string

func (s staticSession) Get() string { return string(s) }

func attachAll(p *Pipeline) {
	p.SetFront("front.jpg")
	p.SetBack("back.jpg")
	p.SetSelfie("selfie.jpg")
}

func TestPipeline_Submit_RejectsIncompleteTriple(t *testing.T) {
	uploader := &mockUploader{}
	p := New(uploader, &mockResumer{}, staticSession("amir"), nil)
	p.Begin()
	p.SetFront("front.jpg")
	p.SetBack("back.jpg")
	// selfie missing

	err := p.Submit(context.Background())
	require.ErrorIs(t, err, ErrMissingDocuments)
	assert.Zero(t, uploader.cnicCalls, "no network call on validation failure")
	assert.Zero(t, uploader.selfieCalls)
	assert.Zero(t, uploader.verifyCalls)
}

func TestPipeline_Submit_RejectsWithoutSession(t *testing.T) {
	uploader := &mockUploader{}
	p := New(uploader, &mockResumer{}, staticSession(""), nil)
	p.Begin()
	attachAll(p)

	err := p.Submit(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, uploader.cnicCalls)
}

func TestPipeline_Submit_VerifiedSuccess(t *testing.T) {
	uploader := &mockUploader{verified: true}
	resumer := &mockResumer{}
	p := New(uploader, resumer, staticSession("amir"), nil)
	p.Begin()
	attachAll(p)

	err := p.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateVerified, p.State())
	assert.Equal(t, 1, resumer.calls, "resumption hook fires exactly once")
	assert.Equal(t, 2, uploader.cnicCalls)
	assert.Equal(t, 1, uploader.selfieCalls)
	assert.Equal(t, "amir", uploader.lastVerify[0])
	assert.Equal(t, "http://backend/uploads/front.jpg", uploader.lastVerify[1])
	assert.Equal(t, "http://backend/uploads/back.jpg", uploader.lastVerify[2])
	assert.Equal(t, "http://backend/uploads/selfie.jpg", uploader.lastVerify[3])
}

func TestPipeline_Submit_VerifiedFalse(t *testing.T) {
	uploader := &mockUploader{verified: false}
	resumer := &mockResumer{}
	p := New(uploader, resumer, staticSession("amir"), nil)
	p.Begin()
	attachAll(p)

	err := p.Submit(context.Background())
	require.ErrorIs(t, err, ErrVerificationFailed)

	assert.Equal(t, StateFailed, p.State())
	assert.Zero(t, resumer.calls, "no synthetic message on failure")

	// Files are retained for resubmission.
	front, back, selfie := p.Documents()
	assert.NotEmpty(t, front)
	assert.NotEmpty(t, back)
	assert.NotEmpty(t, selfie)
}

func TestPipeline_Submit_SelfieUploadFailureOrphansCNICs(t *testing.T) {
	uploader := &mockUploader{failSelfie: true}
	resumer := &mockResumer{}
	p := New(uploader, resumer, staticSession("amir"), nil)
	p.Begin()
	attachAll(p)

	err := p.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading selfie")

	// Both CNIC sides were already uploaded; they stay orphaned.
	assert.Equal(t, 2, uploader.cnicCalls)
	assert.Zero(t, uploader.verifyCalls)
	assert.Zero(t, resumer.calls)
	assert.Equal(t, StateFailed, p.State())
}

func TestPipeline_Resubmit_ReuploadsAllThree(t *testing.T) {
	uploader := &mockUploader{verifyErr: errors.New("timeout")}
	resumer := &mockResumer{}
	p := New(uploader, resumer, staticSession("amir"), nil)
	p.Begin()
	attachAll(p)

	require.Error(t, p.Submit(context.Background()))

	// Second attempt without Begin: files retained, every document
	// re-uploaded.
	uploader.verifyErr = nil
	uploader.verified = true
	require.NoError(t, p.Submit(context.Background()))

	assert.Equal(t, 4, uploader.cnicCalls)
	assert.Equal(t, 2, uploader.selfieCalls)
	assert.Equal(t, 2, uploader.verifyCalls)
	assert.Equal(t, 1, resumer.calls)
}

func TestPipeline_Begin_ClearsTriple(t *testing.T) {
	p := New(&mockUploader{}, &mockResumer{}, staticSession("amir"), nil)
	p.Begin()
	attachAll(p)

	p.Begin()
	front, back, selfie := p.Documents()
	assert.Empty(t, front)
	assert.Empty(t, back)
	assert.Empty(t, selfie)
	assert.Equal(t, StateCollecting, p.State())
}

func TestPipeline_Submit_ResumeFailureKeepsVerified(t *testing.T) {
	uploader := &mockUploader{verified: true}
	resumer := &mockResumer{err: errors.New("chat unavailable")}
	p := New(uploader, resumer, staticSession("amir"), nil)
	p.Begin()
	attachAll(p)

	err := p.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resuming conversation")
	assert.Equal(t, StateVerified, p.State())
}
