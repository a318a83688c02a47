// ABOUTME: Tests for HTML transcript export
// ABOUTME: Markdown in agent replies must render, user text must appear verbatim

package chat

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportHTML_RendersMarkdown(t *testing.T) {
	backend := &mockBackend{replies: []string{"Your **SUV** is ready."}}
	e := New(backend, &fixedSession{id: "amir"}, nil)

	_, err := e.Send(context.Background(), "book the suv")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, e.ExportHTML(&buf))

	out := buf.String()
	assert.Contains(t, out, "<strong>SUV</strong>")
	assert.Contains(t, out, "book the suv")
	// The seeded welcome uses markdown emphasis too.
	assert.Contains(t, out, "<strong>Car Type</strong>")
	assert.Contains(t, out, `<article class="user">`)
	assert.Contains(t, out, `<article class="model">`)
}
