// ABOUTME: Tests for the backend HTTP client
// ABOUTME: Uses httptest servers to verify request shapes and error decoding

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Chat_SendsMessageAndSessionID(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"response": "Sure, which dates?"})
	}))
	defer srv.Close()

	client := New(srv.URL+"/api", false, nil)
	reply, err := client.Chat(context.Background(), "I need an SUV", "amir")
	require.NoError(t, err)

	assert.Equal(t, "Sure, which dates?", reply)
	assert.Equal(t, "I need an SUV", got.Message)
	assert.Equal(t, "amir", got.SessionID)
}

func TestClient_Chat_SurfacesServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "agent unavailable"})
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	_, err := client.Chat(context.Background(), "hello", "amir")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "agent unavailable", apiErr.Detail)
}

func TestClient_Chat_GenericErrorWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	_, err := client.Chat(context.Background(), "hello", "amir")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Error(), "status 500")
}

func TestClient_FetchMedia_SetsTunnelSkipHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.Header.Get("ngrok-skip-browser-warning"))
		w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer srv.Close()

	client := New(srv.URL, true, nil)
	data, err := client.FetchMedia(context.Background(), srv.URL+"/uploads/cnic.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, data)
}

func TestClient_FetchMedia_NoHeaderWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("ngrok-skip-browser-warning"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	_, err := client.FetchMedia(context.Background(), srv.URL+"/uploads/x.jpg")
	require.NoError(t, err)
}

func TestClient_Origin(t *testing.T) {
	client := New("https://example.ngrok-free.app/api", false, nil)
	assert.Equal(t, "https://example.ngrok-free.app", client.Origin())
}
