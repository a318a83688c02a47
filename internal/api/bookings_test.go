// ABOUTME: Tests for booking list retrieval and status transitions
// ABOUTME: Covers the defensive non-list shape check and query parameters

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListBookings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bookings", r.URL.Path)
		w.Write([]byte(`[
			{"id":"b-1","user_id":"amir","car_type":"suv","pickup_date":"2025-01-01","return_date":"2025-01-05","total_price":45000,"status":"pending"},
			{"id":"b-2","user_id":"sara","car_type":"sedan","pickup_date":"2025-02-01","return_date":"2025-02-03","total_price":18000,"status":"approved"}
		]`))
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	bookings, err := client.ListBookings(context.Background())
	require.NoError(t, err)

	require.Len(t, bookings, 2)
	assert.Equal(t, "b-1", bookings[0].ID)
	assert.Equal(t, "suv", bookings[0].CarType)
	assert.Equal(t, float64(45000), bookings[0].TotalPrice)
	assert.Equal(t, "approved", bookings[1].Status)
}

func TestClient_ListBookings_NonListShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"database offline"}`))
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	bookings, err := client.ListBookings(context.Background())

	require.ErrorIs(t, err, ErrUnexpectedShape)
	assert.Nil(t, bookings)
}

func TestClient_ListBookings_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	bookings, err := client.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestClient_UpdateStatus_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/update-status", r.URL.Path)
		assert.Equal(t, "b-1", r.URL.Query().Get("booking_id"))
		assert.Equal(t, "approved", r.URL.Query().Get("status"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	err := client.UpdateStatus(context.Background(), "b-1", "approved")
	require.NoError(t, err)
}

func TestClient_UpdateStatus_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := New(srv.URL, false, nil)
	err := client.UpdateStatus(context.Background(), "b-1", "approved")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}
