// ABOUTME: Moderation workflow - booking replica, approval transitions, document review
// ABOUTME: The backend owns bookings; the client re-fetches wholesale after any mutation

package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/asgharautos/rental/internal/api"
)

// Booking status values exposed by this client. Approved is terminal
// here; whether the backend knows other statuses is not assumed.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

var (
	// ErrUnknownBooking means the id is not in the current replica.
	ErrUnknownBooking = errors.New("unknown booking")

	// ErrNotPending rejects approval of a booking that is not pending.
	ErrNotPending = errors.New("booking is not pending")
)

// BookingClient is what the workflow needs from the API layer.
type BookingClient interface {
	ListBookings(ctx context.Context) ([]api.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, status string) error
}

// Service holds the client-side read replica of the booking list.
type Service struct {
	client BookingClient
	logger *slog.Logger

	mu      sync.Mutex
	replica []api.Booking
}

// New creates a moderation service with an empty replica.
func New(client BookingClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client: client,
		logger: logger.With("component", "moderation"),
	}
}

// Refresh replaces the replica wholesale from the backend. A malformed
// (non-list) response empties the replica rather than crashing; a
// transport failure leaves the previous replica in place.
func (s *Service) Refresh(ctx context.Context) error {
	bookings, err := s.client.ListBookings(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnexpectedShape) {
			s.mu.Lock()
			s.replica = nil
			s.mu.Unlock()
			s.logger.Warn("bookings response malformed, replica emptied")
		}
		return fmt.Errorf("refreshing bookings: %w", err)
	}

	s.mu.Lock()
	s.replica = bookings
	s.mu.Unlock()
	s.logger.Debug("booking replica refreshed", "count", len(bookings))
	return nil
}

// Bookings returns a copy of the current replica.
func (s *Service) Bookings() []api.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Booking, len(s.replica))
	copy(out, s.replica)
	return out
}

// Get returns one booking from the replica by id.
func (s *Service) Get(id string) (api.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.replica {
		if b.ID == id {
			return b, true
		}
	}
	return api.Booking{}, false
}

// Approve transitions a pending booking to approved, then re-fetches the
// whole list. No optimistic update: the replica lags the mutation by one
// round trip.
func (s *Service) Approve(ctx context.Context, id string) error {
	booking, ok := s.Get(id)
	if !ok {
		return ErrUnknownBooking
	}
	if booking.Status != StatusPending {
		return fmt.Errorf("%w: booking %s is %q", ErrNotPending, id, booking.Status)
	}

	if err := s.client.UpdateStatus(ctx, id, StatusApproved); err != nil {
		return fmt.Errorf("approving booking %s: %w", id, err)
	}
	s.logger.Info("booking approved", "booking_id", id)

	return s.Refresh(ctx)
}

// Document is one reviewable identity document of a booking.
type Document struct {
	Label   string
	Locator string
}

// Documents returns the booking's verification documents in review order
// (CNIC front, CNIC back, selfie), skipping absent ones. The caller
// renders them through the media loader.
func (s *Service) Documents(id string) ([]Document, error) {
	booking, ok := s.Get(id)
	if !ok {
		return nil, ErrUnknownBooking
	}

	all := []Document{
		{Label: "CNIC front", Locator: booking.CNICURL},
		{Label: "CNIC back", Locator: booking.CNICBackURL},
		{Label: "Selfie", Locator: booking.SelfieURL},
	}
	var docs []Document
	for _, d := range all {
		if d.Locator != "" {
			docs = append(docs, d)
		}
	}
	return docs, nil
}
