package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/carnest/carnest-go/internal/backend"
	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/events"
	"github.com/carnest/carnest-go/internal/metrics"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/notify"
	"github.com/carnest/carnest-go/internal/session"
)

// Booking outcomes
const (
	OutcomeBooked     = "booked"
	OutcomeRedirected = "redirected"
	OutcomeInProgress = "in_progress"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
)

const networkErrorMessage = "Unable to reach Carnest. Check your connection and try again."

// BookingResult describes what a booking confirmation did.
type BookingResult struct {
	Outcome      string               `json:"outcome"`
	RideID       int64                `json:"ride_id"`
	Redirect     string               `json:"redirect,omitempty"`
	Detail       *models.RideDetail   `json:"detail,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
}

// OnBooked advances the booking flow once ride details are published.
type OnBooked func(rideID int64)

type BookingService interface {
	ConfirmBooking(ctx context.Context, rideID int64, onBooked OnBooked) (BookingResult, error)
	BookSelected(ctx context.Context, onBooked OnBooked) (BookingResult, error)
	IsLoading(rideID int64) bool
	Loading() []int64
}

type bookingService struct {
	client    backend.Client
	store     *session.Store
	selection SelectionService
	notifier  *notify.Notifier
	navigator Navigator
	publisher events.Publisher
	metrics   metrics.Recorder
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[int64]bool
}

func NewBookingService(
	client backend.Client,
	store *session.Store,
	selection SelectionService,
	notifier *notify.Notifier,
	navigator Navigator,
	publisher events.Publisher,
	rec metrics.Recorder,
	logger *slog.Logger,
) BookingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &bookingService{
		client:    client,
		store:     store,
		selection: selection,
		notifier:  notifier,
		navigator: navigator,
		publisher: publisher,
		metrics:   rec,
		logger:    logger,
		inflight:  make(map[int64]bool),
	}
}

// ConfirmBooking fetches the ride's details and, on success, publishes them
// to the session and calls onBooked. Without a session token it redirects
// to login instead of calling the backend.
func (s *bookingService) ConfirmBooking(ctx context.Context, rideID int64, onBooked OnBooked) (BookingResult, error) {
	return s.confirm(ctx, rideID, onBooked, nil)
}

// BookSelected books the currently selected ride. If the selection changes
// while the details are being fetched the response is dropped.
func (s *bookingService) BookSelected(ctx context.Context, onBooked OnBooked) (BookingResult, error) {
	if !s.store.IsLoggedIn() {
		return s.redirect(0), apperrors.ErrNotAuthenticated
	}

	selected := s.selection.Selected()
	if selected == nil {
		return BookingResult{}, apperrors.ErrNoSelection
	}

	gen := s.selection.Generation()
	stillCurrent := func() bool { return s.selection.Generation() == gen }
	return s.confirm(ctx, selected.ID, onBooked, stillCurrent)
}

func (s *bookingService) confirm(ctx context.Context, rideID int64, onBooked OnBooked, stillCurrent func() bool) (BookingResult, error) {
	token := s.store.Token()
	if token == "" {
		return s.redirect(rideID), apperrors.ErrNotAuthenticated
	}

	if !s.begin(rideID) {
		s.metrics.RecordBooking(OutcomeInProgress)
		return BookingResult{Outcome: OutcomeInProgress, RideID: rideID}, apperrors.ErrBookingInProgress
	}
	defer s.end(rideID)

	detail, err := s.client.FetchRideByID(ctx, rideID, token)
	if err != nil {
		note := s.notifier.Show(userMessage(err), models.SeverityError)
		s.logger.Error("failed to fetch ride details",
			slog.Int64("ride_id", rideID),
			slog.String("error", err.Error()),
		)
		s.metrics.RecordBooking(OutcomeFailed)
		s.publish(rideID, OutcomeFailed)
		return BookingResult{Outcome: OutcomeFailed, RideID: rideID, Notification: &note}, err
	}

	if stillCurrent != nil && !stillCurrent() {
		s.logger.Info("dropping ride details for superseded selection", slog.Int64("ride_id", rideID))
		s.metrics.RecordBooking(OutcomeSuperseded)
		s.publish(rideID, OutcomeSuperseded)
		return BookingResult{Outcome: OutcomeSuperseded, RideID: rideID}, nil
	}

	s.store.SetRideDetails(detail)
	if onBooked != nil {
		onBooked(rideID)
	}

	s.metrics.RecordBooking(OutcomeBooked)
	s.publish(rideID, OutcomeBooked)
	return BookingResult{Outcome: OutcomeBooked, RideID: rideID, Detail: detail}, nil
}

func (s *bookingService) redirect(rideID int64) BookingResult {
	s.navigator.Navigate(LoginPath)
	s.metrics.RecordBooking(OutcomeRedirected)
	s.publish(rideID, OutcomeRedirected)
	return BookingResult{Outcome: OutcomeRedirected, RideID: rideID, Redirect: LoginPath}
}

func (s *bookingService) begin(rideID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[rideID] {
		return false
	}
	s.inflight[rideID] = true
	s.publisher.Publish(events.TypeBooking, map[string]interface{}{"ride_id": rideID, "loading": true})
	return true
}

func (s *bookingService) end(rideID int64) {
	s.mu.Lock()
	delete(s.inflight, rideID)
	s.mu.Unlock()
}

func (s *bookingService) publish(rideID int64, outcome string) {
	s.publisher.Publish(events.TypeBooking, map[string]interface{}{
		"ride_id": rideID,
		"outcome": outcome,
		"loading": false,
	})
}

// IsLoading reports whether a detail fetch for rideID is outstanding.
func (s *bookingService) IsLoading(rideID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[rideID]
}

func (s *bookingService) Loading() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.inflight))
	for id := range s.inflight {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func userMessage(err error) string {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var netErr *apperrors.NetworkError
	if errors.As(err, &netErr) {
		return networkErrorMessage
	}
	return err.Error()
}
