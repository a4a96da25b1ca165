package service

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/events"
	"github.com/carnest/carnest-go/internal/metrics"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/routing"
	"github.com/carnest/carnest-go/internal/session"
	"github.com/carnest/carnest-go/pkg/result"
	"go.uber.org/atomic"
)

// SelectionState is a copy of the selector's view state.
type SelectionState struct {
	Rides     []models.Ride        `json:"rides"`
	Selected  *models.Ride         `json:"selected,omitempty"`
	Route     *models.RoutePreview `json:"route,omitempty"`
	Resolving bool                 `json:"resolving"`
}

type SelectionService interface {
	SetRides(ctx context.Context, rides []models.Ride)
	Select(ctx context.Context, ride models.Ride)
	SelectRide(ctx context.Context, rideID int64) error
	Reset()
	Selected() *models.Ride
	Rides() []models.Ride
	Route() *models.RoutePreview
	State() SelectionState
	Generation() uint64
	Wait()
}

type selectionService struct {
	resolver  routing.Resolver
	store     *session.Store
	publisher events.Publisher
	metrics   metrics.Recorder
	logger    *slog.Logger

	mu         sync.RWMutex
	rides      []models.Ride
	selected   *models.Ride
	route      *models.RoutePreview
	resolving  bool
	generation *atomic.Uint64
	inflight   sync.WaitGroup
}

func NewSelectionService(
	resolver routing.Resolver,
	store *session.Store,
	publisher events.Publisher,
	rec metrics.Recorder,
	logger *slog.Logger,
) SelectionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &selectionService{
		resolver:   resolver,
		store:      store,
		publisher:  publisher,
		metrics:    rec,
		logger:     logger,
		generation: atomic.NewUint64(0),
	}
}

// SetRides replaces the ride list. Every non-empty list selects its first
// ride; an empty list drops the selection.
func (s *selectionService) SetRides(ctx context.Context, rides []models.Ride) {
	rides = append([]models.Ride(nil), rides...)

	s.mu.Lock()
	s.rides = rides
	s.mu.Unlock()

	if s.store != nil {
		s.store.SetAvailableRides(rides)
	}

	if len(rides) == 0 {
		s.Reset()
		return
	}
	s.Select(ctx, rides[0])
}

// SelectRide selects a ride from the current list by ID.
func (s *selectionService) SelectRide(ctx context.Context, rideID int64) error {
	s.mu.RLock()
	i := indexOf(s.rides, rideID)
	var ride models.Ride
	if i >= 0 {
		ride = s.rides[i]
	}
	s.mu.RUnlock()

	if i < 0 {
		return apperrors.ErrRideNotListed
	}
	s.Select(ctx, ride)
	return nil
}

// Select makes ride the current selection, clears the displayed route and
// resolves the new one in the background. Only the most recent selection's
// result is ever applied.
func (s *selectionService) Select(ctx context.Context, ride models.Ride) {
	s.mu.Lock()
	gen := s.generation.Inc()
	s.selected = &ride
	s.route = nil
	s.resolving = true
	s.inflight.Add(1)
	s.mu.Unlock()

	s.publisher.Publish(events.TypeSelection, map[string]interface{}{"ride_id": ride.ID})

	// The lookup outlives the caller's request; keep its values, drop its deadline.
	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.inflight.Done()
		route, err := s.resolver.Resolve(bg, ride.Origin(), ride.Destination())
		s.apply(gen, ride.ID, result.From(route, err))
	}()
}

func (s *selectionService) apply(gen uint64, rideID int64, res result.Result[*models.Route]) {
	s.mu.Lock()
	if gen != s.generation.Load() {
		var current int64
		if s.selected != nil {
			current = s.selected.ID
		}
		s.mu.Unlock()

		s.metrics.RecordRoute(metrics.RouteDiscarded)
		s.logger.Debug("discarding route for superseded selection",
			slog.Int64("ride_id", rideID),
			slog.Int64("current_ride_id", current),
		)
		s.publisher.Publish(events.TypeRouteDiscarded, map[string]interface{}{
			"ride_id":         rideID,
			"current_ride_id": current,
		})
		return
	}

	route, err := res.Unwrap()
	s.resolving = false
	if err != nil {
		s.route = nil
		s.mu.Unlock()

		s.metrics.RecordRoute(metrics.RouteFailed)
		s.logger.Error("error fetching directions",
			slog.Int64("ride_id", rideID),
			slog.String("error", err.Error()),
		)
		s.publisher.Publish(events.TypeRouteFailed, map[string]interface{}{
			"ride_id": rideID,
			"error":   err.Error(),
		})
		return
	}

	preview := &models.RoutePreview{RideID: rideID, Route: route}
	s.route = preview
	s.mu.Unlock()

	s.metrics.RecordRoute(metrics.RouteApplied)
	s.publisher.Publish(events.TypeRoute, preview)
}

// Reset drops the selection and any in-flight route, e.g. on navigation away.
func (s *selectionService) Reset() {
	s.mu.Lock()
	s.generation.Inc()
	s.selected = nil
	s.route = nil
	s.resolving = false
	s.mu.Unlock()

	s.publisher.Publish(events.TypeSelection, map[string]interface{}{"ride_id": nil})
}

func (s *selectionService) Selected() *models.Ride {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	ride := *s.selected
	return &ride
}

func (s *selectionService) Rides() []models.Ride {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Ride(nil), s.rides...)
}

func (s *selectionService) Route() *models.RoutePreview {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.route
}

func (s *selectionService) State() SelectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := SelectionState{
		Rides:     append([]models.Ride(nil), s.rides...),
		Route:     s.route,
		Resolving: s.resolving,
	}
	if s.selected != nil {
		ride := *s.selected
		state.Selected = &ride
	}
	return state
}

// Generation identifies the current selection; it changes on every
// Select and Reset.
func (s *selectionService) Generation() uint64 {
	return s.generation.Load()
}

// Wait blocks until every in-flight route lookup has finished.
func (s *selectionService) Wait() {
	s.inflight.Wait()
}

func indexOf(rides []models.Ride, id int64) int {
	for i := range rides {
		if rides[i].ID == id {
			return i
		}
	}
	return -1
}
