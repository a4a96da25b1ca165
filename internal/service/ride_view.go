package service

import (
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/session"
)

// Ride card actions
const (
	ActionAllSeatsBooked = "all_seats_booked"
	ActionLoading        = "loading"
	ActionBookNow        = "book_now"
	ActionLoginToBook    = "login_to_book"
)

const (
	dateHeaderLayout = "Mon Jan 02 2006"
	timeLabelLayout  = "03:04"
)

type RideCard struct {
	Ride       models.Ride `json:"ride"`
	Selected   bool        `json:"selected"`
	TimeLabel  string      `json:"time_label"`
	PriceLabel string      `json:"price_label,omitempty"`
	Action     string      `json:"action"`
	Disabled   bool        `json:"disabled"`
	Estimate   Estimate    `json:"estimate"`
}

// RideListView is the available-rides screen: a date header for the
// selected ride, one card per ride and the selected ride's route.
type RideListView struct {
	DateHeader string               `json:"date_header,omitempty"`
	Cards      []RideCard           `json:"cards"`
	Route      *models.RoutePreview `json:"route,omitempty"`
	Resolving  bool                 `json:"resolving"`
	Booking    []int64              `json:"booking"`
}

type RideViewService interface {
	View() RideListView
}

type rideViewService struct {
	selection SelectionService
	booking   BookingService
	store     *session.Store
	estimates EstimateService
}

func NewRideViewService(selection SelectionService, booking BookingService, store *session.Store, estimates EstimateService) RideViewService {
	return &rideViewService{
		selection: selection,
		booking:   booking,
		store:     store,
		estimates: estimates,
	}
}

func (s *rideViewService) View() RideListView {
	state := s.selection.State()
	loggedIn := s.store.IsLoggedIn()

	view := RideListView{
		Cards:     make([]RideCard, 0, len(state.Rides)),
		Route:     state.Route,
		Resolving: state.Resolving,
		Booking:   s.booking.Loading(),
	}
	if state.Selected != nil {
		view.DateHeader = state.Selected.DateTime.Format(dateHeaderLayout)
	}

	for i := range state.Rides {
		ride := state.Rides[i]
		card := RideCard{
			Ride:       ride,
			Selected:   state.Selected != nil && state.Selected.ID == ride.ID,
			TimeLabel:  ride.DateTime.Format(timeLabelLayout),
			PriceLabel: ride.PriceLabel(),
			Estimate:   s.estimates.EstimateRide(&ride),
		}
		card.Action, card.Disabled = s.action(&ride, loggedIn)
		view.Cards = append(view.Cards, card)
	}
	return view
}

func (s *rideViewService) action(ride *models.Ride, loggedIn bool) (string, bool) {
	switch {
	case ride.IsFull():
		return ActionAllSeatsBooked, true
	case s.booking.IsLoading(ride.ID):
		return ActionLoading, true
	case loggedIn:
		return ActionBookNow, false
	default:
		return ActionLoginToBook, false
	}
}
