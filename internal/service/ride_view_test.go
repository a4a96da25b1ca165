package service

import (
	"context"
	"testing"

	"github.com/carnest/carnest-go/internal/models"
)

func TestRideViewCards(t *testing.T) {
	f := newBookingFixture("tok")
	ctx := context.Background()

	full := ride(2, 14)
	full.AvailableSeats = 0
	price := models.Decimal(25.5)
	first := ride(1, 9)
	first.PricePerSeat = &price

	f.selection.SetRides(ctx, []models.Ride{first, full})
	views := NewRideViewService(f.selection, f.svc, f.store, NewEstimateService())

	view := views.View()
	if view.DateHeader != "Fri Dec 20 2024" {
		t.Errorf("DateHeader = %q", view.DateHeader)
	}
	if len(view.Cards) != 2 {
		t.Fatalf("Cards = %d, want 2", len(view.Cards))
	}

	c1, c2 := view.Cards[0], view.Cards[1]
	if !c1.Selected || c2.Selected {
		t.Errorf("selected flags = %v, %v", c1.Selected, c2.Selected)
	}
	if c1.TimeLabel != "09:00" || c2.TimeLabel != "02:00" {
		t.Errorf("time labels = %q, %q", c1.TimeLabel, c2.TimeLabel)
	}
	if c1.PriceLabel != "$ 25.50" {
		t.Errorf("PriceLabel = %q", c1.PriceLabel)
	}
	if c1.Action != ActionBookNow || c1.Disabled {
		t.Errorf("card 1 action = %s disabled = %v", c1.Action, c1.Disabled)
	}
	if c2.Action != ActionAllSeatsBooked || !c2.Disabled {
		t.Errorf("card 2 action = %s disabled = %v", c2.Action, c2.Disabled)
	}
	if c1.Estimate.DistanceKm <= 0 {
		t.Errorf("Estimate = %+v", c1.Estimate)
	}

	f.resolver.release(1, routeFor(1), nil)
	f.selection.Wait()
	if view := views.View(); view.Route == nil || view.Route.RideID != 1 {
		t.Errorf("Route = %+v", view.Route)
	}
}

func TestRideViewWhileBooking(t *testing.T) {
	f := newBookingFixture("tok")
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	f.client.rideDetail = func(_ context.Context, id int64) (*models.RideDetail, error) {
		close(started)
		<-release
		return &models.RideDetail{Ride: models.Ride{ID: id}}, nil
	}

	f.selection.SetRides(ctx, []models.Ride{ride(1, 9), ride(2, 10)})
	views := NewRideViewService(f.selection, f.svc, f.store, NewEstimateService())

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.svc.ConfirmBooking(ctx, 1, nil)
	}()
	<-started

	view := views.View()
	if len(view.Booking) != 1 || view.Booking[0] != 1 {
		t.Errorf("Booking = %v, want [1]", view.Booking)
	}
	if c := view.Cards[0]; c.Action != ActionLoading || !c.Disabled {
		t.Errorf("card 1 action = %s disabled = %v", c.Action, c.Disabled)
	}
	if c := view.Cards[1]; c.Action != ActionBookNow {
		t.Errorf("card 2 action = %s, want %s", c.Action, ActionBookNow)
	}

	close(release)
	<-done
	if view := views.View(); len(view.Booking) != 0 {
		t.Errorf("Booking = %v after completion, want empty", view.Booking)
	}

	f.resolver.release(1, nil, nil)
	f.selection.Wait()
}

func TestRideViewLoggedOut(t *testing.T) {
	f := newBookingFixture("")
	ctx := context.Background()
	f.selection.SetRides(ctx, []models.Ride{ride(1, 9)})

	view := NewRideViewService(f.selection, f.svc, f.store, NewEstimateService()).View()
	if view.Cards[0].Action != ActionLoginToBook {
		t.Errorf("Action = %s, want %s", view.Cards[0].Action, ActionLoginToBook)
	}

	f.resolver.release(1, nil, nil)
	f.selection.Wait()
}

func TestRideViewEmpty(t *testing.T) {
	f := newBookingFixture("tok")
	view := NewRideViewService(f.selection, f.svc, f.store, NewEstimateService()).View()

	if view.DateHeader != "" || len(view.Cards) != 0 || view.Route != nil {
		t.Errorf("view = %+v, want empty", view)
	}
	if view.Cards == nil {
		t.Error("Cards should be an empty slice, not nil")
	}
}
