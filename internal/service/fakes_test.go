package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/carnest/carnest-go/internal/events"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/pkg/result"
)

// fakeClient is a backend.Client whose responses are set per test.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	rideDetail func(ctx context.Context, id int64) (*models.RideDetail, error)
	profile    func() (*models.Profile, error)
	vehicles   func() ([]models.Vehicle, error)
	govtIDs    func() ([]models.GovtIDType, error)
	rides      func(search *models.RideSearch) ([]models.Ride, error)
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) FetchRideList(_ context.Context, search *models.RideSearch) ([]models.Ride, error) {
	f.record("rides")
	if f.rides == nil {
		return []models.Ride{}, nil
	}
	return f.rides(search)
}

func (f *fakeClient) FetchRideByID(ctx context.Context, id int64, _ string) (*models.RideDetail, error) {
	f.record("ride")
	if f.rideDetail == nil {
		return &models.RideDetail{Ride: models.Ride{ID: id}}, nil
	}
	return f.rideDetail(ctx, id)
}

func (f *fakeClient) FetchVehicleList(context.Context, string) ([]models.Vehicle, error) {
	f.record("vehicles")
	if f.vehicles == nil {
		return []models.Vehicle{}, nil
	}
	return f.vehicles()
}

func (f *fakeClient) FetchGovtIDTypes(context.Context, string) ([]models.GovtIDType, error) {
	f.record("govt_ids")
	if f.govtIDs == nil {
		return []models.GovtIDType{}, nil
	}
	return f.govtIDs()
}

func (f *fakeClient) FetchUserProfile(context.Context, string) (*models.Profile, error) {
	f.record("profile")
	if f.profile == nil {
		return &models.Profile{ID: 1, FirstName: "Alex"}, nil
	}
	return f.profile()
}

// gatedResolver blocks each lookup until the test releases the gate for
// its origin latitude.
type gatedResolver struct {
	mu    sync.Mutex
	gates map[float64]chan result.Result[*models.Route]
}

func newGatedResolver() *gatedResolver {
	return &gatedResolver{gates: make(map[float64]chan result.Result[*models.Route])}
}

func (g *gatedResolver) gate(lat float64) chan result.Result[*models.Route] {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[lat]
	if !ok {
		ch = make(chan result.Result[*models.Route], 1)
		g.gates[lat] = ch
	}
	return ch
}

func (g *gatedResolver) Resolve(ctx context.Context, origin, _ models.Coord) (*models.Route, error) {
	select {
	case res := <-g.gate(origin.Lat):
		return res.Unwrap()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedResolver) release(lat float64, route *models.Route, err error) {
	g.gate(lat) <- result.From(route, err)
}

// recordingPublisher keeps every event and lets tests wait for one.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	ch     chan events.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{ch: make(chan events.Event, 256)}
}

func (p *recordingPublisher) Publish(eventType string, data interface{}) {
	ev := events.Event{Type: eventType, Data: data, Time: time.Now()}
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	select {
	case p.ch <- ev:
	default:
	}
}

func (p *recordingPublisher) waitFor(t *testing.T, eventType string) events.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-p.ch:
			if ev.Type == eventType {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q event", eventType)
			return events.Event{}
		}
	}
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// fakeNavigator records every navigation.
type fakeNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *fakeNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *fakeNavigator) visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// ride builds a ride whose origin latitude equals its ID, so gatedResolver
// can tell lookups apart.
func ride(id int64, hour int) models.Ride {
	return models.Ride{
		ID:             id,
		GoingFrom:      "San Jose",
		GoingFromLat:   models.Decimal(id),
		GoingFromLng:   -121.88,
		GoingTo:        "Fresno",
		GoingToLat:     36.73,
		GoingToLng:     -119.78,
		DateTime:       time.Date(2024, 12, 20, hour, 0, 0, 0, time.UTC),
		AvailableSeats: 2,
	}
}

func routeFor(id int64) *models.Route {
	return &models.Route{
		Points:         []models.Coord{{Lat: float64(id), Lng: -121.88}, {Lat: 36.73, Lng: -119.78}},
		DistanceMeters: float64(id) * 1000,
	}
}
