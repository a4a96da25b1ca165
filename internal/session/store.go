// Package session holds the client's shared session state: the access
// token, the signed-in profile and the payloads views publish for each
// other. State changes only through the Store methods.
package session

import (
	"sync"

	"github.com/carnest/carnest-go/internal/models"
)

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	AccessToken    string              `json:"-"`
	LoggedIn       bool                `json:"logged_in"`
	Profile        *models.Profile     `json:"profile,omitempty"`
	Vehicles       []models.Vehicle    `json:"vehicles,omitempty"`
	GovtIDTypes    []models.GovtIDType `json:"govt_id_types,omitempty"`
	RideDetails    *models.RideDetail  `json:"ride_details,omitempty"`
	AvailableRides []models.Ride       `json:"available_rides,omitempty"`
}

type Store struct {
	mu    sync.RWMutex
	state Snapshot
}

// NewStore returns a store seeded with token, typically the persisted one.
func NewStore(token string) *Store {
	s := &Store{}
	s.state.AccessToken = token
	s.state.LoggedIn = token != ""
	return s
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Store) IsLoggedIn() bool {
	return s.Token() != ""
}

// Snapshot returns a copy safe to read without holding the lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// SetToken switches the session to token. Switching to a different token
// drops the previous user's data.
func (s *Store) SetToken(token string) {
	s.update(func(st *Snapshot) {
		if st.AccessToken != token {
			clearUserData(st)
		}
		st.AccessToken = token
		st.LoggedIn = token != ""
	})
}

// ClearToken logs the session out and drops everything tied to the user.
func (s *Store) ClearToken() {
	s.update(func(st *Snapshot) {
		st.AccessToken = ""
		st.LoggedIn = false
		clearUserData(st)
	})
}

func clearUserData(st *Snapshot) {
	st.Profile = nil
	st.Vehicles = nil
	st.GovtIDTypes = nil
	st.RideDetails = nil
}

// SetProfile stores p if the session still holds token. A fetch started
// before a logout or a new login must not write into the new session.
func (s *Store) SetProfile(token string, p *models.Profile) bool {
	return s.updateFor(token, func(st *Snapshot) { st.Profile = p })
}

func (s *Store) SetVehicles(token string, v []models.Vehicle) bool {
	return s.updateFor(token, func(st *Snapshot) { st.Vehicles = v })
}

func (s *Store) SetGovtIDTypes(token string, t []models.GovtIDType) bool {
	return s.updateFor(token, func(st *Snapshot) { st.GovtIDTypes = t })
}

func (s *Store) SetRideDetails(d *models.RideDetail) {
	s.update(func(st *Snapshot) { st.RideDetails = d })
}

func (s *Store) SetAvailableRides(rides []models.Ride) {
	s.update(func(st *Snapshot) { st.AvailableRides = rides })
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

func (s *Store) updateFor(token string, fn func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.state.AccessToken != token {
		return false
	}
	fn(&s.state)
	return true
}

func (s *Store) copyLocked() Snapshot {
	snap := s.state
	if s.state.Profile != nil {
		p := *s.state.Profile
		snap.Profile = &p
	}
	if s.state.RideDetails != nil {
		d := *s.state.RideDetails
		snap.RideDetails = &d
	}
	snap.Vehicles = append([]models.Vehicle(nil), s.state.Vehicles...)
	snap.GovtIDTypes = append([]models.GovtIDType(nil), s.state.GovtIDTypes...)
	snap.AvailableRides = append([]models.Ride(nil), s.state.AvailableRides...)
	return snap
}
