package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/carnest/carnest-go/internal/logging"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/session"
)

func newTestNavigation(token string) (NavigationService, *fakeClient, *session.Store, *session.MemoryTokenStore, *fakeNavigator) {
	client := newFakeClient()
	store := session.NewStore(token)
	tokens := &session.MemoryTokenStore{}
	nav := &fakeNavigator{}
	svc := NewNavigationService(client, store, tokens, nav, newRecordingPublisher(), logging.Discard())
	return svc, client, store, tokens, nav
}

func TestShellViewLayouts(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		mobile        bool
		wantPlacement string
		wantLogin     bool
		wantNav       int
	}{
		{"Logged in desktop", "tok", false, PlacementInline, false, 4},
		{"Logged in mobile", "tok", true, PlacementBottom, false, 4},
		{"Logged out desktop", "", false, PlacementNone, true, 0},
		{"Logged out mobile", "", true, PlacementNone, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _, _ := newTestNavigation(tt.token)
			view := svc.View(tt.mobile)

			if view.Placement != tt.wantPlacement {
				t.Errorf("Placement = %s, want %s", view.Placement, tt.wantPlacement)
			}
			if view.ShowLogin != tt.wantLogin {
				t.Errorf("ShowLogin = %v, want %v", view.ShowLogin, tt.wantLogin)
			}
			if len(view.NavItems) != tt.wantNav {
				t.Errorf("NavItems = %d, want %d", len(view.NavItems), tt.wantNav)
			}
			if view.IsMobile != tt.mobile {
				t.Errorf("IsMobile = %v", view.IsMobile)
			}
			if tt.token == "" && len(view.AccountMenu) != 0 {
				t.Error("logged-out view must not show the account menu")
			}
		})
	}
}

func TestShellNavItemsOrder(t *testing.T) {
	svc, _, _, _, _ := newTestNavigation("tok")
	view := svc.View(false)

	var names []string
	for _, item := range view.NavItems {
		names = append(names, item.Name)
	}
	want := []string{"Search", "Post Ride", "Your Rides", "Messages"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("nav items = %v, want %v", names, want)
	}

	names = names[:0]
	for _, item := range view.AccountMenu {
		names = append(names, item.Name)
	}
	if !reflect.DeepEqual(names, []string{"Profile", "Vehicles", "Logout"}) {
		t.Errorf("account menu = %v", names)
	}
}

func TestMountLoadsProfileThenDependents(t *testing.T) {
	svc, client, store, _, _ := newTestNavigation("tok")
	client.vehicles = func() ([]models.Vehicle, error) {
		return []models.Vehicle{{ID: 3, Make: "Honda", Model: "Civic"}}, nil
	}
	client.govtIDs = func() ([]models.GovtIDType, error) {
		return []models.GovtIDType{{ID: 1, Name: "Passport"}}, nil
	}

	svc.Mount(context.Background())

	snap := store.Snapshot()
	if snap.Profile == nil || snap.Profile.FirstName != "Alex" {
		t.Errorf("Profile = %+v", snap.Profile)
	}
	if len(snap.Vehicles) != 1 || len(snap.GovtIDTypes) != 1 {
		t.Errorf("Vehicles = %v, GovtIDTypes = %v", snap.Vehicles, snap.GovtIDTypes)
	}

	view := svc.View(false)
	if view.Avatar == nil || view.Avatar.Initial != "A" {
		t.Errorf("Avatar = %+v, want initial A", view.Avatar)
	}
	if view.Loading || view.ProfileError != "" {
		t.Errorf("Loading = %v, ProfileError = %q", view.Loading, view.ProfileError)
	}
}

func TestMountProfileFailureSkipsDependents(t *testing.T) {
	svc, client, store, _, _ := newTestNavigation("tok")
	client.profile = func() (*models.Profile, error) {
		return nil, errors.New("boom")
	}

	svc.Mount(context.Background())

	if n := client.count("vehicles") + client.count("govt_ids"); n != 0 {
		t.Errorf("dependent fetches = %d, want 0", n)
	}
	if store.Snapshot().Profile != nil {
		t.Error("Profile should stay empty")
	}

	view := svc.View(false)
	if view.ProfileError == "" {
		t.Error("ProfileError should be set")
	}
	if view.Placement != PlacementInline || len(view.NavItems) != 4 {
		t.Error("profile failure must not block rendering the shell")
	}
}

func TestMountDependentFailureIsIsolated(t *testing.T) {
	svc, client, store, _, _ := newTestNavigation("tok")
	client.vehicles = func() ([]models.Vehicle, error) {
		return nil, errors.New("vehicles down")
	}
	client.govtIDs = func() ([]models.GovtIDType, error) {
		return []models.GovtIDType{{ID: 2, Name: "Driver License"}}, nil
	}

	svc.Mount(context.Background())

	snap := store.Snapshot()
	if len(snap.Vehicles) != 0 {
		t.Errorf("Vehicles = %v, want none", snap.Vehicles)
	}
	if len(snap.GovtIDTypes) != 1 {
		t.Errorf("GovtIDTypes = %v, want 1", snap.GovtIDTypes)
	}
}

func TestMountWithoutTokenFetchesNothing(t *testing.T) {
	svc, client, _, _, _ := newTestNavigation("")
	svc.Mount(context.Background())

	if n := client.count("profile"); n != 0 {
		t.Errorf("profile fetches = %d, want 0", n)
	}
}

func TestLogoutThenReloadRendersLoggedOut(t *testing.T) {
	svc, _, store, tokens, nav := newTestNavigation("")
	ctx := context.Background()

	if err := svc.Login(ctx, "tok-123"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if saved, _ := tokens.Load(ctx); saved != "tok-123" {
		t.Fatalf("persisted token = %q", saved)
	}
	if !svc.View(false).LoggedIn {
		t.Fatal("View().LoggedIn = false after login")
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if store.IsLoggedIn() || store.Snapshot().Profile != nil {
		t.Error("Logout() should clear the session")
	}
	if paths := nav.visited(); len(paths) == 0 || paths[len(paths)-1] != LoginPath {
		t.Errorf("navigated to %v, want %s last", paths, LoginPath)
	}

	// A reload seeds a fresh store from the persisted token.
	persisted, _ := tokens.Load(ctx)
	reloaded := NewNavigationService(newFakeClient(), session.NewStore(persisted), tokens, nav, nil, logging.Discard())
	view := reloaded.View(false)
	if view.LoggedIn || !view.ShowLogin {
		t.Errorf("reloaded view = %+v, want logged out", view)
	}
}

type failingTokenStore struct {
	session.MemoryTokenStore
	err error
}

func (f *failingTokenStore) Save(context.Context, string) error { return f.err }

func TestLoginPersistFailureKeepsSession(t *testing.T) {
	client := newFakeClient()
	store := session.NewStore("")
	tokens := &failingTokenStore{err: errors.New("disk full")}
	svc := NewNavigationService(client, store, tokens, &fakeNavigator{}, newRecordingPublisher(), logging.Discard())

	if err := svc.Login(context.Background(), "tok-123"); err == nil {
		t.Fatal("Login() error = nil, want persist error")
	}
	if store.IsLoggedIn() {
		t.Error("store logged in although the token was not persisted")
	}
	if svc.View(false).LoggedIn {
		t.Error("View().LoggedIn = true after a failed login")
	}
	if n := client.count("profile"); n != 0 {
		t.Errorf("profile fetches = %d, want 0", n)
	}
}

func TestLogoutDuringMountDiscardsUserData(t *testing.T) {
	svc, client, store, _, _ := newTestNavigation("tok")
	started := make(chan struct{})
	release := make(chan struct{})
	client.profile = func() (*models.Profile, error) {
		close(started)
		<-release
		return &models.Profile{ID: 1, FirstName: "Alex"}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Mount(context.Background())
	}()
	<-started

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	close(release)
	<-done

	snap := store.Snapshot()
	if snap.LoggedIn || snap.Profile != nil || len(snap.Vehicles) != 0 {
		t.Errorf("snapshot after logout = %+v, want no user data", snap)
	}
	if n := client.count("vehicles") + client.count("govt_ids"); n != 0 {
		t.Errorf("dependent fetches = %d, want 0", n)
	}
	if view := svc.View(false); view.Avatar != nil || view.ProfileError != "" {
		t.Errorf("view = %+v, want logged-out shell", view)
	}
}

func TestMenuClick(t *testing.T) {
	svc, _, _, _, nav := newTestNavigation("tok")

	for _, name := range []string{"Profile", "Vehicles", "Post Ride"} {
		if err := svc.MenuClick(name); err != nil {
			t.Errorf("MenuClick(%q) error = %v", name, err)
		}
	}
	want := []string{"/userprofile", "/Vehicles", "/PostRide"}
	if got := nav.visited(); !reflect.DeepEqual(got, want) {
		t.Errorf("navigated to %v, want %v", got, want)
	}

	if err := svc.MenuClick("Nope"); err == nil {
		t.Error("expected error for unknown item")
	}
	if err := svc.MenuClick("Logout"); err == nil {
		t.Error("Logout should not be handled as a plain navigation")
	}
}
