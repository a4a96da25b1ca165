package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/carnest/carnest-go/internal/backend"
	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/events"
	"github.com/carnest/carnest-go/internal/session"
)

// Menu placements
const (
	PlacementInline = "inline"
	PlacementBottom = "bottom"
	PlacementNone   = "none"
)

type MenuItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Icon string `json:"icon,omitempty"`
}

var navItems = []MenuItem{
	{Name: "Search", Path: "/search", Icon: "search"},
	{Name: "Post Ride", Path: "/PostRide", Icon: "directions_car"},
	{Name: "Your Rides", Path: "/YourRides", Icon: "list"},
	{Name: "Messages", Path: "/Messages", Icon: "message"},
}

var accountItems = []MenuItem{
	{Name: "Profile", Path: "/userprofile"},
	{Name: "Vehicles", Path: "/Vehicles"},
	{Name: "Logout", Path: LoginPath},
}

type Avatar struct {
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Initial string `json:"initial"`
}

// ShellView is everything the top-level chrome needs to render.
type ShellView struct {
	LoggedIn     bool       `json:"logged_in"`
	IsMobile     bool       `json:"is_mobile"`
	Placement    string     `json:"placement"`
	NavItems     []MenuItem `json:"nav_items"`
	AccountMenu  []MenuItem `json:"account_menu"`
	ShowLogin    bool       `json:"show_login"`
	Loading      bool       `json:"loading"`
	Avatar       *Avatar    `json:"avatar,omitempty"`
	ProfileError string     `json:"profile_error,omitempty"`
}

type NavigationService interface {
	Mount(ctx context.Context)
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	MenuClick(name string) error
	View(isMobile bool) ShellView
}

type navigationService struct {
	client    backend.Client
	store     *session.Store
	tokens    session.TokenStore
	navigator Navigator
	publisher events.Publisher
	logger    *slog.Logger

	mu             sync.RWMutex
	profileLoading bool
	profileError   string
}

func NewNavigationService(
	client backend.Client,
	store *session.Store,
	tokens session.TokenStore,
	navigator Navigator,
	publisher events.Publisher,
	logger *slog.Logger,
) NavigationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &navigationService{
		client:    client,
		store:     store,
		tokens:    tokens,
		navigator: navigator,
		publisher: publisher,
		logger:    logger,
	}
}

// Mount loads the signed-in user's data: the profile first, then, only if
// that succeeded, the vehicle list and government ID types. Failures are
// logged and never block rendering.
func (s *navigationService) Mount(ctx context.Context) {
	token := s.store.Token()
	if token == "" {
		return
	}

	s.setProfileState(true, "")
	profile, err := s.client.FetchUserProfile(ctx, token)
	if err != nil {
		s.logger.Error("failed to load profile", slog.String("error", err.Error()))
		if s.store.Token() == token {
			s.setProfileState(false, "Error loading profile")
		}
		return
	}
	if !s.store.SetProfile(token, profile) {
		s.setProfileState(false, "")
		s.logger.Debug("session changed while loading profile, discarding")
		return
	}
	s.setProfileState(false, "")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		vehicles, err := s.client.FetchVehicleList(ctx, token)
		if err != nil {
			s.logger.Error("failed to load vehicles", slog.String("error", err.Error()))
			return
		}
		if !s.store.SetVehicles(token, vehicles) {
			s.logger.Debug("session changed while loading vehicles, discarding")
		}
	}()
	go func() {
		defer wg.Done()
		types, err := s.client.FetchGovtIDTypes(ctx, token)
		if err != nil {
			s.logger.Error("failed to load government ID types", slog.String("error", err.Error()))
			return
		}
		if !s.store.SetGovtIDTypes(token, types) {
			s.logger.Debug("session changed while loading government ID types, discarding")
		}
	}()
	wg.Wait()
}

// Login persists token, then makes it the session token and mounts the
// shell for it. A token that cannot be persisted leaves the session as it
// was.
func (s *navigationService) Login(ctx context.Context, token string) error {
	if err := s.tokens.Save(ctx, token); err != nil {
		s.logger.Error("failed to persist session token", slog.String("error", err.Error()))
		return err
	}
	s.store.SetToken(token)
	s.publisher.Publish(events.TypeSession, map[string]bool{"logged_in": true})
	s.Mount(ctx)
	return nil
}

// Logout clears the token from memory and persistent storage and sends
// the user to the login page.
func (s *navigationService) Logout(ctx context.Context) error {
	s.store.ClearToken()
	s.setProfileState(false, "")
	err := s.tokens.Clear(ctx)
	if err != nil {
		s.logger.Error("failed to clear persisted session token", slog.String("error", err.Error()))
	}

	s.publisher.Publish(events.TypeSession, map[string]bool{"logged_in": false})
	s.navigator.Navigate(LoginPath)
	return err
}

func (s *navigationService) MenuClick(name string) error {
	if name == "Logout" {
		return apperrors.BadRequest("use logout to end the session")
	}
	for _, items := range [][]MenuItem{navItems, accountItems} {
		for _, item := range items {
			if item.Name == name {
				s.navigator.Navigate(item.Path)
				return nil
			}
		}
	}
	return apperrors.NotFound("menu item")
}

// View renders the shell for the four {logged in, mobile} combinations.
func (s *navigationService) View(isMobile bool) ShellView {
	snap := s.store.Snapshot()

	s.mu.RLock()
	loading, profileErr := s.profileLoading, s.profileError
	s.mu.RUnlock()

	view := ShellView{
		LoggedIn:    snap.LoggedIn,
		IsMobile:    isMobile,
		Placement:   PlacementNone,
		NavItems:    []MenuItem{},
		AccountMenu: []MenuItem{},
	}

	if !snap.LoggedIn {
		view.ShowLogin = true
		return view
	}

	view.ProfileError = profileErr
	view.AccountMenu = append(view.AccountMenu, accountItems...)
	view.NavItems = append(view.NavItems, navItems...)
	if isMobile {
		view.Placement = PlacementBottom
	} else {
		view.Placement = PlacementInline
		view.Loading = loading
	}

	if snap.Profile != nil {
		view.Avatar = &Avatar{
			Name:    snap.Profile.FirstName,
			Picture: snap.Profile.ProfilePicture,
			Initial: snap.Profile.Initial(),
		}
	}
	return view
}

func (s *navigationService) setProfileState(loading bool, errMsg string) {
	s.mu.Lock()
	s.profileLoading = loading
	s.profileError = errMsg
	s.mu.Unlock()
}
