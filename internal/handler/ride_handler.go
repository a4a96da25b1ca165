package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carnest/carnest-go/internal/backend"
	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/service"
	"github.com/carnest/carnest-go/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type RideHandler struct {
	client    backend.Client
	selection service.SelectionService
	booking   service.BookingService
	views     service.RideViewService
	navigator service.Navigator
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewRideHandler(
	client backend.Client,
	selection service.SelectionService,
	booking service.BookingService,
	views service.RideViewService,
	navigator service.Navigator,
	logger *slog.Logger,
) *RideHandler {
	return &RideHandler{
		client:    client,
		selection: selection,
		booking:   booking,
		views:     views,
		navigator: navigator,
		logger:    logger,
		validate:  validator.New(),
	}
}

// RegisterRoutes mounts read and selection routes. Booking routes are
// mounted separately so they can carry the idempotency middleware.
func (h *RideHandler) RegisterRoutes(r chi.Router) {
	r.Get("/rides", h.SearchRides)
	r.Get("/rides/view", h.GetRideView)
	r.Post("/rides/{id}/select", h.SelectRide)
	r.Get("/selection", h.GetSelection)
}

func (h *RideHandler) RegisterBookingRoutes(r chi.Router) {
	r.Post("/rides/{id}/book", h.BookRide)
	r.Post("/selection/book", h.BookSelected)
}

// GET /v1/rides?from=&to=&date=&seats=
func (h *RideHandler) SearchRides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := models.RideSearch{
		GoingFrom: q.Get("from"),
		GoingTo:   q.Get("to"),
		Date:      q.Get("date"),
	}
	if seats := q.Get("seats"); seats != "" {
		n, err := strconv.Atoi(seats)
		if err != nil {
			utils.BadRequest(w, "seats must be a number")
			return
		}
		search.Seats = n
	}

	if err := h.validate.Struct(search); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	rides, err := h.client.FetchRideList(r.Context(), &search)
	if err != nil {
		h.logger.Error("error fetching rides", slog.String("error", err.Error()))
		utils.FromError(w, err)
		return
	}

	h.selection.SetRides(r.Context(), rides)
	utils.Success(w, http.StatusOK, h.views.View())
}

// GET /v1/rides/view
func (h *RideHandler) GetRideView(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, http.StatusOK, h.views.View())
}

// POST /v1/rides/{id}/select
func (h *RideHandler) SelectRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}

	if err := h.selection.SelectRide(r.Context(), id); err != nil {
		utils.FromError(w, err)
		return
	}

	utils.Success(w, http.StatusAccepted, h.selection.State())
}

// GET /v1/selection
func (h *RideHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, http.StatusOK, h.selection.State())
}

// POST /v1/rides/{id}/book
func (h *RideHandler) BookRide(w http.ResponseWriter, r *http.Request) {
	id, ok := rideID(w, r)
	if !ok {
		return
	}

	res, err := h.booking.ConfirmBooking(r.Context(), id, h.advance)
	h.writeBooking(w, res, err)
}

// POST /v1/selection/book
func (h *RideHandler) BookSelected(w http.ResponseWriter, r *http.Request) {
	res, err := h.booking.BookSelected(r.Context(), h.advance)
	h.writeBooking(w, res, err)
}

func (h *RideHandler) advance(rideID int64) {
	h.navigator.Navigate(service.BookPath)
}

func (h *RideHandler) writeBooking(w http.ResponseWriter, res service.BookingResult, err error) {
	switch {
	case err == nil:
		utils.Success(w, http.StatusOK, res)
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		utils.JSON(w, http.StatusUnauthorized, res)
	case res.Outcome == service.OutcomeFailed:
		status := http.StatusBadGateway
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			status = apiErr.StatusCode
		}
		utils.JSON(w, status, res)
	default:
		utils.FromError(w, err)
	}
}

func rideID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		utils.BadRequest(w, "ride id must be a positive integer")
		return 0, false
	}
	return id, true
}
