package handler

import (
	"encoding/json"
	"net/http"

	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/service"
	"github.com/carnest/carnest-go/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type SessionHandler struct {
	navigation service.NavigationService
	validate   *validator.Validate
}

func NewSessionHandler(navigation service.NavigationService) *SessionHandler {
	return &SessionHandler{
		navigation: navigation,
		validate:   validator.New(),
	}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.Login)
	r.Delete("/session", h.Logout)
}

// POST /v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.SetTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := h.navigation.Login(r.Context(), req.AccessToken); err != nil {
		utils.InternalError(w, "failed to persist session")
		return
	}

	utils.Success(w, http.StatusOK, h.navigation.View(isMobile(r)))
}

// DELETE /v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.navigation.Logout(r.Context()); err != nil {
		utils.InternalError(w, "failed to clear persisted session")
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{
		"status":   "logged_out",
		"redirect": service.LoginPath,
	})
}
