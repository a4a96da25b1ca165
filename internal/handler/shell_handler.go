package handler

import (
	"net/http"
	"strconv"

	"github.com/carnest/carnest-go/internal/service"
	"github.com/carnest/carnest-go/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type ShellHandler struct {
	navigation service.NavigationService
	navigator  *service.EventNavigator
}

func NewShellHandler(navigation service.NavigationService, navigator *service.EventNavigator) *ShellHandler {
	return &ShellHandler{
		navigation: navigation,
		navigator:  navigator,
	}
}

func (h *ShellHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shell", h.GetShell)
	r.Post("/shell/menu/{item}", h.MenuClick)
}

// GET /v1/shell?mobile=true
func (h *ShellHandler) GetShell(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, http.StatusOK, map[string]interface{}{
		"shell":    h.navigation.View(isMobile(r)),
		"location": h.navigator.Current(),
	})
}

// POST /v1/shell/menu/{item}
func (h *ShellHandler) MenuClick(w http.ResponseWriter, r *http.Request) {
	item := chi.URLParam(r, "item")
	if item == "" {
		utils.BadRequest(w, "menu item is required")
		return
	}

	if err := h.navigation.MenuClick(item); err != nil {
		utils.FromError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"location": h.navigator.Current()})
}

func isMobile(r *http.Request) bool {
	mobile, _ := strconv.ParseBool(r.URL.Query().Get("mobile"))
	return mobile
}
