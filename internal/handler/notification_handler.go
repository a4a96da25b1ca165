package handler

import (
	"net/http"

	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/internal/notify"
	"github.com/carnest/carnest-go/pkg/utils"
	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	notifier *notify.Notifier
}

func NewNotificationHandler(notifier *notify.Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.ListNotifications)
	r.Delete("/notifications/{id}", h.DismissNotification)
}

// GET /v1/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	utils.Success(w, http.StatusOK, map[string]interface{}{
		"notifications": h.notifier.Active(),
	})
}

// DELETE /v1/notifications/{id}?reason=explicit|clickaway
func (h *NotificationHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !utils.IsValidID(id) {
		utils.BadRequest(w, "invalid notification id")
		return
	}

	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = models.DismissExplicit
	}

	switch reason {
	case models.DismissClickaway:
		// Clicking elsewhere leaves the notification up.
		utils.Success(w, http.StatusOK, map[string]bool{"dismissed": false})
		return
	case models.DismissExplicit:
	default:
		utils.BadRequest(w, "reason must be explicit or clickaway")
		return
	}

	if !h.notifier.Dismiss(id, reason) {
		utils.NotFound(w, "notification")
		return
	}
	utils.NoContent(w)
}
