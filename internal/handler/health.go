package handler

import (
	"net/http"

	"github.com/carnest/carnest-go/pkg/utils"
)

// WriteHealth reports each checked dependency; any dependency not "up"
// turns the response into a 503.
func WriteHealth(w http.ResponseWriter, services map[string]string) {
	status, code := "ok", http.StatusOK
	for _, state := range services {
		if state != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	utils.JSON(w, code, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}
