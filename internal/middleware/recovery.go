package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/carnest/carnest-go/internal/errors"
	"github.com/carnest/carnest-go/pkg/utils"
)

// Recovery is a middleware that recovers from panics
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						slog.Any("panic", err),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					utils.Error(w, apperrors.NewAPIError("internal_error", "an unexpected error occurred", http.StatusInternalServerError))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
