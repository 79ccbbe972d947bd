package middleware

import (
	"log/slog"
	"net/http"

	"github.com/microparty/microparty/internal/api/apierr"
	"github.com/microparty/microparty/internal/middleware"
)

// Recovery creates panic recovery middleware for the game API. Panics
// surface to clients as the API's JSON error envelope.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
