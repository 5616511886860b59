package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"keygate/lib/api/response"
	"keygate/lib/sl"
)

type Core interface {
	StoragePing(ctx context.Context) error
}

type Status struct {
	Status string `json:"status"`
}

// Check reports liveness: 200 when the storage backend answers the ping,
// 503 otherwise.
func Check(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.health"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("key service not available")
			render.Status(r, 503)
			render.JSON(w, r, response.Error("Key service not available"))
			return
		}

		if err := handler.StoragePing(r.Context()); err != nil {
			log.Error("storage ping", sl.Err(err))
			render.Status(r, 503)
			render.JSON(w, r, response.Error("Storage not available"))
			return
		}

		render.JSON(w, r, response.Ok(Status{Status: "ok"}))
	}
}
