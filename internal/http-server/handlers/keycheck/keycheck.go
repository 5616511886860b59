package keycheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"keygate/entity"
	"keygate/lib/api/response"
	"keygate/lib/sl"
)

type Core interface {
	Redeem(ctx context.Context, value, claimant string) (*entity.CheckResult, error)
}

// Query serves the query-parameter form of the check endpoint:
// GET /v1/key/check?key=...&device=...
func Query(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &entity.CheckRequest{
			Key:    r.URL.Query().Get("key"),
			Device: r.URL.Query().Get("device"),
		}
		serve(logger, handler, w, r, req)
	}
}

// Body serves the structured-body form: POST /v1/key/check with a JSON
// body. Identical logical inputs must produce byte-identical payloads on
// both forms.
func Body(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.keycheck"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req := &entity.CheckRequest{}
		if err := render.Bind(r, req); err != nil {
			log.Warn("invalid request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		serve(logger, handler, w, r, req)
	}
}

func serve(logger *slog.Logger, handler Core, w http.ResponseWriter, r *http.Request, req *entity.CheckRequest) {
	log := logger.With(
		sl.Module("http.handlers.keycheck"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		sl.Secret("key", req.Key),
		slog.String("device", req.Device),
	)

	if handler == nil {
		log.Error("key service not available")
		render.Status(r, 500)
		render.JSON(w, r, response.Error("Key service not available"))
		return
	}

	result, err := handler.Redeem(r.Context(), req.Key, req.Device)
	if err != nil {
		if errors.Is(err, entity.ErrKeyRequired) {
			log.Warn("invalid request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		log.Error("key check", sl.Err(err))
		render.Status(r, 500)
		render.JSON(w, r, response.Error("Request failed: storage error"))
		return
	}

	log.With(
		slog.Bool("valid", result.Valid),
		slog.String("reason", result.Reason),
	).Debug("key check served")

	render.JSON(w, r, response.Ok(result))
}
