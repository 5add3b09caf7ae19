// Package health реализует HTTP-обработчик проверки работоспособности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/risk-monitor/internal/http/response"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
)

// Version версия API, отдаваемая в ответе.
const Version = "1.0.0"

// Pinger проверяет доступность хранилища.
type Pinger interface {
	CheckDatabaseReady(ctx context.Context) error
}

// Handler отвечает на запросы проверки здоровья.
type Handler struct {
	log    *slog.Logger
	pinger Pinger
}

// New создает Handler. pinger может быть nil, тогда хранилище не проверяется.
func New(log *slog.Logger, pinger Pinger) *Handler {
	return &Handler{
		log:    log,
		pinger: pinger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if h.pinger != nil {
		if err := h.pinger.CheckDatabaseReady(r.Context()); err != nil {
			h.log.Error("database is not ready",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err),
			)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("database is not ready"))
			return
		}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":  "healthy",
		"version": Version,
	}))
}
