// Package alert реализует HTTP-обработчик ручной отправки алерта по пользователю.
package alert

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/risk-monitor/internal/http/response"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

// Service описывает интерфейс отправки алерта.
type Service interface {
	Send(ctx context.Context, userID int64) (*models.RiskAlert, error)
}

// Handler обрабатывает запросы на отправку алерта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.risk.alert"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Error("failed to decode id from url", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}
	log = log.With(sl.UserID(id))

	res, err := h.service.Send(r.Context(), id)
	if errors.Is(err, models.ErrUserNotFound) {
		log.Info("user not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to send alert", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not send alert"))
		return
	}

	log.Info("alert sent", slog.String("alert_id", res.ID))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"alert_id":   res.ID,
		"risk_level": res.RiskLevel,
		"risk_score": res.RiskScore,
	}))
}
