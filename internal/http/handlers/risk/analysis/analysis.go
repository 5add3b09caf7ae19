// Package analysis реализует HTTP-обработчик подробного анализа риска пользователя.
package analysis

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

// Service описывает интерфейс бизнес-логики анализа пользователя.
type Service interface {
	AnalyzeUser(ctx context.Context, userID int64) (*models.UserRiskAnalysis, error)
}

// Handler обрабатывает запросы на анализ риска по ID пользователя.
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

// ServeHTTP отдаёт анализ пользователя из URL-параметра id.
// Некорректный id даёт 400, неизвестный пользователь 404.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.risk.analysis"

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

	res, err := h.service.AnalyzeUser(r.Context(), id)
	if errors.Is(err, models.ErrUserNotFound) {
		log.Info("user not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("user not found"))
		return
	}
	if err != nil {
		log.Error("failed to analyze user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not analyze user"))
		return
	}

	log.Info("user analyzed",
		slog.Float64("risk_score", res.RiskScore),
		slog.String("risk_level", string(res.RiskLevel)),
	)
	render.JSON(w, r, response.StatusOKWithData(res))
}
