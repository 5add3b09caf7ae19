// Package riskyusers реализует HTTP-обработчик списка пользователей с высоким риском.
//
// Handler читает параметры min_risk_score и limit из строки запроса, проверяет их
// и возвращает пользователей, отсортированных по убыванию оценки риска.
package riskyusers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/risk-monitor/internal/http/response"
	"github.com/magabrotheeeer/risk-monitor/internal/lib/sl"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
	"github.com/magabrotheeeer/risk-monitor/internal/risk"
)

// Service описывает интерфейс бизнес-логики выборки рискованных пользователей.
type Service interface {
	RiskyUsers(ctx context.Context, minScore float64, limit int) ([]models.UserRiskSummary, error)
}

// Query параметры строки запроса.
type Query struct {
	MinRiskScore float64 `validate:"gte=0,lte=1"`
	Limit        int     `validate:"gte=1,lte=1000"`
}

// Handler обрабатывает запросы на получение рискованных пользователей.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.risk.riskyusers"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q, err := parseQuery(r)
	if err != nil {
		log.Error("failed to parse query", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid query parameters"))
		return
	}
	if err = h.validate.Struct(q); err != nil {
		validateErr := err.(validator.ValidationErrors)
		log.Error("invalid query", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	res, err := h.service.RiskyUsers(r.Context(), q.MinRiskScore, q.Limit)
	if err != nil {
		log.Error("failed to fetch risky users", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not fetch risky users"))
		return
	}

	log.Info("risky users fetched",
		slog.Float64("min_risk_score", q.MinRiskScore),
		slog.Int("count", len(res)),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"users": res,
		"count": len(res),
	}))
}

func parseQuery(r *http.Request) (Query, error) {
	q := Query{
		MinRiskScore: risk.DefaultMinScore,
		Limit:        risk.DefaultLimit,
	}
	values := r.URL.Query()

	if v := values.Get("min_risk_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Query{}, err
		}
		q.MinRiskScore = f
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Query{}, err
		}
		q.Limit = n
	}
	return q, nil
}
