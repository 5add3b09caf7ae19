package riskmonitor

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

type RiskMock struct {
	mock.Mock
}

func (m *RiskMock) RiskyUsers(ctx context.Context, minScore float64, limit int) ([]models.UserRiskSummary, error) {
	args := m.Called(ctx, minScore, limit)
	if res := args.Get(0); res != nil {
		return res.([]models.UserRiskSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RiskMock) AnalyzeUser(ctx context.Context, userID int64) (*models.UserRiskAnalysis, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.UserRiskAnalysis), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RiskMock) Stats(ctx context.Context) (models.SystemStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SystemStats), args.Error(1)
}

type AlertMock struct {
	mock.Mock
}

func (m *AlertMock) Send(ctx context.Context, userID int64) (*models.RiskAlert, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.RiskAlert), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestRouter(riskSvc *RiskMock, alertSvc *AlertMock, limiter *rate.Limiter) http.Handler {
	return NewRouter(newNoopLogger(), limiter, Services{
		Risk:   riskSvc,
		Alerts: alertSvc,
	})
}

func TestRoutes(t *testing.T) {
	riskSvc := new(RiskMock)
	alertSvc := new(AlertMock)

	riskSvc.On("RiskyUsers", mock.Anything, 0.7, 10).Return([]models.UserRiskSummary{{ID: 3}}, nil)
	riskSvc.On("AnalyzeUser", mock.Anything, int64(5)).Return(&models.UserRiskAnalysis{UserID: 5}, nil)
	riskSvc.On("Stats", mock.Anything).Return(models.SystemStats{TotalUsers: 2}, nil)
	alertSvc.On("Send", mock.Anything, int64(5)).Return(&models.RiskAlert{ID: "a-1", UserID: 5}, nil)

	router := newTestRouter(riskSvc, alertSvc, rate.NewLimiter(rate.Inf, 0))

	tests := []struct {
		name           string
		method         string
		url            string
		expectedStatus int
		expectedBody   string
	}{
		{"health", http.MethodGet, "/api/v1/health", http.StatusOK, `"status":"healthy"`},
		{"risky users", http.MethodGet, "/api/v1/risky-users?min_risk_score=0.7&limit=10", http.StatusOK, `"id":3`},
		{"risk analysis", http.MethodGet, "/api/v1/users/5/risk-analysis", http.StatusOK, `"user_id":5`},
		{"stats", http.MethodGet, "/api/v1/stats", http.StatusOK, `"total_users":2`},
		{"alert", http.MethodPost, "/api/v1/alerts/5", http.StatusAccepted, `"alert_id":"a-1"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, `go_goroutines`},
		{"alert requires POST", http.MethodGet, "/api/v1/alerts/5", http.StatusMethodNotAllowed, ``},
		{"unknown route", http.MethodGet, "/api/v1/unknown", http.StatusNotFound, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}

	riskSvc.AssertExpectations(t)
	alertSvc.AssertExpectations(t)
}

func TestRoutes_RateLimitSkipsHealth(t *testing.T) {
	riskSvc := new(RiskMock)
	riskSvc.On("Stats", mock.Anything).Return(models.SystemStats{}, nil).Once()

	router := newTestRouter(riskSvc, new(AlertMock), rate.NewLimiter(rate.Limit(0.001), 1))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	for range 3 {
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	riskSvc.AssertExpectations(t)
}
