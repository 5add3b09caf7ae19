package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/risk-monitor/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/risk-monitor/internal/models"
)

type AnalyzerMock struct {
	mock.Mock
}

func (m *AnalyzerMock) AnalyzeUser(ctx context.Context, userID int64) (*models.UserRiskAnalysis, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.UserRiskAnalysis), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(a Analyzer, ch rabbitmq.Channel) *AlertService {
	s := NewAlertService(a, ch, rabbitmq.AlertExchange, newNoopLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func criticalAnalysis() *models.UserRiskAnalysis {
	return &models.UserRiskAnalysis{
		UserID:          42,
		UserName:        "Ivan",
		UserEmail:       "ivan@example.com",
		RiskScore:       0.83,
		RiskLevel:       models.RiskCritical,
		RiskFactors:     []string{"Multiple consecutive recent failures"},
		Recommendations: []string{"Contact customer immediately"},
	}
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	analyzer := new(AnalyzerMock)
	analyzer.On("AnalyzeUser", ctx, int64(42)).Return(criticalAnalysis(), nil).Once()

	var published models.RiskAlert
	ch := new(MockChannel)
	ch.On("Publish", rabbitmq.AlertExchange, "critical", false, false, mock.Anything).
		Run(func(args mock.Arguments) {
			msg := args.Get(4).(amqp.Publishing)
			require.NoError(t, json.Unmarshal(msg.Body, &published))
		}).
		Return(nil).Once()

	alert, err := newService(analyzer, ch).Send(ctx, 42)
	require.NoError(t, err)

	_, err = uuid.Parse(alert.ID)
	require.NoError(t, err, "alert id must be a uuid")
	assert.Equal(t, int64(42), alert.UserID)
	assert.Equal(t, models.RiskCritical, alert.RiskLevel)
	assert.Equal(t, 0.83, alert.RiskScore)
	assert.Equal(t, fixedNow, alert.CreatedAt)
	assert.Equal(t, *alert, published)

	analyzer.AssertExpectations(t)
	ch.AssertExpectations(t)
}

func TestSend_UserNotFound(t *testing.T) {
	ctx := context.Background()
	analyzer := new(AnalyzerMock)
	analyzer.On("AnalyzeUser", ctx, int64(1)).Return(nil, models.ErrUserNotFound).Once()
	ch := new(MockChannel)

	alert, err := newService(analyzer, ch).Send(ctx, 1)
	assert.Nil(t, alert)
	require.ErrorIs(t, err, models.ErrUserNotFound)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_PublishError(t *testing.T) {
	ctx := context.Background()
	analyzer := new(AnalyzerMock)
	analyzer.On("AnalyzeUser", ctx, int64(42)).Return(criticalAnalysis(), nil).Once()
	ch := new(MockChannel)
	ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed")).Once()

	alert, err := newService(analyzer, ch).Send(ctx, 42)
	assert.Nil(t, alert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services.alert.Send")
	assert.Contains(t, err.Error(), "channel closed")
}

func TestBuild_UniqueIDs(t *testing.T) {
	s := newService(new(AnalyzerMock), new(MockChannel))
	a := s.Build(criticalAnalysis())
	b := s.Build(criticalAnalysis())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPublish_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch := new(MockChannel)

	err := newService(new(AnalyzerMock), ch).Publish(ctx, models.RiskAlert{RiskLevel: models.RiskHigh})
	require.ErrorIs(t, err, context.Canceled)
	ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
