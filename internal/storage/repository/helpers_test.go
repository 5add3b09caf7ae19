package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/risk-monitor/internal/migrations"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))

	return storage
}

// TestDataFactory создаёт тестовые записи напрямую через SQL.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

func (f *TestDataFactory) CreateUser(t *testing.T, name, email string, createdAt time.Time, active bool) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO users (name, email, created_at, is_active)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		name, email, createdAt, active).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreateSubscription(t *testing.T, userID int64, subType, status string,
	amount float64, from, until time.Time) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO user_subscriptions
		(user_id, subscription_type, status, monthly_amount, effective_from, effective_until)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		userID, subType, status, amount, from, until).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) CreatePayment(t *testing.T, subID, userID int64, amount float64, status string,
	date time.Time, failureReason *string) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO subscription_payments
		(subscription_id, user_id, amount, status, payment_date, payment_method, failure_reason)
		VALUES ($1, $2, $3, $4, $5, 'card', $6) RETURNING id`,
		subID, userID, amount, status, date, failureReason).Scan(&id)
	require.NoError(t, err)
	return id
}
