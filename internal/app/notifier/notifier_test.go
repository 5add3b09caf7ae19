package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/risk-monitor/internal/config"
)

func TestQueueNames(t *testing.T) {
	tests := []struct {
		name    string
		levels  []string
		want    []string
		wantErr bool
	}{
		{
			name:   "critical and high",
			levels: []string{"critical", "high"},
			want:   []string{"risk.alerts.critical", "risk.alerts.high"},
		},
		{
			name:   "all levels",
			levels: []string{"low", "medium", "high", "critical"},
			want:   []string{"risk.alerts.low", "risk.alerts.medium", "risk.alerts.high", "risk.alerts.critical"},
		},
		{name: "unknown level", levels: []string{"severe"}, wantErr: true},
		{name: "no levels", levels: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queueNames(tt.levels)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_RequiresRecipients(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	cfg := &config.Config{Notifier: config.Notifier{Levels: []string{"critical"}}}

	app, err := New(context.Background(), cfg, logger)
	assert.Nil(t, app)
	assert.ErrorIs(t, err, ErrNoRecipients)
}
