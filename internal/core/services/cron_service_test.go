package services

import (
	"context"
	"testing"
	"time"

	"loanportal/internal/adapters/persistence/memory"
	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronService_RunOnce(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewStore().Set()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, expires := range []time.Time{
		now.Add(-48 * time.Hour),
		now.Add(-time.Second),
		now.Add(time.Hour),
	} {
		require.NoError(t, repos.Sessions.Create(ctx, &models.Session{
			UserID:    1,
			TokenHash: string(rune('a' + i)),
			ExpiresAt: expires,
		}))
	}

	svc := NewCronService(repos.Sessions, "@hourly", logger.Discard())
	svc.now = func() time.Time { return now }

	deleted, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	_, err = repos.Sessions.GetByTokenHash(ctx, "c")
	assert.NoError(t, err, "live session is kept")

	deleted, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCronService_StartStop(t *testing.T) {
	repos := memory.NewStore().Set()

	bad := NewCronService(repos.Sessions, "not a schedule", logger.Discard())
	assert.Error(t, bad.Start())

	svc := NewCronService(repos.Sessions, "@every 1h", logger.Discard())
	require.NoError(t, svc.Start())
	svc.Stop()
}
