package config

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStaffCreator struct {
	calls []SeedConfig
	err   error
}

func (f *fakeStaffCreator) CreateStaffAccount(_ context.Context, seed SeedConfig) (bool, error) {
	f.calls = append(f.calls, seed)
	return f.err == nil, f.err
}

func TestSeeder_Run(t *testing.T) {
	seed := SeedConfig{AdminEmail: "admin@example.com", AdminPassword: "pw-123456", AdminName: "Admin"}
	log, _ := test.NewNullLogger()

	t.Run("dev seeds admin", func(t *testing.T) {
		staff := &fakeStaffCreator{}
		err := NewSeeder(&Config{AppMode: "dev", Seed: seed}, staff, log).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []SeedConfig{seed}, staff.calls)
	})

	t.Run("prod never seeds", func(t *testing.T) {
		staff := &fakeStaffCreator{}
		err := NewSeeder(&Config{AppMode: "prod", Seed: seed}, staff, log).Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, staff.calls)
	})

	t.Run("no credentials", func(t *testing.T) {
		staff := &fakeStaffCreator{}
		err := NewSeeder(&Config{AppMode: "dev"}, staff, log).Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, staff.calls)
	})

	t.Run("failure is logged", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		staff := &fakeStaffCreator{err: errors.New("duplicate phone")}
		err := NewSeeder(&Config{AppMode: "dev", Seed: seed}, staff, logger).Run(context.Background())
		require.NoError(t, err)

		var warned bool
		for _, entry := range hook.AllEntries() {
			if entry.Level == logrus.WarnLevel {
				warned = true
			}
		}
		assert.True(t, warned)
	})
}
