package config

import (
	"context"

	"github.com/sirupsen/logrus"
)

// StaffAccountCreator creates the seed staff account unless it exists
type StaffAccountCreator interface {
	CreateStaffAccount(ctx context.Context, seed SeedConfig) (bool, error)
}

// Seeder handles startup seeding
type Seeder struct {
	cfg   *Config
	staff StaffAccountCreator
	log   logrus.FieldLogger
}

// NewSeeder creates a new seeder instance
func NewSeeder(cfg *Config, staff StaffAccountCreator, log logrus.FieldLogger) *Seeder {
	return &Seeder{cfg: cfg, staff: staff, log: log}
}

// Run executes all seeders. Seeding only happens in dev mode.
func (s *Seeder) Run(ctx context.Context) error {
	if !s.cfg.IsDev() {
		return nil
	}
	s.log.Info("🌱 Running seeders...")

	if err := s.seedAdminUser(ctx); err != nil {
		s.log.WithError(err).Warn("⚠️ Admin seeder skipped")
	}

	s.log.Info("✅ Seeding completed")
	return nil
}

// seedAdminUser creates the staff account described by SEED_ADMIN_*.
// In production, create staff through loanctl instead.
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	seed := s.cfg.Seed
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		s.log.Debug("SEED_ADMIN_EMAIL not set, no admin seeded")
		return nil
	}

	created, err := s.staff.CreateStaffAccount(ctx, seed)
	if err != nil {
		return err
	}
	if created {
		s.log.WithField("email", seed.AdminEmail).Info("✅ Admin user created")
	}
	return nil
}
