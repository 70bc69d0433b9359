// Package bootstrap builds the runtime shared by the server and loanctl.
package bootstrap

import (
	"loanportal/internal/adapters/mail"
	"loanportal/internal/adapters/persistence/memory"
	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"
	"loanportal/internal/config"
	"loanportal/internal/core/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Runtime holds the storage and transports built from the configuration
type Runtime struct {
	Config   *config.Config
	Log      *logrus.Logger
	DB       *gorm.DB
	Repos    *repositories.Set
	Mailer   services.Mailer
	Fallback services.Mailer
}

// Open connects storage, migrates it and builds the mail transports
func Open(cfg *config.Config, log *logrus.Logger) (*Runtime, error) {
	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Config: cfg, Log: log, DB: db}

	if db == nil {
		rt.Repos = memory.NewStore().Set()
	} else {
		// Auto migrate (creates tables if not exist)
		if err := models.AutoMigrate(db); err != nil {
			_ = config.CloseDatabase(db)
			return nil, err
		}
		log.Info("✅ Database migration completed")
		rt.Repos = repositories.NewGormSet(db)
	}

	rt.Fallback = mail.NewConsoleMailer(log)
	if cfg.Mail.Backend == "console" {
		rt.Mailer = rt.Fallback
	} else {
		rt.Mailer = mail.NewSMTPMailer(cfg.Mail, log)
	}

	return rt, nil
}

// Close releases the database connection
func (rt *Runtime) Close() {
	if err := config.CloseDatabase(rt.DB); err != nil {
		rt.Log.WithError(err).Error("❌ Failed to close database")
	}
}
