// Command admin_seed creates the initial admin account and the default DAF
// provider directory. Safe to run repeatedly; existing rows are left alone.
package main

import (
	"errors"
	"os"

	"catalyst/internal/config"
	"catalyst/internal/models"
	"catalyst/internal/repositories"
	"catalyst/internal/utils"

	"github.com/sirupsen/logrus"
)

var defaultProviders = []models.DAFProviderEntry{
	{ProviderName: "Fidelity Charitable", ProviderURL: "https://www.fidelitycharitable.org", IsActive: true},
	{ProviderName: "Schwab Charitable", ProviderURL: "https://www.schwabcharitable.org", IsActive: true},
	{ProviderName: "Vanguard Charitable", ProviderURL: "https://www.vanguardcharitable.org", IsActive: true},
	{ProviderName: "National Philanthropic Trust", ProviderURL: "https://www.nptrust.org", IsActive: true},
}

func main() {
	log := logrus.New()
	config.LoadEnv()

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}

	if err := repositories.InitDB(); err != nil {
		log.WithError(err).Fatal("database initialization failed")
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	store := repositories.NewGormStore(repositories.DB)

	if _, err := store.GetUserByEmail(adminEmail); err == nil {
		log.Info("admin user already exists")
	} else if errors.Is(err, repositories.ErrUserNotFound) {
		hash, err := utils.HashPassword(adminPassword)
		if err != nil {
			log.WithError(err).Fatal("failed to hash admin password")
		}
		admin := &models.User{
			Email:    adminEmail,
			Username: utils.UsernameBase(adminEmail),
			Password: hash,
			Role:     "admin",
			IsActive: true,
		}
		if err := store.CreateUser(admin); err != nil {
			log.WithError(err).Fatal("failed to create admin user")
		}
		log.WithField("email", adminEmail).Info("admin account created")
	} else {
		log.WithError(err).Fatal("failed to check for existing admin")
	}

	existing, err := store.ListDAFProviders()
	if err != nil {
		log.WithError(err).Fatal("failed to list providers")
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p.ProviderName] = true
	}

	for _, p := range defaultProviders {
		if known[p.ProviderName] {
			continue
		}
		provider := p
		if err := store.CreateDAFProvider(&provider); err != nil {
			log.WithError(err).WithField("provider", p.ProviderName).Warn("failed to seed provider")
			continue
		}
		log.WithField("provider", p.ProviderName).Info("provider seeded")
	}
}
