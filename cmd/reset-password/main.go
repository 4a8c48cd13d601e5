package main

import (
	"flag"
	"strings"

	"go-cashbook-api/internal/config"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/pkg/database"
	"go-cashbook-api/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	email := flag.String("email", "", "user email")
	password := flag.String("password", "", "new password (min 6 chars)")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	if *email == "" || len(*password) < 6 {
		log.Fatal().Msg("usage: reset-password -email user@example.com -password newpass")
	}

	// 2. Setup Database
	db, err := database.ConnectPostgres(database.Options{DSN: cfg.DSN(), MaxOpenConns: 2}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	// 3. Find user
	userRepo := repository.NewUserRepo(db)
	user, err := userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("user not found")
	}

	// 4. Hash new password
	if err := user.SetPassword(*password); err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}

	// 5. Update and drop open sessions
	if err := userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		log.Fatal().Err(err).Msg("failed to update password")
	}
	if err := userRepo.UpdateTokenVersion(user.ID, uuid.New().String()); err != nil {
		log.Fatal().Err(err).Msg("failed to revoke sessions")
	}

	log.Info().Str("email", user.Email).Msg("password reset")
}
