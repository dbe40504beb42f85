package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/njprem/authcore/internal/config"
	"github.com/njprem/authcore/internal/logging"
	"github.com/njprem/authcore/internal/repository/postgres"
	"github.com/njprem/authcore/internal/service"
	transport "github.com/njprem/authcore/internal/transport/http"
	"github.com/njprem/authcore/internal/transport/mail"
	"github.com/njprem/authcore/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash writer disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepo(db)
	tokenRepo := postgres.NewResetTokenRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	mailer := mail.NewResetMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL)

	authService := service.NewAuthService(userRepo, sessionRepo, jwtManager)
	tokenService := service.NewTokenService(
		tokenRepo,
		userRepo,
		mailer,
		cfg.FrontendBaseURL,
		cfg.PasswordResetTTL,
		cfg.PasswordResetRateWindow,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tokenService.StartSweeper(ctx, cfg.PasswordResetSweepEvery)

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterAuth(e, authService, tokenService)
	transport.RegisterAdmin(e, authService, tokenService)
	transport.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
