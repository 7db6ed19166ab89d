package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	database "github.com/sebuszqo/ezwallet/db"
	"github.com/sebuszqo/ezwallet/internal/api"
	"github.com/sebuszqo/ezwallet/internal/auth"
	"github.com/sebuszqo/ezwallet/internal/config"
	"github.com/sebuszqo/ezwallet/internal/email"
	"github.com/sebuszqo/ezwallet/internal/events"
	"github.com/sebuszqo/ezwallet/internal/finance/application"
	"github.com/sebuszqo/ezwallet/internal/finance/infrastructure"
	"github.com/sebuszqo/ezwallet/internal/finance/interfaces"
	"github.com/sebuszqo/ezwallet/internal/group"
	"github.com/sebuszqo/ezwallet/internal/logger"
	"github.com/sebuszqo/ezwallet/internal/user"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if migrate {
				if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
					return err
				}
				log.Info().Msg("Migrations applied")
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before starting")
	return cmd
}

func newPublisher(cfg *config.Config, log zerolog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		log.Info().Msg("AMQP URL not set, domain events are disabled")
		return events.NoopPublisher{}
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Warn().Err(err).Msg("could not connect to AMQP, domain events are disabled")
		return events.NoopPublisher{}
	}
	log.Info().Str("exchange", cfg.AMQPExchange).Msg("Publishing domain events")
	return publisher
}

// newMailer returns the sender for group invitations and a function releasing it.
func newMailer(cfg *config.Config, log zerolog.Logger) (email.EmailSender, func() error) {
	if cfg.SMTPHost == "" {
		log.Info().Msg("SMTP host not set, group invitations are disabled")
		return email.NoopSender{}, func() error { return nil }
	}
	mailer, err := email.NewEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.EmailAddress,
		Password: cfg.EmailPassword,
	}, log)
	if err != nil {
		log.Warn().Err(err).Msg("could not start email service, group invitations are disabled")
		return email.NoopSender{}, func() error { return nil }
	}
	return mailer, mailer.Close
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	dbService, err := database.NewDBService(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer dbService.Close()

	publisher := newPublisher(cfg, log)
	defer publisher.Close()

	mailer, closeMailer := newMailer(cfg, log)
	defer closeMailer()

	jwtManager, err := auth.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return err
	}
	cookies := auth.CookieSettings{
		Secure:     cfg.CookieSecure,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	userService := user.NewUserService(user.NewUserRepository(dbService.DB))
	authService := auth.NewAuthService(userService, jwtManager)
	groupService := group.NewGroupService(group.NewGroupRepository(dbService.DB), userService, group.WithInvitations(mailer))

	categoryService := application.NewCategoryService(infrastructure.NewCategoryRepository(dbService.DB), publisher)
	transactionService := application.NewTransactionService(
		infrastructure.NewTransactionRepository(dbService.DB),
		categoryService,
		userService,
		groupService,
		publisher,
	)

	respond := interfaces.Responders{Data: api.Data, Message: api.Message, Error: api.Error}
	server := &Server{
		router:             http.NewServeMux(),
		guard:              auth.NewGuard(auth.NewResolver(jwtManager), cookies),
		db:                 dbService,
		authHandler:        auth.NewHandler(authService, cookies),
		userHandler:        user.NewHandler(userService),
		groupHandler:       group.NewHandler(groupService),
		categoryHandler:    interfaces.NewCategoryHandler(categoryService, respond),
		transactionHandler: interfaces.NewTransactionHandler(transactionService, respond),
	}
	server.RegisterRoutes()

	var handler http.Handler = server.router
	handler = logger.Recovery(log)(handler)
	handler = logger.Middleware(log)(handler)
	handler = logger.RequestID(handler)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", httpServer.Addr).Msg("Server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
