package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog/backend/internal/config"
	authdomain "catalog/backend/internal/domain/auth"
	productdomain "catalog/backend/internal/domain/product"
	"catalog/backend/internal/httpserver"
	"catalog/backend/internal/infrastructure/kafka"
	"catalog/backend/internal/infrastructure/postgres"
	"catalog/backend/internal/infrastructure/telemetry"
	"catalog/backend/internal/infrastructure/token"
	"catalog/backend/internal/logging"
	authusecase "catalog/backend/internal/usecase/auth"
	categoryusecase "catalog/backend/internal/usecase/category"
	productusecase "catalog/backend/internal/usecase/product"
	userusecase "catalog/backend/internal/usecase/user"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	rootCtx := context.Background()
	tel, err := telemetry.New(rootCtx, cfg.Telemetry, logger)
	if err != nil {
		logger.Fatal("failed to initialise telemetry", zap.Error(err))
	}

	db, err := postgres.New(rootCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(rootCtx); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	var events productdomain.EventPublisher
	if cfg.Kafka.Enabled() {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic, cfg.Kafka.PublishTimeout, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("kafka publisher close", zap.Error(err))
			}
		}()
		events = publisher
		logger.Info("publishing product events",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.ProductTopic),
		)
	}

	userRepo := postgres.NewUserRepository(db.Pool)
	categoryRepo := postgres.NewCategoryRepository(db.Pool)
	tokenManager := token.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)

	authService := authusecase.NewService(userRepo, tokenManager, logger)
	userService := userusecase.NewService(userRepo, postgres.NewRoleRepository(db.Pool), logger)
	categoryService := categoryusecase.NewService(categoryRepo, logger)
	productService := productusecase.NewService(postgres.NewProductRepository(db.Pool), categoryRepo, events, logger)

	if err := bootstrapAdmin(rootCtx, cfg, userService); err != nil {
		logger.Fatal("failed to create bootstrap admin", zap.Error(err))
	}

	server := httpserver.NewServer(cfg, httpserver.Dependencies{
		Auth:       authService,
		Products:   productService,
		Categories: categoryService,
		Users:      userService,
		Metrics:    tel.MetricsHandler(),
		Ready:      db.Ping,
	}, logger)

	go func() {
		if err := server.Start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				logger.Info("http server closed")
				return
			}
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("graceful shutdown completed")
	}
	if err := tel.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
}

// bootstrapAdmin creates the configured admin unless the email is taken.
func bootstrapAdmin(ctx context.Context, cfg config.Config, users *userusecase.Service) error {
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		return nil
	}
	_, err := users.Insert(ctx, userusecase.UserInsertDTO{
		UserDTO: userusecase.UserDTO{
			FirstName: "Admin",
			Email:     cfg.BootstrapAdminEmail,
			Roles:     []string{string(authdomain.RoleOperator), string(authdomain.RoleAdmin)},
		},
		Password: cfg.BootstrapAdminPassword,
	})
	if errors.Is(err, authdomain.ErrEmailExists) {
		return nil
	}
	return err
}
