package main

import (
	"ImageHub/internal/authz"
	"ImageHub/internal/blob"
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"ImageHub/internal/generative"
	"ImageHub/internal/handlers"
	"ImageHub/internal/middleware"
	"ImageHub/internal/repo"
	"ImageHub/internal/service"
	"ImageHub/internal/token"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProd() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	//context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.IsProd() && cfg.AuthSecret == "dev-secret-key" {
		sugar.Fatalw("AUTH_SECRET must be set in prod")
	}

	gormDB, err := repo.InitDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}
	if err := repo.Migrate(gormDB); err != nil {
		sugar.Fatalw("failed to migrate database", "error", err)
	}

	store, cdn, err := newBlobStore(ctx, cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "driver", cfg.BlobDriver, "error", err)
	}

	var provider generative.Provider
	if cfg.GenerativeURL != "" {
		provider = generative.NewHTTPProvider(cfg.GenerativeURL, cfg.GenerativeKey, &http.Client{Timeout: 2 * time.Minute})
	}

	tx := repo.NewTxManager(gormDB)
	userRepo := repo.NewUserRepository(gormDB)
	folderRepo := repo.NewFolderRepository(gormDB)
	assignRepo := repo.NewAssignmentRepository(gormDB)
	imageRepo := repo.NewImageRepository(gormDB)

	userService := service.NewUserService(userRepo, assignRepo, tx)
	folderService := service.NewFolderService(folderRepo, assignRepo, userRepo, imageRepo, store, tx, sugar)
	imageService := service.NewImageService(imageRepo, folderRepo, store, tx, sugar)
	mockupService := service.NewMockupService(provider, imageService, sugar)

	if cfg.AdminUsername != "" {
		created, err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			sugar.Fatalw("failed to ensure admin account", "username", cfg.AdminUsername, "error", err)
		}
		if created {
			sugar.Infow("admin account created", "username", cfg.AdminUsername)
		}
	}

	issuer := token.NewIssuer([]byte(cfg.AuthSecret), cfg.TokenTTL)
	gw := gateway.New(userService, folderService, imageService, mockupService, authz.NewPolicy(assignRepo), issuer, sugar)

	h := handlers.NewHandler(gw, cdn, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"Environment", cfg.Environment,
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDriver", cfg.DatabaseDriver,
		"BlobDriver", cfg.BlobDriver,
		"PublicURL", cfg.PublicURL,
		"Mockups", mockupService.Enabled(),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("Server shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sugar.Fatalw("Server failed", "error", err)
	}
	sugar.Infow("Server stopped")
}

// newBlobStore выбирает хранилище изображений. Для disk возвращается и обработчик /cdn.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, http.Handler, error) {
	switch cfg.BlobDriver {
	case "disk":
		disk, err := blob.NewDiskStore(cfg.BlobDir, cfg.PublicURL)
		if err != nil {
			return nil, nil, err
		}
		return disk, disk.Handler(), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, nil, errors.New("S3_BUCKET is required for the s3 driver")
		}
		client, err := blob.NewS3Client(ctx, blob.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return blob.NewS3Store(client, cfg.S3Bucket, cfg.PublicURL), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported blob driver %q", cfg.BlobDriver)
	}
}
