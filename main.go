package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftkit/app"
	"giftkit/config"
	"giftkit/cron"
	"giftkit/database/repository"
	"giftkit/handlers"
	"giftkit/middleware"
	"giftkit/models"
	"giftkit/routes"
	"giftkit/services/auth"
	"giftkit/services/backend"
	"giftkit/services/lead"
	"giftkit/services/storage"
	"giftkit/services/tasks"
	"giftkit/services/wizard"
	"giftkit/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("main: failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	defer a.Close()

	// repositories.
	userRepo, err := repository.NewMongoUserRepo(ctx, a.DB)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize user repository: %v", err)
	}
	leadRepo, err := repository.NewMongoLeadRepo(ctx, a.DB)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize lead repository: %v", err)
	}

	// services.
	sender := utils.LogSender{Logger: logger}
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	authService := auth.NewAuthService(
		userRepo,
		utils.NewRedisOTPStore(a.OTPRedis, sender, logger),
		utils.NewRedisAuthSessionStore(a.OTPRedis),
		tokens,
		logger,
	)
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}

	leadService := lead.NewLeadService(leadRepo, userRepo, tasks.AsynqNotifier{Client: a.Queue}, logger)

	var logos wizard.LogoStorage
	if cfg.CloudinaryURL != "" {
		cloudinaryStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize cloudinary storage: %v", err)
		}
		logos = cloudinaryStorage
	} else {
		logger.Info("CLOUDINARY_URL not set, logos are not mirrored")
	}

	tiers := make([]models.BudgetTier, 0, len(cfg.BudgetTiers))
	for _, t := range cfg.BudgetTiers {
		tiers = append(tiers, models.BudgetTier(t))
	}
	wizardService := wizard.NewService(
		backend.NewHTTPClient(cfg.BackendBaseURL, cfg.BackendTimeout, logger),
		wizard.NewRedisStore(a.SessionRedis, cfg.WizardSessionTTL),
		leadService,
		logos,
		wizard.Options{Tiers: tiers, MinQuantity: cfg.MinKitQuantity, MaxLogoBytes: cfg.MaxLogoBytes},
		logger,
	)

	// background work.
	worker := cron.NewLeadWorker(a.QueueOpt, userRepo, sender, logger)
	if err := worker.Start(ctx); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	defer worker.Shutdown()

	monitor := utils.NewHealthMonitor(a.Mongo, a.SessionRedis, a.OTPRedis)
	monitor.Start(ctx, 30*time.Second)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxLogoBytes + 1<<20
	router.Use(utils.ErrorHandler(logger))
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		Wizard: handlers.NewWizardHandler(wizardService, logger),
		Auth:   handlers.NewAuthHandler(authService, logger),
		Leads:  handlers.NewLeadHandler(leadService, logger),
		Health: monitor,
	}, tokens, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
