package app

import (
	"context"
	"errors"
	"neet_tracker_backend/internal/config"
	"neet_tracker_backend/internal/controller"
	"neet_tracker_backend/internal/repository"
	"neet_tracker_backend/internal/service"
	"neet_tracker_backend/internal/util"
	"neet_tracker_backend/pkg/configwatcher"
	"neet_tracker_backend/pkg/database"
	"neet_tracker_backend/pkg/logger"
	"neet_tracker_backend/pkg/mailer"
	"neet_tracker_backend/pkg/monitoring"
	"neet_tracker_backend/pkg/security"
	"neet_tracker_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const configDir = "configs"

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client

	mu              sync.RWMutex
	limiter         *security.RateLimiter
	mailer          *mailer.SMTPMailer
	tracer          *sdktrace.TracerProvider
	stop            chan struct{}
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user  *repository.UserRepository
	test  *repository.TestRecordRepository
	stats *repository.StatsCache
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	test         *service.TestRecordService
	notification *service.NotificationService
	report       *service.ReportService
}

type controllers struct {
	auth   *controller.AuthController
	test   *controller.TestController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// currentConfig is the latest reloaded config.
func (a *App) currentConfig() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Config
}

func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	a.Config = cfg
	a.mu.Unlock()
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:  repository.NewUserRepository(db),
		test:  repository.NewTestRecordRepository(db),
		stats: repository.NewStatsCache(rdb, cfg.Redis.StatsTTL()),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.notification = service.NewNotificationService(a.mailer)
	s.auth = service.NewAuthService(repos.user, cfg, s.notification)
	s.user = service.NewUserService(repos.user)
	s.test = service.NewTestRecordService(repos.test, repos.stats)
	s.report = service.NewReportService(s.notification, service.NewStorageProvider(cfg))

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth, s.user),
		test:   controller.NewTestController(s.test, s.notification, s.report),
		health: controller.NewHealthController(a.DB, a.Redis, func() string { return a.currentConfig().Server.PingMessage }),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startConfigWatcher pushes SMTP and rate limit changes to the running app.
func (a *App) startConfigWatcher(ctx context.Context) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		a.mailer.Reconfigure(cfg.SMTP)
		a.limiter.Reconfigure(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
		logger.Log.Info("Runtime settings updated",
			zap.Bool("smtp_enabled", cfg.SMTP.Enabled),
			zap.Int("rate_limit", cfg.RateLimit.MaxRequests))
	})

	go func() {
		path := filepath.Join(configDir, "config.yaml")
		if err := configwatcher.WatchConfig(ctx, path, config.LoadConfig, a.applyConfig); err != nil {
			logger.Log.Warn("Config watcher not running", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != "release")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		limiter: security.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
		mailer:  mailer.New(cfg.SMTP),
		stop:    make(chan struct{}),
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	repos := app.initRepositories(db, rdb, cfg)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.limiter.StartSweeper(app.stop)

	return app
}

func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startConfigWatcher(ctx)

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	close(a.stop)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
