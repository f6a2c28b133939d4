package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aryan0dhankhar/outreach/internal/domain"
	"github.com/aryan0dhankhar/outreach/internal/featureflags"
	"github.com/aryan0dhankhar/outreach/internal/handler"
	"github.com/aryan0dhankhar/outreach/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/outreach/internal/infrastructure/objectstore"
	"github.com/aryan0dhankhar/outreach/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/outreach/internal/observability/metrics"
	"github.com/aryan0dhankhar/outreach/internal/observability/tracing"
	"github.com/aryan0dhankhar/outreach/internal/places"
	"github.com/aryan0dhankhar/outreach/internal/repository"
	"github.com/aryan0dhankhar/outreach/internal/security"
	"github.com/aryan0dhankhar/outreach/internal/security/audit"
	"github.com/aryan0dhankhar/outreach/internal/security/auth"
	"github.com/aryan0dhankhar/outreach/internal/security/middleware"
	"github.com/aryan0dhankhar/outreach/internal/security/ratelimit"
	"github.com/aryan0dhankhar/outreach/internal/service"
	"github.com/aryan0dhankhar/outreach/internal/worker"
	"github.com/aryan0dhankhar/outreach/pkg/cache"
	"github.com/aryan0dhankhar/outreach/pkg/config"
	"github.com/aryan0dhankhar/outreach/pkg/database"
)

const maxBodyBytes = 1 << 20

// stores holds the repositories chosen at startup
type stores struct {
	contractors   domain.ContractorRepository
	members       domain.MemberRepository
	activity      domain.ActivityRepository
	notifications domain.NotificationRepository
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	log.Info("starting outreach server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "outreach", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	checks := map[string]handler.CheckFunc{}

	// 4. Storage: PostgreSQL when configured, in-memory otherwise
	var repos stores
	if cfg.DatabaseURL != "" {
		pool, err := database.NewConnectionPool(ctx, &database.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxOpenConns / 2,
			ConnMaxLifetime: 30 * time.Minute,
		}, log)
		if err != nil {
			log.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Migrate(ctx); err != nil {
			log.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		db := pool.GetDB()
		repos = stores{
			contractors:   repository.NewPostgresContractorRepository(db, log),
			members:       repository.NewPostgresMemberRepository(db, log),
			activity:      repository.NewPostgresActivityRepository(db, log),
			notifications: repository.NewPostgresNotificationRepository(db, log),
		}
		checks["database"] = pool.Health
	} else {
		if cfg.Environment == "production" {
			log.Error("DATABASE_URL must be set in production")
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory store")
		repos = stores{
			contractors:   repository.NewMemoryContractorRepository(),
			members:       repository.NewMemoryMemberRepository(),
			activity:      repository.NewMemoryActivityRepository(),
			notifications: repository.NewMemoryNotificationRepository(),
		}
	}

	// 5. Cache: Redis when configured, process-local otherwise
	var store cache.Store
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient.Raw(), cache.ServicePrefix)
		checks["redis"] = redisClient.Ping
	} else {
		memory := cache.NewMemoryStore()
		go sweepCache(ctx, memory, time.Minute)
		store = memory
	}

	// 6. Object storage for export archives
	var archive service.Archiver
	if cfg.ObjectStore.Endpoint != "" {
		a, err := objectstore.NewArchive(cfg.ObjectStore)
		if err != nil {
			log.Error("failed to initialize object store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := a.EnsureBucket(ctx); err != nil {
			log.Warn("export archive bucket unavailable", slog.String("error", err.Error()))
		}
		archive = a
	}

	// 7. Services
	auditLog := audit.NewLogger(log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "outreach")
	directory := repository.NewMemberDirectory(repos.members, store, cfg.MemberCacheTTL, log)
	policy := security.NewPolicy(directory, log)
	recorder := service.NewActivityRecorder(repos.activity, cfg.ActivityLogPolicy, log)
	notifications := service.NewNotificationService(repos.notifications, log)
	imports := service.NewImportService(repos.contractors, recorder, notifications, log)
	contractors := service.NewContractorService(repos.contractors, repos.members, policy, recorder, notifications, archive, auditLog, log)
	authService, err := service.NewAuthService(repos.members, tokenManager, cfg.AppPassword, cfg.AdminPasscode, cfg.SessionTTL, log)
	if err != nil {
		log.Error("failed to initialize auth", slog.String("error", err.Error()))
		os.Exit(1)
	}

	provider := places.NewGoogleProvider(places.GoogleConfig{
		APIKey:  cfg.Places.APIKey,
		BaseURL: cfg.Places.BaseURL,
		Timeout: cfg.Places.HTTPTimeout,
	}, log)
	searcher := places.NewSearcher(provider, store, places.SearcherConfig{
		PageDelay:   cfg.Places.PageDelay,
		MaxPagesCap: cfg.Places.MaxPagesCap,
		GeocodeTTL:  cfg.Places.GeocodeTTL,
		SkipDetails: featureflags.Enabled(featureflags.SkipPlaceDetails),
	}, log)

	// 8. Handlers and routes
	contractorsHandler := handler.NewContractorsHandler(contractors, imports, log)
	placesHandler := handler.NewPlacesHandler(searcher, log)
	activityHandler := handler.NewActivityHandler(recorder, log)
	membersHandler := handler.NewMembersHandler(repos.members, log)
	notificationsHandler := handler.NewNotificationsHandler(notifications, log)
	sessionHandler := handler.NewSessionHandler(authService, auditLog, cfg.Environment == "production", log)
	healthHandler := handler.NewHealthHandler(checks, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/contractors", contractorsHandler.List)
	mux.HandleFunc("POST /api/contractors", contractorsHandler.Import)
	mux.HandleFunc("PATCH /api/contractors", contractorsHandler.Update)
	mux.HandleFunc("GET /api/export", contractorsHandler.Export)
	mux.HandleFunc("POST /api/places/search", placesHandler.Search)
	mux.HandleFunc("GET /api/activity", activityHandler.List)
	mux.HandleFunc("GET /api/members", membersHandler.List)
	mux.HandleFunc("POST /api/login", sessionHandler.Login)
	mux.HandleFunc("POST /api/logout", sessionHandler.Logout)
	mux.HandleFunc("GET /api/notifications", notificationsHandler.List)
	mux.HandleFunc("POST /api/notifications", notificationsHandler.Act)
	mux.HandleFunc("GET /api/notifications/count", notificationsHandler.Count)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	// 9. Middleware chain, outermost first:
	// request ID -> recovery -> request log -> CORS -> metrics -> tracing ->
	// session -> rate limit -> audit -> content type -> body limit -> mux
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	strict := []middleware.StrictRoute{{Path: "/api/places/search", Max: 10, Window: time.Minute}}

	var root http.Handler = mux
	root = middleware.LimitBody(maxBodyBytes)(root)
	root = middleware.ValidateJSONContentType(log)(root)
	root = middleware.Audit(auditLog)(root)
	root = middleware.RateLimit(rateLimiter, strict, log)(root)
	root = middleware.Session(tokenManager, auditLog, log)(root)
	root = otelhttp.NewHandler(root, "outreach")
	root = metrics.HTTPMetricsMiddleware(mux)(root)
	root = middleware.CORS(cfg.CORSAllowedOrigins)(root)
	root = middleware.RequestLogger(log)(root)
	root = middleware.Recovery(log)(root)
	root = middleware.RequestID(root)

	// 10. Background workers
	if featureflags.EnabledOr(featureflags.RunRetention, true) {
		retention := time.Duration(cfg.NotificationRetentionDays) * 24 * time.Hour
		go worker.NewRetentionWorker(notifications, retention, time.Hour, log).Start(ctx)
	}

	// 11. Start HTTP server. Place searches sleep between pages, so the
	// write timeout leaves room for the page cap.
	writeTimeout := 15*time.Second + time.Duration(cfg.Places.MaxPagesCap)*(cfg.Places.PageDelay+cfg.Places.HTTPTimeout)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.Bool("postgres", cfg.DatabaseURL != ""),
		slog.Bool("redis", cfg.RedisURL != ""),
		slog.Bool("export_archive", archive != nil),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func sweepCache(ctx context.Context, store *cache.MemoryStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep()
		}
	}
}
