package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"workpay/internal/domain/analytics"
	"workpay/internal/domain/attendance"
	"workpay/internal/domain/audit"
	"workpay/internal/domain/auth"
	"workpay/internal/domain/leave"
	"workpay/internal/domain/payroll"
	"workpay/internal/domain/rules"
	"workpay/internal/domain/workforce"
	"workpay/internal/platform/config"
	"workpay/internal/platform/crypto"
	"workpay/internal/platform/db"
	"workpay/internal/platform/jobs"
	"workpay/internal/platform/metrics"
	"workpay/internal/platform/storage"
	"workpay/internal/transport/http/api"
	analyticshandler "workpay/internal/transport/http/handlers/analytics"
	attendancehandler "workpay/internal/transport/http/handlers/attendance"
	audithandler "workpay/internal/transport/http/handlers/audit"
	authhandler "workpay/internal/transport/http/handlers/auth"
	documentshandler "workpay/internal/transport/http/handlers/documents"
	leavehandler "workpay/internal/transport/http/handlers/leave"
	payrollhandler "workpay/internal/transport/http/handlers/payroll"
	ruleshandler "workpay/internal/transport/http/handlers/rules"
	workforcehandler "workpay/internal/transport/http/handlers/workforce"
	"workpay/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	cancel context.CancelFunc
}

// New connects to the database, prepares it when configured and wires every
// service behind the HTTP router. Background jobs run until Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg.SeedFile); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed failed: %w", err)
		}
	}

	cipher, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if !cipher.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set; payslips are stored unencrypted")
	}
	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	collector := metrics.New()
	jobsSvc := jobs.New(pool, cfg.JobQueueSize)
	jobsSvc.Start(bgCtx)

	perms := auth.StaticPermissions{}
	auditSvc := audit.New(pool)
	idem := middleware.NewIdempotencyStore(pool)

	resolver := rules.NewResolver(rules.NewStore(pool))
	directory := workforce.NewService(workforce.NewStore(pool))
	payrollStore := payroll.NewStore(pool)
	payrollSvc := payroll.NewService(payrollStore, resolver)
	payslips := payroll.NewPayslipGenerator(payrollStore, directory, payroll.PDFRenderer{}, blobs, cipher)
	leaveSvc := leave.NewService(leave.NewStore(pool), payrollSvc, directory)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), leaveSvc)
	analyticsSvc := analytics.NewService(analytics.NewStore(pool))
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, auth.DefaultTokenTTL)

	payrollSvc.OnLocked(func(_ context.Context, run payroll.Run) {
		jobsSvc.Enqueue(jobs.JobAnalyticsSnapshot, run.ID, func(ctx context.Context) (any, error) {
			return analyticsSvc.Compute(ctx, run)
		})
	})
	jobsSvc.Every(bgCtx, cfg.AttendanceNormalizeInterval, jobs.JobAttendanceNormalize,
		func(now time.Time) string { return now.UTC().Format(time.DateOnly) },
		func(ctx context.Context, now time.Time) (any, error) {
			return attendanceSvc.Normalize(ctx, now.UTC())
		})

	documentsHandler := documentshandler.NewHandler(payrollSvc, payslips, perms, auditSvc, idem, collector)
	payslips.OnSkip(documentsHandler.RecordSkip)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler := authhandler.NewHandler(authSvc)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.With(middleware.RequireUser).Get("/auth/me", authHandler.HandleMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute*4, time.Minute))

			ruleshandler.NewHandler(resolver, perms).RegisterRoutes(r)
			payrollhandler.NewHandler(payrollSvc, perms, auditSvc, idem, collector).RegisterRoutes(r)
			documentsHandler.RegisterRoutes(r)
			leavehandler.NewHandler(leaveSvc, perms, auditSvc, collector).RegisterRoutes(r)
			attendancehandler.NewHandler(attendanceSvc, perms, auditSvc).RegisterRoutes(r)
			analyticshandler.NewHandler(analyticsSvc, perms).RegisterRoutes(r)
			workforcehandler.NewHandler(directory, perms).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
		})
	})

	return &App{
		Config:  cfg,
		DB:      pool,
		Router:  router,
		Jobs:    jobsSvc,
		Metrics: collector,
		cancel:  cancel,
	}, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx ends, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("workpay server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
