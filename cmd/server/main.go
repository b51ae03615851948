package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	approvalapp "github.com/Jay1425/ExpensoX/internal/application/approval"
	auditapp "github.com/Jay1425/ExpensoX/internal/application/audit"
	expenseapp "github.com/Jay1425/ExpensoX/internal/application/expense"
	identityapp "github.com/Jay1425/ExpensoX/internal/application/identity"
	metricsapp "github.com/Jay1425/ExpensoX/internal/application/metrics"
	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/auth"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/cache"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/config"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/currency"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/event"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/logger"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/mail"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/scheduler"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/storage"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/telemetry"
	"github.com/Jay1425/ExpensoX/internal/interfaces/http/handler"
	"github.com/Jay1425/ExpensoX/internal/interfaces/http/middleware"
	"github.com/Jay1425/ExpensoX/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/Jay1425/ExpensoX/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			ExpensoX API
//	@version		1.0
//	@description	Multi-tenant expense reporting and approval API

//	@contact.name	API Support
//	@contact.url	https://github.com/Jay1425/ExpensoX

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ExpensoX",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize OpenTelemetry tracing and metrics
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Ship logs to the collector alongside traces and metrics. The
	// bridged logger tees every entry to the console core and the OTLP
	// pipeline, so the rest of the wiring keeps using `log` as before.
	loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	if loggerProvider.IsEnabled() {
		bridgeLevel, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			bridgeLevel = zapcore.InfoLevel
		}
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          bridgeLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
		log.Info("Log export to collector enabled", zap.String("endpoint", cfg.Telemetry.CollectorEndpoint))
	}

	// Continuous profiling via Pyroscope
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServerAddress,
		ApplicationName:   cfg.Telemetry.ProfilingApplicationName,
		BasicAuthUser:     cfg.Telemetry.ProfilingBasicAuthUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingBasicAuthPassword,
		MutexAndBlock:     cfg.Telemetry.ProfilingMutexAndBlock,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	// Database query tracing (otelgorm + slow query spans)
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Database query and connection pool metrics
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.DBMetricsEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(context.Background())
		defer dbMetrics.Stop()
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	otpRepo := persistence.NewGormOTPRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	budgetRepo := persistence.NewGormBudgetRepository(db.DB)
	flowRepo := persistence.NewGormFlowRepository(db.DB)
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	decisionRepo := persistence.NewGormDecisionRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	// Redis backs the token blacklist and the exchange rate cache.
	// When Redis is unreachable the server falls back to in-process
	// implementations so a single instance still works.
	var blacklist auth.TokenBlacklist
	var rateCache cache.RateCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist and rate cache", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
		rateCache = cache.NewInMemoryRateCache()
	} else {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		rateCache = cache.NewRedisRateCacheWithClient(redisClient, log)
		log.Info("Redis connected successfully")
	}
	pingCancel()

	// External currency services
	currencies := currency.NewRestCountriesResolver(cfg.Currency.CountriesBaseURL, cfg.Currency.RequestTimeout, log)
	rates := currency.NewExchangeRateProvider(cfg.Currency.ExchangeRateBaseURL, cfg.Currency.RequestTimeout, rateCache, cfg.Currency.CacheTTL, log)

	// Mail delivery for OTP codes (logs instead of sending when disabled)
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Enabled:  cfg.Mail.Enabled,
	}, log)

	// Receipt storage: S3-compatible object storage, or an in-process
	// store when no bucket is configured (development)
	var receipts expenseapp.ReceiptStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ReceiptStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize receipt storage", zap.Error(err))
		}
		ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Storage.EnsureBucket(ensureCtx); err != nil {
			log.Warn("Failed to ensure receipt bucket", zap.Error(err))
		}
		ensureCancel()
		receipts = s3Storage
	} else {
		log.Warn("No storage bucket configured, receipts are kept in memory")
		receipts = storage.NewMemoryReceiptStorage()
	}

	// Initialize event bus; the audit recorder turns every domain
	// event into an audit trail entry
	eventBus := event.NewInMemoryEventBusWithConfig(log, cfg.Event.BufferSize, cfg.Event.Workers)
	auditRecorder := auditapp.NewRecorder(auditRepo, log)
	eventBus.Subscribe(auditRecorder)

	// Business metrics: submission/decision counters driven by domain
	// events, plus a periodic pending-expense gauge from the database
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meterProvider.Meter("expensox.business"),
			Logger:          log,
			PendingProvider: telemetry.NewGormPendingMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to initialize business metrics", zap.Error(err))
		}
		businessMetrics.StartPeriodicCollection(context.Background(), cfg.Telemetry.BusinessMetricsInterval)
		defer businessMetrics.Stop()
		eventBus.Subscribe(metricsapp.NewRecorder(businessMetrics, log))
	}

	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, companyRepo, otpRepo, jwtService, blacklist, mailer, currencies, eventBus, identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, otpRepo, mailer, eventBus, log)
	companyService := identityapp.NewCompanyService(companyRepo, eventBus, log)
	expenseService := expenseapp.NewService(expenseRepo, userRepo, companyRepo, flowRepo, rates, receipts, eventBus, log)
	budgetService := expenseapp.NewBudgetService(budgetRepo, expenseRepo, companyRepo, log)
	approvalService := approvalapp.NewService(expenseRepo, flowRepo, ruleRepo, decisionRepo, userRepo, approval.NewEngine(), eventBus, log)
	flowService := approvalapp.NewFlowService(flowRepo, ruleRepo, expenseRepo, userRepo, eventBus, log)
	ruleService := approvalapp.NewRuleService(ruleRepo, flowRepo, userRepo, eventBus, log)
	auditService := auditapp.NewService(auditRepo, log)

	// Maintenance scheduler: OTP purge and exchange rate refresh
	if cfg.Scheduler.Enabled {
		maintenance := scheduler.NewScheduler(scheduler.Config{
			Enabled:            cfg.Scheduler.Enabled,
			OTPPurgeSchedule:   cfg.Scheduler.OTPPurgeSchedule,
			RateRefreshEnabled: cfg.Scheduler.RateRefreshEnabled,
			RateRefreshSpec:    cfg.Scheduler.RateRefreshSpec,
			JobTimeout:         cfg.Scheduler.JobTimeout,
		}, otpRepo, companyRepo, rates, log)
		if err := maintenance.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := maintenance.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
		log.Info("Maintenance scheduler started",
			zap.String("otp_purge_schedule", cfg.Scheduler.OTPPurgeSchedule),
			zap.Bool("rate_refresh_enabled", cfg.Scheduler.RateRefreshEnabled),
		)
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	companyHandler := handler.NewCompanyHandler(companyService)
	expenseHandler := handler.NewExpenseHandler(expenseService, cfg.Storage.MaxUploadSize)
	budgetHandler := handler.NewBudgetHandler(budgetService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	flowHandler := handler.NewFlowHandler(flowService)
	ruleHandler := handler.NewRuleHandler(ruleService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics - OpenTelemetry instrumentation
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       true,
		}))
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes.
	// Only signup, login and the recovery endpoints are public;
	// logout, /auth/me and password change require a valid token.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/signup",
			"/api/v1/auth/login",
			"/api/v1/auth/verify-email",
			"/api/v1/auth/resend-otp",
			"/api/v1/auth/forgot-password",
			"/api/v1/auth/reset-password",
			"/api/v1/auth/refresh",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Profile labels need the company claim, so this sits after the
	// JWT middleware
	if profiler.IsEnabled() {
		r.Use(middleware.Profiling())
	}

	// Auth domain: signup, login, OTP verification, account recovery
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.RateLimit(authLimiter))
	}
	authRoutes.POST("/signup", authHandler.Signup)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/verify-email", authHandler.VerifyEmail)
	authRoutes.POST("/resend-otp", authHandler.ResendOTP)
	authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
	authRoutes.POST("/reset-password", authHandler.ResetPassword)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// User management: creation and lifecycle changes are admin-only,
	// listing is for managers and admins
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.POST("", middleware.RequireAdmin(), userHandler.Create)
	userRoutes.GET("", middleware.RequireManagerOrAdmin(), userHandler.List)
	userRoutes.GET("/:id", middleware.RequireManagerOrAdmin(), userHandler.GetByID)
	userRoutes.GET("/:id/reports", middleware.RequireManagerOrAdmin(), userHandler.ListReports)
	userRoutes.PUT("/:id", middleware.RequireAdmin(), userHandler.Update)
	userRoutes.PUT("/:id/role", middleware.RequireAdmin(), userHandler.ChangeRole)
	userRoutes.PUT("/:id/manager", middleware.RequireAdmin(), userHandler.AssignManager)
	userRoutes.PUT("/:id/manager-approver", middleware.RequireAdmin(), userHandler.SetManagerApprover)
	userRoutes.DELETE("/:id", middleware.RequireAdmin(), userHandler.Deactivate)
	userRoutes.POST("/:id/activate", middleware.RequireAdmin(), userHandler.Activate)
	userRoutes.POST("/:id/unlock", middleware.RequireAdmin(), userHandler.Unlock)

	// Company profile
	companyRoutes := router.NewDomainGroup("company", "/company")
	companyRoutes.GET("", companyHandler.Get)
	companyRoutes.PUT("", middleware.RequireAdmin(), companyHandler.Update)

	// Expense lifecycle: draft, submit, cancel, payout, receipts
	expenseRoutes := router.NewDomainGroup("expenses", "/expenses")
	expenseRoutes.POST("", expenseHandler.Create)
	expenseRoutes.GET("", expenseHandler.ListOwn)
	expenseRoutes.GET("/all", middleware.RequireManagerOrAdmin(), expenseHandler.ListCompany)
	expenseRoutes.GET("/summary", expenseHandler.MonthlySummary)
	expenseRoutes.GET("/:id", expenseHandler.GetByID)
	expenseRoutes.PUT("/:id", expenseHandler.Update)
	expenseRoutes.POST("/:id/submit", expenseHandler.Submit)
	expenseRoutes.POST("/:id/cancel", expenseHandler.Cancel)
	expenseRoutes.POST("/:id/pay", middleware.RequireAdmin(), expenseHandler.MarkPaid)
	expenseRoutes.POST("/:id/receipt", expenseHandler.UploadReceipt)
	expenseRoutes.GET("/:id/receipt", expenseHandler.GetReceiptURL)

	// Approval queue and decisions
	approvalRoutes := router.NewDomainGroup("approvals", "/approvals")
	approvalRoutes.GET("/pending", middleware.RequireManagerOrAdmin(), approvalHandler.Pending)
	approvalRoutes.POST("/:id/decide", middleware.RequireManagerOrAdmin(), approvalHandler.Decide)
	approvalRoutes.POST("/:id/override", middleware.RequireAdmin(), approvalHandler.Override)
	approvalRoutes.GET("/:id/history", middleware.RequireManagerOrAdmin(), approvalHandler.History)

	// Approval flow and rule configuration (admin-only)
	flowRoutes := router.NewDomainGroup("flows", "/flows")
	flowRoutes.Use(middleware.RequireAdmin())
	flowRoutes.POST("", flowHandler.Create)
	flowRoutes.GET("", flowHandler.List)
	flowRoutes.GET("/:id", flowHandler.GetByID)
	flowRoutes.PUT("/:id", flowHandler.Update)
	flowRoutes.DELETE("/:id", flowHandler.Delete)
	flowRoutes.POST("/:id/default", flowHandler.SetDefault)
	flowRoutes.POST("/:id/rules", ruleHandler.Create)
	flowRoutes.GET("/:id/rules", ruleHandler.List)

	ruleRoutes := router.NewDomainGroup("rules", "/rules")
	ruleRoutes.Use(middleware.RequireAdmin())
	ruleRoutes.PUT("/:id", ruleHandler.Update)
	ruleRoutes.DELETE("/:id", ruleHandler.Delete)

	// Budgets and the spend-vs-budget report
	budgetRoutes := router.NewDomainGroup("budgets", "/budgets")
	budgetRoutes.POST("", middleware.RequireAdmin(), budgetHandler.Create)
	budgetRoutes.GET("", middleware.RequireManagerOrAdmin(), budgetHandler.List)
	budgetRoutes.GET("/report", middleware.RequireManagerOrAdmin(), budgetHandler.Report)
	budgetRoutes.PUT("/:id", middleware.RequireAdmin(), budgetHandler.Update)
	budgetRoutes.DELETE("/:id", middleware.RequireAdmin(), budgetHandler.Delete)

	// Audit trail (admin-only)
	auditRoutes := router.NewDomainGroup("audit", "/audit")
	auditRoutes.Use(middleware.RequireAdmin())
	auditRoutes.GET("", auditHandler.List)
	auditRoutes.GET("/:id", auditHandler.Trail)

	// Register all domain groups
	r.Register(authRoutes).
		Register(userRoutes).
		Register(companyRoutes).
		Register(expenseRoutes).
		Register(approvalRoutes).
		Register(flowRoutes).
		Register(ruleRoutes).
		Register(budgetRoutes).
		Register(auditRoutes)

	// Register system routes with swagger-documented handlers
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
