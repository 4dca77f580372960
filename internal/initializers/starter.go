package initializers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hackportal/internal/handlers/mdlwr"
	"hackportal/pkg/handlers"
	"hackportal/pkg/identity"
	"hackportal/pkg/invite"
	"hackportal/pkg/jury"
	"hackportal/pkg/notify"
	"hackportal/pkg/problem"
	"hackportal/pkg/roster"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RunPortal() {
	startGetEnv()
	cfg := LoadConfig()

	zapLogger := startLogger(cfg)

	defer func(zapLogger *zap.Logger) {
		// stderr/stdout на linux не умеют fsync, это не ошибка
		_ = zapLogger.Sync()
	}(zapLogger)

	logger := zapLogger.Sugar()
	db := startPostgres(cfg)

	gormAutoMigrate(cfg, db)

	rdb, linkCache := startRedis(cfg, logger)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warnw("redis close failed", "err", err)
			}
		}()
	}

	mailer := startMailer(cfg, logger)
	background := notify.NewBackground(logger, mailer, cfg.NotifyTimeout)

	userRepo := user.NewUsersRepoPg(logger, db)
	teamRepo := team.NewTeamsRepoPg(logger, db)
	inviteRepo := invite.NewInvitesRepoPg(logger, db)
	panelRepo := jury.NewPanelsRepoPg(logger, db)
	statementRepo := problem.NewStatementsRepoPg(logger, db)
	gateway := identity.NewAccountsRepoPg(logger, db)

	rosterSvc := roster.NewService(logger, roster.Deps{
		Teams:      teamRepo,
		Users:      userRepo,
		Invites:    inviteRepo,
		LinkCache:  linkCache,
		Gateway:    gateway,
		Mailer:     mailer,
		Background: background,
		BaseURL:    cfg.BaseURL,
		AdminEmail: cfg.AdminEmail,
	})
	bootstrapAdmin(cfg, logger, rosterSvc)
	jurySvc := jury.NewService(logger, panelRepo, userRepo, teamRepo, gateway, mailer, cfg.BaseURL)

	authMw, err := mdlwr.NewAuthMiddleware(logger, mdlwr.AuthConfig{Secret: cfg.JWTSecret}, gateway, userRepo)
	if err != nil {
		log.Fatalf("Error initializing auth middleware: %v", err)
	}

	h := routeHandlers{
		auth:    authMw,
		account: handlers.NewAccountHandler(logger, rosterSvc),
		team:    handlers.NewTeamHandler(logger, rosterSvc),
		user:    handlers.NewUserHandler(logger, userRepo, gateway),
		jury:    handlers.NewJuryHandler(logger, jurySvc),
		problem: handlers.NewProblemHandler(logger, statementRepo),
	}

	router := gin.New()
	initMetricsMdlwr(router)

	router.Use(ginzap.GinzapWithConfig(zapLogger, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Skipper: func(c *gin.Context) bool {
			return c.Request.URL.Path == "/health" && c.Request.Method == "GET"
		},
	}))

	router.Use(ginzap.RecoveryWithZap(zapLogger, true))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok"})
	})

	initPublicRoutes(router, h)

	authed := router.Group("", authMw.MiddlewareFunc())
	initMemberRoutes(authed, h)
	initSpocRoutes(authed, h)
	initAdminRoutes(authed, h)

	metricsSrv := initMetricsServer(cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting main server on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	go func() {
		logger.Info("Starting metrics server on port " + cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down the server")

	wg := &sync.WaitGroup{}
	for _, s := range []*http.Server{srv, metricsSrv} {
		wg.Add(1)
		go func(s *http.Server) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.Shutdown(ctx); err != nil {
				logger.Errorw("the server was forced to shutdown", "addr", s.Addr, "err", err)
			}
		}(s)
	}

	wg.Wait()

	// письма, ушедшие в фон до сигнала, досылаются
	background.Wait()

	logger.Info("Server exited")
}
