package initializers

import (
	"context"
	"errors"
	"log"
	"time"

	"hackportal/internal/handlers/mdlwr"
	"hackportal/pkg/auditlog"
	"hackportal/pkg/handlers"
	"hackportal/pkg/identity"
	"hackportal/pkg/invite"
	"hackportal/pkg/jury"
	"hackportal/pkg/notify"
	"hackportal/pkg/problem"
	"hackportal/pkg/roster"
	"hackportal/pkg/team"
	"hackportal/pkg/user"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func startGetEnv() {
	if getenv("ENVIRONMENT", "") == "PROD" {
		return
	}

	if err := godotenv.Load("local.env"); err != nil {
		log.Printf("local.env not loaded, using process environment: %v", err)
	}
}

func startLogger(cfg Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := config.Build()
	if err != nil {
		log.Fatalf("Error initializing zap logger: %v", err)
	}

	return zapLogger
}

func startPostgres(cfg Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.PgDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Error initializing postgres: %v", err)
	}

	return db
}

func gormAutoMigrate(cfg Config, db *gorm.DB) {
	if cfg.Environment == "PROD" {
		return
	}

	if errAuto := db.AutoMigrate(
		&user.User{},
		&team.Team{},
		&invite.TeamInvite{},
		&identity.Account{},
		&jury.Panel{},
		&problem.Statement{},
		&auditlog.Entry{},
	); errAuto != nil {
		log.Fatalf("AutoMigrate failed: %v", errAuto)
	}
}

// startRedis - без REDIS_ADDR кеш ссылок-приглашений просто выключен
func startRedis(cfg Config, logger *zap.SugaredLogger) (*redis.Client, invite.LinkCache) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, invite link cache disabled")
		return nil, invite.NoopCache{}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping failed: %v", err)
	}

	return rdb, invite.NewRedisCache(rdb, cfg.InviteTTL)
}

// bootstrapAdmin - без ADMIN_PASSWORD первый админ не заводится, существующие профили не трогаются
func bootstrapAdmin(cfg Config, logger *zap.SugaredLogger, svc *roster.Service) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info("ADMIN_EMAIL / ADMIN_PASSWORD not set, admin bootstrap skipped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}
}

// startMailer - без EMAIL_USER / EMAIL_PASS сервис работает, но письма возвращают ErrNotConfigured
func startMailer(cfg Config, logger *zap.SugaredLogger) notify.Dispatcher {
	dispatcher, err := notify.NewSMTPDispatcher(logger, notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
	})
	if err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			logger.Warn("EMAIL_USER / EMAIL_PASS not set, notifications disabled")
			return notify.Unconfigured{}
		}
		log.Fatalf("Error initializing mailer: %v", err)
	}

	return dispatcher
}

type routeHandlers struct {
	auth    *jwt.GinJWTMiddleware
	account *handlers.AccountHandler
	team    *handlers.TeamHandler
	user    *handlers.UserHandler
	jury    *handlers.JuryHandler
	problem *handlers.ProblemHandler
}

func initPublicRoutes(router *gin.Engine, h routeHandlers) {
	authGroup := router.Group("/auth")
	authGroup.POST("/login", h.auth.LoginHandler)
	authGroup.GET("/refresh", h.auth.RefreshHandler)
	authGroup.POST("/register", h.account.Register)

	router.POST("/spoc/request", h.team.RequestSpocAccess)
	router.GET("/invites/:id", h.team.ResolveInvite)
}

func initMemberRoutes(authed *gin.RouterGroup, h routeHandlers) {
	authed.GET("/me", h.user.Me)
	authed.POST("/me/password", h.user.ChangePassword)

	teamsGroup := authed.Group("/teams")
	teamsGroup.POST("", h.team.CreateTeam)
	teamsGroup.GET("", h.team.ListTeams)
	teamsGroup.POST("/leave", h.team.LeaveTeam)
	teamsGroup.GET("/:id", h.team.GetTeam)
	teamsGroup.POST("/:id/join", h.team.JoinTeam)
	teamsGroup.POST("/:id/invite", h.team.InviteMember)
	teamsGroup.POST("/:id/invite-link", h.team.InviteLink)
	teamsGroup.PUT("/:id/mentor", h.team.UpdateMentor)

	authed.GET("/problem-statements", h.problem.List)
}

func initSpocRoutes(authed *gin.RouterGroup, h routeHandlers) {
	spocGroup := authed.Group("/spoc/teams", mdlwr.RequireRoles(user.RoleSpoc, user.RoleAdmin))
	spocGroup.POST("/:id/remove-member", h.team.RemoveMember)
	spocGroup.PUT("/:id/lock", h.team.SetLocked)
	spocGroup.DELETE("/:id", h.team.DeleteTeam)
}

func initAdminRoutes(authed *gin.RouterGroup, h routeHandlers) {
	adminGroup := authed.Group("/admin", mdlwr.RequireRoles(user.RoleAdmin))

	adminGroup.POST("/users/bulk-delete", h.team.BulkDeleteUsers)
	adminGroup.PUT("/users/:uid/disabled", h.user.SetDisabled)
	adminGroup.GET("/accounts", h.user.ListAccounts)
	adminGroup.POST("/accounts", h.account.ProvisionStaff)
	adminGroup.PUT("/teams/:id/status", h.team.SetStatus)
	adminGroup.PUT("/teams/:id/jury-panel", h.jury.AssignTeam)

	adminGroup.POST("/jury-panels", h.jury.CreatePanel)
	adminGroup.GET("/jury-panels", h.jury.List)
	adminGroup.POST("/jury-panels/:id/finalize", h.jury.Finalize)
	adminGroup.DELETE("/jury-panels/:id", h.jury.Delete)

	adminGroup.POST("/problem-statements", h.problem.BulkInsert)
}
