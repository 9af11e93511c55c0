package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"classware/api/internal/config"
	"classware/api/internal/mail"
	"classware/api/internal/middleware"
	"classware/api/internal/models"
	"classware/api/internal/ratelimit"
	"classware/api/internal/repository"
	"classware/api/internal/service"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	accountService *service.AccountService
	resetService   *service.ResetService
	limiter        *ratelimit.Limiter
	db             *pgxpool.Pool
	cache          *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	verifier service.AssertionVerifier,
	mailer mail.Sender,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    service.NewAuthService(userRepo, verifier, cfg, log),
		accountService: service.NewAccountService(userRepo, log),
		resetService:   service.NewResetService(userRepo, otpRepo, mailer, cfg, log),
		limiter:        ratelimit.New(cache, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window),
		db:             db,
		cache:          cache,
	}
}

func (h HandlerSet) Mount(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/google-login", h.GoogleLogin)
		auth.POST("/register-admin", h.RegisterAdmin)
		auth.POST("/admin-login", h.AdminLogin)
		auth.POST("/forgot", h.Forgot)
		auth.POST("/logout", h.Logout)

		authenticated := v1.Group("/auth")
		authenticated.Use(middleware.Auth(h.cfg))
		authenticated.GET("/user/:id", h.GetUser)

		profile := v1.Group("/auth")
		profile.Use(middleware.Auth(h.cfg), middleware.RequireRoles(models.RoleStandard))
		profile.PUT("/profile", h.UpdateProfile)

		admin := v1.Group("/auth/admin")
		admin.Use(middleware.Auth(h.cfg), middleware.RequireRoles(models.RoleAdmin))
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users", h.AdminCreateUser)
		admin.PUT("/users/:id", h.AdminUpdateUser)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
	}
}
