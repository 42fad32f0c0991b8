package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"learnhub/internal/config"
	"learnhub/internal/mail"
	"learnhub/internal/metrics"
	"learnhub/internal/middleware"
	"learnhub/internal/models"
	"learnhub/internal/queue"
	"learnhub/internal/repository"
	"learnhub/internal/security"
	"learnhub/internal/service"
	"learnhub/internal/storage"
)

type AuthAPI interface {
	middleware.Authenticator
	Login(ctx context.Context, email, password string) (service.LoginChallenge, error)
	VerifyOtp(ctx context.Context, userID int64, code string) (service.Tokens, error)
	ResendOtp(ctx context.Context, userID int64) error
	Refresh(ctx context.Context, refreshToken string) (service.Tokens, error)
	Logout(ctx context.Context, identity service.Identity) error
}

type UsersAPI interface {
	GetProfile(ctx context.Context, userID int64) (models.User, error)
	UpdateProfile(ctx context.Context, userID int64, in service.ProfileUpdate) (models.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
	UploadProfileImage(ctx context.Context, userID int64, data []byte) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AddUser(ctx context.Context, in service.NewUser) (models.User, error)
	EditUser(ctx context.Context, id int64, in service.UserUpdate) (models.User, error)
	RemoveUser(ctx context.Context, actorID, id int64) error
}

// HealthCheck probes one backing service for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	auth    AuthAPI
	users   UsersAPI
	limiter *middleware.RateLimiter
	checks  []HealthCheck
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	collector *metrics.Collector,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	verifier := security.DefaultCredentialVerifier()
	notifier := mail.NewQueueNotifier(queue.NewProducer(cache, cfg.Queue.Stream))

	otp := service.NewOtpService(otpRepo, notifier, cfg.OTP, collector, log)
	sessions := service.NewSessionService(tokenRepo, userRepo, cfg.Security, collector, log)
	auth := service.NewAuthService(userRepo, verifier, otp, sessions, collector, log)
	users := service.NewUserService(userRepo, store, sessions, verifier, log)

	return HandlerSet{
		log:     log,
		cfg:     cfg,
		auth:    auth,
		users:   users,
		limiter: middleware.NewRateLimiter(cfg.RateLimit, log),
		checks: []HealthCheck{
			{Name: "database", Check: db.Ping},
			{Name: "cache", Check: func(ctx context.Context) error { return cache.Ping(ctx).Err() }},
		},
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	public := router.Group("")
	if h.limiter != nil {
		public.Use(h.limiter.Middleware())
	}
	public.POST("/login", h.Login)
	public.POST("/verify-otp", h.VerifyOtp)
	public.POST("/resend-otp", h.ResendOtp)
	public.POST("/refresh", h.Refresh)

	protected := router.Group("")
	protected.Use(middleware.Auth(h.auth, h.log))
	protected.POST("/logout", h.Logout)

	profile := protected.Group("/profile")
	profile.GET("", h.GetProfile)
	profile.PUT("", h.UpdateProfile)
	profile.POST("/change-password", h.ChangePassword)
	profile.POST("/image", h.UploadProfileImage)

	admin := protected.Group("")
	admin.Use(middleware.RequireRoles(models.UserRoleAdmin))
	admin.GET("/users", h.ListUsers)
	admin.POST("/add-users", h.AddUser)
	admin.PUT("/edit-users/:id", h.EditUser)
	admin.DELETE("/delete-users/:id", h.RemoveUser)
}

// Close releases background resources owned by the handler set.
func (h HandlerSet) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}
