// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"amayalert-service/internal/cache"
	"amayalert-service/internal/config"
	"amayalert-service/internal/db"
	alertHandler "amayalert-service/internal/handlers/alert"
	logHandler "amayalert-service/internal/handlers/auditlog"
	authHandler "amayalert-service/internal/handlers/auth"
	evacuationHandler "amayalert-service/internal/handlers/evacuation"
	messageHandler "amayalert-service/internal/handlers/message"
	rescueHandler "amayalert-service/internal/handlers/rescue"
	userHandler "amayalert-service/internal/handlers/user"
	vendorHandler "amayalert-service/internal/handlers/vendor"
	wsHandler "amayalert-service/internal/handlers/websocket"
	wordfilterHandler "amayalert-service/internal/handlers/wordfilter"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/pkg/session"
	"amayalert-service/internal/realtime"
	"amayalert-service/internal/repository/postgres"
	alertUsecase "amayalert-service/internal/service/alert"
	auditUsecase "amayalert-service/internal/service/auditlog"
	authUsecase "amayalert-service/internal/service/auth"
	"amayalert-service/internal/service/chat"
	"amayalert-service/internal/service/email"
	evacuationUsecase "amayalert-service/internal/service/evacuation"
	"amayalert-service/internal/service/push"
	rescueUsecase "amayalert-service/internal/service/rescue"
	"amayalert-service/internal/service/sms"
	"amayalert-service/internal/service/storage"
	userUsecase "amayalert-service/internal/service/user"
	wordfilterUsecase "amayalert-service/internal/service/wordfilter"
	"amayalert-service/internal/websocket"
	wsHandlers "amayalert-service/internal/websocket/handler"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	mu         sync.Mutex
	httpServer *http.Server
	pool       *pgxpool.Pool
	redis      *redis.Client
	cancel     context.CancelFunc
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine, logger: logger}
}

// Start wires every dependency and serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	s.mu.Lock()
	s.redis = redisClient
	s.mu.Unlock()
	logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- AWS -----
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ----- JWT Manager -----
	jwtManager, err := jwt.NewManager(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Vendors -----
	emailSender := s.buildEmailSender(awsCfg)
	templates := email.NewTemplates(s.cfg.PublicBaseURL)
	smsSender := s.buildSMSSender(awsCfg)
	pushSender := s.buildPushSender(ctx)
	objectStore, err := s.buildObjectStore(awsCfg)
	if err != nil {
		return err
	}
	var moderator storage.Moderator
	if s.cfg.ImageModeration {
		moderator = storage.NewRekognitionModerator(awsCfg)
	}
	listCache := cache.NewListCache(redisClient, s.cfg.CacheTTL, logger)

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	evacuationRepo := postgres.NewEvacuationRepository(pool)
	rescueRepo := postgres.NewRescueRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	wordFilterRepo := postgres.NewWordFilterRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)

	// ----- Services (Usecases) -----
	auditService := auditUsecase.NewService(auditRepo, logger)
	authService := authUsecase.NewAuthService(userRepo, jwtManager, sessionManager, rateLimiter, auditService, logger)
	wordFilterService := wordfilterUsecase.NewService(wordFilterRepo, auditService, logger)
	storageService := storage.NewService(objectStore, moderator, logger)
	chatService := chat.NewService(messageRepo, storageService, wordFilterService, pushSender, logger)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(authService, chatService, logger)
	if err := hub.RegisterHandler(wsHandlers.NewChatHandler(logger)); err != nil {
		return fmt.Errorf("failed to route chat events: %w", err)
	}
	go hub.Run(ctx)

	alertService := alertUsecase.NewService(alertUsecase.Deps{
		Store:      alertRepo,
		Recipients: userRepo,
		Email:      emailSender,
		Templates:  templates,
		SMS:        smsSender,
		Push:       pushSender,
		Auditor:    auditService,
		Publisher:  hub,
		Cache:      listCache,
		BaseURL:    s.cfg.PublicBaseURL,
		Logger:     logger,
	})
	evacuationService := evacuationUsecase.NewService(evacuationRepo, userRepo, emailSender, templates, auditService, listCache, logger)
	rescueService := rescueUsecase.NewService(rescueRepo, userRepo, emailSender, templates, smsSender, auditService, logger)
	userService := userUsecase.NewService(userRepo, emailSender, templates, auditService, logger)

	// ----- Message change feed -----
	feed := realtime.NewFeed(s.cfg.DatabaseURL, hub, messageRepo, logger)
	go func() {
		if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("message feed stopped", zap.Error(err))
		}
	}()

	// ----- Bootstrap admin -----
	bootCtx, bootCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := authService.EnsureBootstrapAdmin(bootCtx, s.cfg.AdminEmail, s.cfg.AdminPassword, s.cfg.AdminName); err != nil {
		logger.Error("failed to ensure bootstrap admin", zap.Error(err))
	}
	bootCancel()

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.Recovery(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:       authHandler.NewAuthHandler(authService, logger),
		AlertHandler:      alertHandler.NewAlertHandler(alertService, logger),
		EvacuationHandler: evacuationHandler.NewEvacuationHandler(evacuationService),
		RescueHandler:     rescueHandler.NewRescueHandler(rescueService),
		UserHandler:       userHandler.NewUserHandler(userService, logger),
		WordFilterHandler: wordfilterHandler.NewWordFilterHandler(wordFilterService),
		MessageHandler:    messageHandler.NewMessageHandler(chatService),
		VendorHandler:     vendorHandler.NewVendorHandler(smsSender, pushSender, storageService, logger),
		LogHandler:        logHandler.NewLogHandler(auditService),
		WSHandler:         wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, logger),
		Health:            newHealthHandler(postgres.NewDB(pool), redisClient),
		AuthMiddleware:    authMiddleware,
	}
	if err := SetupRouter(s.engine, logger, handlers); err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	// ----- Start HTTP -----
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server, the hub and the feed, then closes the pools.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *Server) buildEmailSender(awsCfg aws.Config) email.Sender {
	switch s.cfg.EmailProvider {
	case "ses":
		s.logger.Info("email provider: SES", zap.String("from", s.cfg.EmailFrom))
		return email.NewSESSender(awsCfg, s.cfg.EmailFrom)
	default:
		if s.cfg.SMTPHost == "" {
			s.logger.Warn("SMTP_HOST not set, outgoing email will fail")
		}
		return email.NewSMTPSender(
			s.cfg.SMTPHost,
			s.cfg.SMTPPort,
			s.cfg.SMTPUser,
			s.cfg.SMTPPass,
			s.cfg.EmailFrom,
			s.cfg.SMTPFromName,
			s.cfg.SMTPSecure,
		)
	}
}

func (s *Server) buildSMSSender(awsCfg aws.Config) sms.Sender {
	if s.cfg.SMSProvider != "sns" {
		s.logger.Info("sms disabled", zap.String("provider", s.cfg.SMSProvider))
		return sms.DisabledSender{}
	}
	return sms.NewSNSSender(awsCfg, s.cfg.SMSSenderID)
}

func (s *Server) buildPushSender(ctx context.Context) push.Sender {
	switch s.cfg.PushProvider {
	case "fcm":
		sender, err := push.NewFCMSender(ctx, s.cfg.FCMServiceAccount)
		if err != nil {
			s.logger.Error("FCM unavailable, push disabled", zap.Error(err))
			return push.DisabledSender{}
		}
		return sender
	case "onesignal":
		if s.cfg.OneSignalAppID == "" || s.cfg.OneSignalAPIKey == "" {
			s.logger.Warn("OneSignal credentials missing, push disabled")
			return push.DisabledSender{}
		}
		return push.NewOneSignalSender(s.cfg.OneSignalAppID, s.cfg.OneSignalAPIKey)
	default:
		s.logger.Info("push disabled", zap.String("provider", s.cfg.PushProvider))
		return push.DisabledSender{}
	}
}

func (s *Server) buildObjectStore(awsCfg aws.Config) (storage.ObjectStore, error) {
	switch s.cfg.StorageProvider {
	case "s3":
		if s.cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 storage provider")
		}
		return storage.NewS3Store(awsCfg, s.cfg.S3Bucket, s.cfg.S3PublicURL), nil
	case "supabase":
		if s.cfg.SupabaseURL == "" || s.cfg.SupabaseServiceRoleKey == "" {
			s.logger.Warn("Supabase storage credentials missing, uploads will fail")
		}
		return storage.NewSupabaseStore(s.cfg.SupabaseURL, s.cfg.SupabaseServiceRoleKey, s.cfg.StorageBucket), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", s.cfg.StorageProvider)
	}
}
