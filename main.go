package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"lawconnect/internal/api"
	"lawconnect/internal/api/handlers"
	"lawconnect/internal/auth"
	"lawconnect/internal/models"
	"lawconnect/internal/repository"
	"lawconnect/internal/service"
	"lawconnect/internal/storage"
	"lawconnect/pkg/config"
	"lawconnect/pkg/logger"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx := context.Background()

	// 初始化資料庫連接
	db, err := storage.NewDatabase(cfg.DB)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(&models.User{}, &models.ChatRoom{}, &models.ChatMessage{}); err != nil {
		log.Error("failed to auto migrate database", "error", err)
		os.Exit(1)
	}

	// 初始化 repositories，訊息後端依 storage.messages 決定
	repos := repository.NewRepositories(db)

	var mongoDB *storage.MongoDB
	switch cfg.Storage.Messages {
	case "mongo":
		mongoDB, err = storage.NewMongoDB(ctx, cfg.Mongo)
		if err != nil {
			log.Error("failed to initialize mongo", "error", err)
			os.Exit(1)
		}
		repos.Chat = repository.NewMongoChatRepository(mongoDB)
	case "memory":
		repos.Chat = repository.NewMemoryChatRepository()
	}
	log.Info("message store selected", "backend", cfg.Storage.Messages)

	// 身分驗證：JWT → 本地個人資料 →（可選）Redis 快取
	jwtProvider := auth.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	var provider auth.Provider = auth.NewProfileProvider(jwtProvider, repos.User, log.With("component", "auth"))
	var invalidator handlers.IdentityInvalidator

	redisClient, closeRedis := setupRedis(ctx, cfg.Redis, log)
	if redisClient != nil {
		cached := auth.NewCachedProvider(provider, redisClient, cfg.Redis.TTL, jwtProvider.ExpiresAt, log.With("component", "auth-cache"))
		provider = cached
		invalidator = cached
	}

	// 初始化 services
	services := service.NewServices(repos, service.WebSocketConfig{
		SendBuffer:     cfg.Websocket.SendBuffer,
		MaxMessageSize: cfg.Websocket.MaxMessageSize,
		PongWait:       cfg.Websocket.PongWait,
		WriteWait:      cfg.Websocket.WriteWait,
	}, log)

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, provider, invalidator, cfg.Server, log)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to run server", "error", err)
			os.Exit(1)
		}
	}()

	// 依序關閉：先停止接受請求，再斷開 websocket，最後關閉儲存層
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"lawconnect": func(ctx context.Context) error {
				log.Info("graceful shutdown initiated")

				var errs []error
				if err := srv.Shutdown(ctx); err != nil {
					errs = append(errs, err)
				}
				if err := services.WebSocket.Close(ctx); err != nil {
					errs = append(errs, err)
				}
				if mongoDB != nil {
					if err := mongoDB.Close(ctx); err != nil {
						errs = append(errs, err)
					}
				}
				if err := closeRedis(); err != nil {
					errs = append(errs, err)
				}
				if err := db.Close(); err != nil {
					errs = append(errs, err)
				}
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	log.Info("application exited", "code", exitCode)
	os.Exit(exitCode)
}

// setupRedis 未啟用或連不上時回傳 nil，服務退回不使用快取
func setupRedis(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*redis.Client, func() error) {
	noop := func() error { return nil }
	if !cfg.Enabled {
		return nil, noop
	}

	client, err := storage.NewRedis(ctx, cfg)
	if err != nil {
		log.Warn("identity cache disabled", "error", err)
		return nil, noop
	}
	log.Info("identity cache enabled", "addr", cfg.Addr, "ttl", cfg.TTL)
	return client, client.Close
}
