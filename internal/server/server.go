package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"tmmedia/internal/ai/component"
	"tmmedia/internal/config"
	"tmmedia/internal/handler"
	studioHandler "tmmedia/internal/handler/studio"
	"tmmedia/internal/pkg/ark"
	"tmmedia/internal/pkg/cache"
	"tmmedia/internal/pkg/generation"
	"tmmedia/internal/pkg/generation/providers"
	"tmmedia/internal/pkg/mongodb"
	"tmmedia/internal/pkg/sse"
	"tmmedia/internal/pkg/storage"
	"tmmedia/internal/pkg/storage/local"
	"tmmedia/internal/pkg/storagefactory"
	studioRepo "tmmedia/internal/repository/studio"
	"tmmedia/internal/server/middleware"
	studioService "tmmedia/internal/service/studio"
)

const shutdownTimeout = 30 * time.Second

// Server HTTP 服务器
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	mongo   *mongodb.Client
	redis   *cache.RedisCache
	hub     *sse.Hub
	store   storage.Storage
	service studioService.StudioService
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// 初始化 MongoDB（项目持久化，必需）
	if cfg.Mongo.URI == "" {
		return nil, errors.New("mongo.uri is required")
	}
	mongoClient, err := mongodb.New(&cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
	if err := mongodb.EnsureIndexes(ctx, mongoClient.Database()); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}

	// 初始化 Redis（项目缓存与批次锁，可选）
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化存储
	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.Info().Str("type", store.GetStorageType()).Msg("initialized storage")

	// 文本模型（语言识别、剧本分析、提示词改写）
	chatModel, err := component.NewChatModel(ctx, &cfg.AI, &cfg.Ark)
	if err != nil {
		return nil, fmt.Errorf("init chat model: %w", err)
	}
	text := providers.NewEinoProvider(chatModel)
	log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("initialized chat model")

	// Ark 图片生成与图片理解
	imageClient, err := ark.NewImageClient(&cfg.Ark)
	if err != nil {
		return nil, fmt.Errorf("init ark image client: %w", err)
	}
	visionClient, err := ark.NewClient(&cfg.Ark, cfg.Ark.VisionModel)
	if err != nil {
		return nil, fmt.Errorf("init ark vision client: %w", err)
	}
	images := providers.NewRetryingGenerator(
		providers.NewArkImageGenerator(imageClient, store),
		text,
		cfg.Generation.MaxAttempts,
	)

	hub := sse.NewHub()
	deps := studioService.Deps{
		Projects: studioRepo.NewProjectRepo(mongoClient.Database()),
		Events:   hub,
		Store:    store,
		Images:   images,
		Text:     text,
		Vision:   providers.NewArkProvider(visionClient),
		Runner: generation.NewRunner(generation.Options{
			PacingDelay: cfg.Generation.PacingDelay,
			CallTimeout: cfg.Generation.CallTimeout,
		}),
		Config: cfg.Generation,
	}
	if redisCache != nil {
		deps.Cache = redisCache
	}
	svc, err := studioService.NewStudioService(deps)
	if err != nil {
		return nil, fmt.Errorf("init studio service: %w", err)
	}

	srv := &Server{
		cfg:     cfg,
		engine:  gin.New(),
		mongo:   mongoClient,
		redis:   redisCache,
		hub:     hub,
		store:   store,
		service: svc,
	}

	// 设置路由
	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger("/health", "/ready"))
	s.engine.Use(middleware.CORS(s.cfg.Server.CORSOrigins))

	// 健康检查
	pingers := map[string]handler.Pinger{"mongo": s.mongo}
	if s.redis != nil {
		pingers["redis"] = s.redis
	}
	healthHandler := handler.NewHealthHandler(pingers)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储的静态文件
	if ls, ok := s.store.(*local.LocalStorage); ok && s.cfg.Storage.Local != nil {
		prefix := "/storage"
		if u, err := url.Parse(s.cfg.Storage.Local.BaseURL); err == nil && u.Path != "" && u.Path != "/" {
			prefix = u.Path
		}
		s.engine.Static(prefix, ls.BasePath())
	}

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		studioHandler.NewHandler(s.service, s.hub).RegisterRoutes(v1)
	}
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 事件分发
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// 取消运行中的批次，等待其写回后再关闭连接
		s.service.Close()
		s.close()
		return err
	case err := <-errCh:
		s.service.Close()
		s.close()
		return err
	}
}

// close 关闭外部连接
func (s *Server) close() {
	if s.mongo != nil {
		if err := s.mongo.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
