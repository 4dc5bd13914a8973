package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/thereayou/wallet-profile/internal/config"
	"github.com/thereayou/wallet-profile/internal/database"
	"github.com/thereayou/wallet-profile/internal/export"
	"github.com/thereayou/wallet-profile/internal/handlers"
	"github.com/thereayou/wallet-profile/internal/middleware"
	"github.com/thereayou/wallet-profile/internal/session"
	"github.com/thereayou/wallet-profile/internal/storage"
	"github.com/thereayou/wallet-profile/internal/verification"
	"github.com/thereayou/wallet-profile/internal/websocket"
	"github.com/thereayou/wallet-profile/pkg/auth"
	"go.uber.org/zap"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager

	cfg *config.Config
	log *zap.Logger
}

func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	files, err := storage.NewFromConfig(cfg.Storage)
	if err != nil {
		return nil, err
	}
	ages, err := verification.NewFromConfig(cfg.Verification)
	if err != nil {
		return nil, err
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	sessions := session.NewStore(rdb, cfg.TokenTTL)
	hub := websocket.NewHub(log)

	opts := handlers.UserHandlerOptions{
		Users:          dbConn,
		Sessions:       sessions,
		Notifier:       hub,
		Exporter:       export.NewExporter(cfg.ExportDir, cfg.ExportCleanupDelay, log),
		MaxUploadBytes: cfg.MaxUploadBytes,
		Log:            log,
	}
	// интерфейс с nil-указателем внутри не равен nil
	if files != nil {
		opts.Files = files
	} else {
		log.Warn("file storage is not configured, profile uploads are disabled")
	}
	if ages != nil {
		opts.Ages = ages
	} else {
		log.Warn("age verification is not configured")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := newRouter(routerDeps{
		Log:         log,
		Registry:    registry,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        middleware.NewAuthenticator(jwtMgr, sessions, dbConn),
		AuthH:       handlers.NewAuthHandler(dbConn, sessions, jwtMgr, log),
		UserH:       handlers.NewUserHandler(opts),
		WSH:         handlers.NewWebSocketHandler(hub, cfg.CORSOrigins, log),
		HealthH: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": dbConn,
			"redis": handlers.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}),
	})

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		Hub:        hub,
		JWTManager: jwtMgr,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Run блокируется до отмены ctx, затем аккуратно гасит сервер
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()

	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("port", s.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.Hub.Stop()
	err := srv.Shutdown(shutdownCtx)

	if cerr := s.Redis.Close(); cerr != nil {
		s.log.Warn("redis close failed", zap.Error(cerr))
	}
	if cerr := s.DB.Close(); cerr != nil {
		s.log.Warn("postgres close failed", zap.Error(cerr))
	}
	return err
}
