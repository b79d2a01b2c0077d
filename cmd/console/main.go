package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/enfoque_qr/internal/backend"
	"github.com/Skotchmaster/enfoque_qr/internal/config"
	"github.com/Skotchmaster/enfoque_qr/internal/events"
	"github.com/Skotchmaster/enfoque_qr/internal/gate"
	"github.com/Skotchmaster/enfoque_qr/internal/httpserver"
	"github.com/Skotchmaster/enfoque_qr/internal/maintenance"
	"github.com/Skotchmaster/enfoque_qr/internal/qrview"
	"github.com/Skotchmaster/enfoque_qr/internal/search"
	"github.com/Skotchmaster/enfoque_qr/internal/session"
	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
	"github.com/Skotchmaster/enfoque_qr/pkg/metrics"
	"github.com/Skotchmaster/enfoque_qr/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/enfoque_qr/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.APIURL, "API_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	metrics.Init()

	api := backend.NewClient(cfg.APIURL, cfg.BackendTimeout)

	var (
		sessions session.Backend
		rdb      *redis.Client
	)
	switch cfg.SessionStore {
	case "redis":
		config.MustNonEmpty(cfg.RedisAddr, "REDIS_ADDR")
		rdb = session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis ping: %v", err)
		}
		sessions = session.RedisBackend{Client: rdb, TTL: cfg.SessionTTL, Secure: cfg.CookieSecure}
	default:
		sessions = session.CookieBackend{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure}
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("events_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	finder := &search.Service{}
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			idx := search.NewESIndex(es, cfg.ESIndex)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := idx.EnsureIndex(ctx)
			cancel()
			if err != nil {
				logger.Warn("search_disabled", "index", cfg.ESIndex, "error", err)
			} else {
				finder.Index = idx
			}
		}
	}

	renderer, err := httpserver.NewRenderer(api.PublicURL)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger, "/health/live", "/health/ready", "/metrics"))
	e.Use(metrics.Middleware())
	e.Use(echomw.Secure())

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure

	httpserver.Register(e, &httpserver.Deps{
		Console: &httpserver.ConsoleHTTP{API: api, Events: publisher, Search: finder},
		QR: &httpserver.QRHTTP{
			API:       api,
			Resolver:  qrview.NewResolver(api),
			Submitter: maintenance.NewSubmitter(api),
			Gate:      gate.Gate{Secure: cfg.CookieSecure},
			Events:    publisher,
		},
		Sessions:   sessions,
		CSRF:       csrfCfg,
		Renderer:   renderer,
		LoginRate:  cfg.GateLoginRate,
		LoginBurst: cfg.GateLoginBurst,
		Ready: func(ctx context.Context) error {
			if rdb == nil {
				return nil
			}
			return rdb.Ping(ctx).Err()
		},
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 15*time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("console listening", "addr", srv.Addr, "api_url", cfg.APIURL, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if err := publisher.Close(); err != nil {
		logger.Warn("events_close_failed", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("console stopped")
}
