package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/api/routes"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/gateway"
	"github.com/yoockh/yoointerview/internal/guard"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/workers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	var googleOpts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}

	provider, err := newProvider(ctx, cfg, googleOpts)
	if err != nil {
		log.Fatalf("LLM provider init error: %v", err)
	}
	gw := gateway.New(provider, gateway.Options{
		Timeout:     cfg.LLMTimeout,
		MaxRetries:  cfg.LLMMaxRetries,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	}, log)
	cleanups = append(cleanups, func() { _ = gw.Close() })
	log.WithField("provider", cfg.LLMProvider).Info("LLM gateway ready")

	store := services.NewMemoryStore(services.StoreOptions{
		TTL:           cfg.SessionTTL,
		SweepInterval: cfg.SessionSweepInterval,
		Logger:        log,
	})
	cleanups = append(cleanups, store.Close)

	var opts []services.InterviewOption
	var sinks []workers.Sink
	var history services.HistoryService

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = config.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Redis init error: %v", err)
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		opts = append(opts, services.WithReportCache(cache.NewReportCache(cache.NewRedisCache(rdb), cfg.ReportCacheTTL)))
		log.Info("Redis connected")
	}

	if cfg.PostgresURI != "" {
		db, err := config.NewPostgres(cfg.PostgresURI)
		if err != nil {
			log.Fatalf("PostgreSQL init error: %v", err)
		}
		records := pgrepo.NewRecordRepo(db)
		if err := records.Migrate(ctx); err != nil {
			log.Fatalf("PostgreSQL migrate error: %v", err)
		}
		sinks = append(sinks, workers.RecordSink{Records: records})
		history = services.NewHistoryService(records)
		log.Info("PostgreSQL connected")
	}

	if cfg.MongoURI != "" {
		mc, err := config.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("MongoDB init error: %v", err)
		}
		cleanups = append(cleanups, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mc.Disconnect(dctx)
		})
		mdb := mc.Database(cfg.MongoDB)
		if err := config.EnsureMongoIndexes(ctx, mdb); err != nil {
			log.Fatalf("MongoDB index error: %v", err)
		}
		sinks = append(sinks, workers.TranscriptSink{Transcripts: mongorepo.NewTranscriptRepo(mdb)})
		log.Info("MongoDB connected")
	}

	if cfg.GCSBucket != "" {
		up, err := storage.NewGCSUploader(ctx, cfg.GCSBucket, googleOpts...)
		if err != nil {
			log.Fatalf("GCS init error: %v", err)
		}
		cleanups = append(cleanups, func() { _ = up.Close() })
		sinks = append(sinks, workers.ExportSink{Uploader: up})
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	switch {
	case len(sinks) == 0:
	case rdb != nil:
		pool := &workers.ArchiveWorkerPool{Redis: rdb, Sinks: sinks, NumWorkers: cfg.ArchiveWorkers, Logger: log}
		if err := pool.Start(workerCtx); err != nil {
			log.Fatalf("archive workers error: %v", err)
		}
		cleanups = append(cleanups, func() { cancelWorkers(); pool.Wait() })
		opts = append(opts, services.WithArchiver(&workers.StreamArchiver{Redis: rdb, MaxLen: 10_000}))
	default:
		direct := &workers.DirectArchiver{Sinks: sinks, Logger: log}
		cleanups = append(cleanups, direct.Wait)
		opts = append(opts, services.WithArchiver(direct))
	}
	cleanups = append(cleanups, cancelWorkers)

	interviews := services.NewInterviewService(store, gw, guard.New(log), log, opts...)

	var voice services.VoiceService
	if cfg.STTEnabled {
		speech, err := stt.NewGoogleSpeech(ctx, googleOpts...)
		if err != nil {
			log.Fatalf("speech init error: %v", err)
		}
		cleanups = append(cleanups, func() { _ = speech.Close() })
		voice = services.NewVoiceService(interviews, speech, cfg.STTLanguageFallback, log)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log, routes.HealthPath))

	throttle := middleware.NewThrottle(cfg.ThrottleLimit, cfg.ThrottleTTL)
	cleanups = append(cleanups, throttle.Close)

	deps := routes.Deps{
		Interview:  handlers.NewInterviewHandler(interviews, voice),
		WS:         handlers.NewWSHandler(interviews, cfg.CORSOrigin, log),
		Health:     handlers.NewHealthHandler(store.Len, gw.Pending),
		Throttle:   throttle.Middleware(),
		CORSOrigin: cfg.CORSOrigin,
	}
	if history != nil {
		deps.History = handlers.NewHistoryHandler(history)
	}
	if cfg.AuthEnabled() {
		deps.Auth = middleware.JWTAuth(middleware.JWTConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		})
	}
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}

func newProvider(ctx context.Context, cfg *config.Config, googleOpts []option.ClientOption) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderVertex:
		return llm.NewVertexGemini(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.VertexModel, googleOpts...)
	case config.ProviderMock:
		return llm.NewMock(), nil
	default:
		return llm.NewOpenRouter(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.LLMTimeout), nil
	}
}
