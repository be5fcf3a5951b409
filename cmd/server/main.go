package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"classifier_web/internal/app/di"
	"classifier_web/internal/app/router"
	"classifier_web/internal/feature/predict/adapters/modelinfo"
	"classifier_web/internal/feature/predict/adapters/preview"
	predicthandler "classifier_web/internal/feature/predict/transport/handler"
	"classifier_web/internal/feature/predict/usecase"
	"classifier_web/internal/platform/config"
	"classifier_web/internal/platform/http/handler"
	"classifier_web/internal/platform/logging"
	"classifier_web/internal/platform/metrics"
	infraredis "classifier_web/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis（任意）
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, cfg.Redis); err != nil {
			slog.Warn("Redis unavailable. Keeping view state in memory.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
		}
	}

	info, err := modelinfo.Load(cfg.ModelInfoFile)
	if err != nil {
		slog.Warn("failed to load model info, using defaults", "error", err)
	}

	// Store / Predictor
	store, sweep := di.NewStore(rdb)
	predictor := di.NewPredictor(cfg, metrics.New(prometheus.DefaultRegisterer))

	// Usecase
	viewUC := usecase.NewViewUsecase(store, store, preview.NewBuilder(preview.DefaultSize), predictor, cfg.ViewTTL)

	// Handler
	pageH := predicthandler.NewPageHandler(viewUC, info, cfg.MaxUploadBytes)
	apiH := predicthandler.NewAPIHandler(pageH)

	checks := map[string]handler.Pinger{}
	if rdb != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// ルータ生成
	r, err := router.NewRouter(pageH, apiH, handler.Ready(checks), cfg.CORSAllowedOrigins)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr, "prediction_api", cfg.PredictionAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sweep != nil {
		g.Go(func() error { return sweep(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	slog.Info("server stopped")
}
