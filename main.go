package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/razzie/rbcremote/internal/config"
	"github.com/razzie/rbcremote/internal/logging"
	"github.com/razzie/rbcremote/pkg/agent"
	"github.com/razzie/rbcremote/pkg/rbcserver"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "config file (defaults to $"+config.PathEnv+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer logger.Sync()

	factory, err := agent.NewFactory(cfg.AgentConfig(), logger)
	if err != nil {
		logger.Fatal("invalid agent", zap.Error(err))
	}

	opts := rbcserver.Options{
		Factory:   factory,
		Workers:   cfg.Workers,
		Logger:    logger,
		RecordTTL: cfg.RecordTTL,
	}
	if len(cfg.RedisURL) > 0 {
		db, err := rbcserver.NewDB(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer db.Close()
		opts.Records = db
	} else {
		logger.Info("REDIS_URL not set, game records are disabled")
	}

	mgr := rbcserver.NewSessionMgr(opts)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: rbcserver.NewServer(mgr),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("agent server listening", zap.String("addr", cfg.ListenAddr), zap.String("agent", cfg.Agent))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not closed by Shutdown
	mgr.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
