package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/internal/config"
	"github.com/razzie/rbcremote/internal/logging"
	"github.com/razzie/rbcremote/pkg/connector"
)

func main() {
	configPath := flag.String("config", "", "config file (defaults to $"+config.PathEnv+")")
	color := flag.String("color", "w", "color played by the remote agent [w|b]")
	maxTurns := flag.Int("turns", 100, "adjudicate the game after this many turns")
	flag.Parse()

	if *color != "w" && *color != "b" {
		fmt.Println("invalid color:", *color)
		os.Exit(1)
	}

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

	player, err := connector.Dial(cfg.ServerAddr, connector.Options{
		CallTimeout: cfg.CallTimeout,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to connect", zap.String("server", cfg.ServerAddr), zap.Error(err))
	}
	defer player.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agentColor := chess.White
	if *color == "b" {
		agentColor = chess.Black
	}
	ref := newReferee(agentColor, logger)
	winner, reason := ref.play(ctx, player, *maxTurns)
	fmt.Println(ref.game.Position().Board().Draw())
	fmt.Printf("%s won (%s)\n", winner.Name(), reason)
}
