package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"multitris/internal/config"
	"multitris/internal/database"
	"multitris/internal/game"
	"multitris/internal/server"
)

var configPath = flag.String("config", "", "path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := database.NewStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	hub := server.NewHub(logger)
	registry := game.NewRegistry(hub, store, cfg.Game.MaxPlayers, cfg.TickPeriod(), logger)
	handler := server.NewHandler(hub, registry, logger)

	http.HandleFunc("/ws", handler.HandleWS)
	http.HandleFunc("/check_room", handler.CheckRoom)
	http.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))

	logger.Info("server started",
		zap.String("addr", cfg.Server.Addr),
		zap.Duration("tick", cfg.TickPeriod()),
		zap.Int("max_players", cfg.Game.MaxPlayers),
	)
	if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
