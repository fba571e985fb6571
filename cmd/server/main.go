package main

import (
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/nirmitsaini1024/tgrab/internal/server"
	"github.com/nirmitsaini1024/tgrab/internal/telegram"
	"github.com/nirmitsaini1024/tgrab/internal/transport"
)

func main() {
	var port string
	var sessionDir string
	flag.StringVar(&port, "port", "", "Server port (overrides env PORT)")
	flag.StringVar(&sessionDir, "sessions", "", "Directory for session files (overrides env SESSION_DIR)")
	flag.Parse()

	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = transport.DefaultServerPort
	}

	if sessionDir == "" {
		sessionDir = os.Getenv("SESSION_DIR")
	}
	if sessionDir == "" {
		sessionDir = "./sessions"
	}

	dataDir := ""
	if len(flag.Args()) > 0 {
		dataDir = flag.Args()[0]
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gw, err := telegram.NewGateway(sessionDir, logger)
	if err != nil {
		logger.Fatal("failed to init gateway", zap.Error(err))
	}
	defer gw.CloseAll()

	srv, err := server.NewServer(port, dataDir, gw, logger)
	if err != nil {
		logger.Fatal("failed to init server", zap.Error(err))
	}

	if err := srv.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
