package main

import (
	"context"
	"log"

	"messenger/config"
	"messenger/internal/app"
	"messenger/internal/handler"
	"messenger/internal/server"
	"messenger/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.NewWithFile(app.LoggerMode(cfg.AppMode), logger.FileConfig{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	logger.SetGlobalLogger(l)
	defer l.Sync()

	a, err := app.New(context.Background(), cfg, l)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth:     handler.NewAuthHandler(a.Auth, a.Chats),
		Lists:    handler.NewListHandler(a.Lists),
		Chats:    handler.NewChatHandler(a.Chats),
		Messages: handler.NewMessageHandler(a.Messages),
		Account:  handler.NewAccountHandler(a.Accounts),
	}, a.Auth, a.Health)

	if err := srv.Start(); err != nil {
		l.Errorf("Server exited: %v", err)
	}
}
