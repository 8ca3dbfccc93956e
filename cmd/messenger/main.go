package main

import (
	"context"
	"fmt"
	"os"

	"messenger/config"
	"messenger/internal/app"
	"messenger/internal/console"
	"messenger/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "messenger.log"
	}
	l := logger.NewWithFile(app.LoggerMode(cfg.AppMode), logger.FileConfig{
		Path:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		FileOnly:   true,
	})
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx := context.Background()

	fmt.Print("Connecting to database...")
	a, err := app.New(ctx, cfg, l)
	if err != nil {
		fmt.Println()
		fmt.Fprintf(os.Stderr, "Could not connect: %v\nMake sure postgres is running and DB_* is set.\n", err)
		os.Exit(1)
	}
	fmt.Println("Done")

	session := console.New(os.Stdin, os.Stdout, console.Services{
		Auth:     a.Auth,
		Lists:    a.Lists,
		Chats:    a.Chats,
		Messages: a.Messages,
		Accounts: a.Accounts,
	}, l)
	runErr := session.Run(ctx)

	fmt.Print("Disconnecting from database...")
	if err := a.Close(); err != nil {
		l.Errorf("close: %v", err)
	}
	fmt.Println("Done")

	if runErr != nil {
		l.Errorf("session ended: %v", runErr)
		os.Exit(1)
	}
}
