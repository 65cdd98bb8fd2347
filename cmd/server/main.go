package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Overload1252/wowjudo-lootboxes/internal/app"
	"github.com/Overload1252/wowjudo-lootboxes/internal/config"
	"github.com/Overload1252/wowjudo-lootboxes/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, app.Config{Logger: telemetry.WrapLogger(log.Default()), Env: cfg}); err != nil {
		log.Fatalf("%v", err)
	}
}
