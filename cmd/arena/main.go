package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/duskvale/werewolf-arena/internal/arena/app"
	platformcmd "github.com/duskvale/werewolf-arena/internal/platform/cmd"
	"github.com/duskvale/werewolf-arena/internal/platform/config"
)

func main() {
	_ = godotenv.Load()
	log.SetPrefix("[ARENA] ")

	var cfg app.Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceArena, func(ctx context.Context) error {
		service, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := service.Close(); err != nil {
				log.Printf("close: %v", err)
			}
		}()
		return service.Run(ctx)
	})
	if err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
