package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/duskvale/werewolf-arena/internal/arena/drone"
	platformcmd "github.com/duskvale/werewolf-arena/internal/platform/cmd"
	"github.com/duskvale/werewolf-arena/internal/platform/config"
)

func main() {
	_ = godotenv.Load()
	log.SetPrefix("[DRONE] ")

	var cfg drone.Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceDrone, func(ctx context.Context) error {
		return drone.Run(ctx, cfg)
	})
	if err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
