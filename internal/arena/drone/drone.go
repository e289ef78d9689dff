// Package drone is the bundled reference participant: a small HTTP service
// that answers the referee's decision requests with the deterministic
// scripted policy. It exists so an arena can run end to end without any
// model-backed agents.
package drone

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duskvale/werewolf-arena/internal/arena/agent"
	"github.com/duskvale/werewolf-arena/internal/platform/timeouts"
)

// Config holds the drone service configuration, loaded from the environment.
type Config struct {
	// Port is the HTTP listen port.
	Port int `env:"WEREWOLF_DRONE_PORT" envDefault:"9000"`
	// Name labels the drone in its descriptor.
	Name string `env:"WEREWOLF_DRONE_NAME" envDefault:"drone"`
}

// NewRouter builds the drone's HTTP surface.
func NewRouter(name string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	var policy agent.ScriptedPolicy

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": name, "role": "participant"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/act", func(c *gin.Context) {
		var req agent.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decision := policy.Decide(req.Actor, req.View)
		log.Printf("%s: %s round %d: %s %s", name, req.View.Phase, req.View.Round, decision.Kind, decision.Target)
		c.JSON(http.StatusOK, decision)
	})

	return r
}

// Run serves the drone until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(cfg.Name),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("drone %s listening on %s", cfg.Name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown drone server: %w", err)
	}
	return nil
}
