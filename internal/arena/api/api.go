// Package api exposes the referee over HTTP JSON: game creation, status,
// listings, and the journal event feed.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duskvale/werewolf-arena/internal/arena/domain"
	"github.com/duskvale/werewolf-arena/internal/arena/journal"
	"github.com/duskvale/werewolf-arena/internal/arena/storage"
)

// AgentSpec names one remote participant in a create request.
type AgentSpec struct {
	ID    string `json:"id" binding:"required"`
	URL   string `json:"url" binding:"required"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// CreateGameRequest is the POST /games body.
type CreateGameRequest struct {
	Agents []AgentSpec   `json:"agents" binding:"required"`
	Config domain.Config `json:"config"`
}

// Service is the application surface the handlers call into.
type Service interface {
	// CreateGame creates a game and launches its loop in the background.
	CreateGame(ctx context.Context, req CreateGameRequest) (*domain.Game, error)
	// GetGame loads a game by id.
	GetGame(ctx context.Context, id string) (*domain.Game, error)
	// ListGames returns one summary per known game, newest first.
	ListGames(ctx context.Context) ([]domain.Summary, error)
	// GameEvents returns a game's journal in sequence order.
	GameEvents(ctx context.Context, id string) ([]journal.Event, error)
}

// GameResponse is the public status of a game. Role assignments stay hidden
// until the game is over.
type GameResponse struct {
	ID         string            `json:"id"`
	Status     domain.Status     `json:"status"`
	Phase      domain.Phase      `json:"phase"`
	Round      int               `json:"round"`
	Alive      []string          `json:"alive"`
	Eliminated []string          `json:"eliminated"`
	Winner     domain.Winner     `json:"winner,omitempty"`
	Roles      map[string]string `json:"roles,omitempty"`
	Violations map[string]int    `json:"violations,omitempty"`
}

// NewGameResponse projects the public view of a game.
func NewGameResponse(game *domain.Game) GameResponse {
	resp := GameResponse{
		ID:         game.ID,
		Status:     game.Status,
		Phase:      game.Phase,
		Round:      game.Round,
		Alive:      game.Alive,
		Eliminated: game.Eliminated,
		Winner:     game.Winner,
	}
	if game.Terminal() {
		resp.Roles = make(map[string]string, len(game.Roles))
		for id, role := range game.Roles {
			resp.Roles[id] = role.String()
		}
		resp.Violations = make(map[string]int, len(game.Ledger.Violations))
		for violation, count := range game.Ledger.Violations {
			resp.Violations[string(violation)] = count
		}
	}
	return resp
}

// NewRouter builds the HTTP surface around a service.
func NewRouter(svc Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), tracing())

	r.GET("/", newDescriptorHandler())
	r.GET("/health", newHealthHandler())
	r.POST("/games", newCreateGameHandler(svc))
	r.GET("/games", newListGamesHandler(svc))
	r.GET("/games/:id", newGetGameHandler(svc))
	r.GET("/games/:id/events", newGameEventsHandler(svc))

	return r
}

// tracing opens one span per request. Spans are no-ops unless the process
// configured an exporter at startup.
func tracing() gin.HandlerFunc {
	tracer := otel.Tracer("arena/api")
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath(),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
			))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
		span.End()
	}
}

func newDescriptorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "werewolf-arena",
			"role":    "referee",
			"version": "1",
		})
	}
}

func newHealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func newCreateGameHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateGameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		game, err := svc.CreateGame(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, NewGameResponse(game))
	}
}

func newGetGameHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		game, err := svc.GetGame(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, NewGameResponse(game))
	}
}

func newListGamesHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := svc.ListGames(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		if summaries == nil {
			summaries = []domain.Summary{}
		}
		c.JSON(http.StatusOK, gin.H{"games": summaries})
	}
}

func newGameEventsHandler(svc Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := svc.GameEvents(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if events == nil {
			events = []journal.Event{}
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, storage.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
