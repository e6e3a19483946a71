package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/z0r1k/textchat-acc-pack/internal/adapters/signal"
	"github.com/z0r1k/textchat-acc-pack/internal/app/orch"
	"github.com/z0r1k/textchat-acc-pack/internal/config"
	"github.com/z0r1k/textchat-acc-pack/internal/domain"
)

const apiKeyHeader = "X-API-Key"

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps a per-browser token in the cookie session; it
// only tags log lines, relay identity is per socket.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get("ct").(string)
		if token == "" {
			token = genClientToken()
			s.Set("ct", token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// RequireAPIKey rejects requests without the configured key. An empty key
// disables the check.
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type tokenRequest struct {
	Room       string `json:"room" binding:"required,max=128"`
	Data       string `json:"data" binding:"max=1024"`
	TTLSeconds int    `json:"ttl_seconds" binding:"gte=0"`
}

type tokenResponse struct {
	Room      string    `json:"room"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, limiter *signal.RoomRateLimiter) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TextchatSessions", store))
	r.Use(ClientTokenMiddleware())

	ctrl := signal.NewSignalWSController(o, limiter)
	if cfg.ReadLimit > 0 {
		ctrl.ReadLimit = cfg.ReadLimit
	}
	if cfg.PingPeriod > 0 {
		ctrl.PingPeriod = cfg.PingPeriod
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sockets": o.Registry.Len()})
	})

	api := r.Group("/api")

	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Rooms.List()})
	})

	api.GET("/rooms/:name/members", func(c *gin.Context) {
		room, ok := o.Rooms.GetRoom(domain.RoomName(c.Param("name")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": room.Room().Name, "members": room.MembersSnapshot()})
	})

	api.POST("/tokens", RequireAPIKey(cfg.APIKey), func(c *gin.Context) {
		if o.Tokens == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "tokens disabled"})
			return
		}
		var req tokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ttl := time.Duration(req.TTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = cfg.TokenTTL
		}
		token, err := o.Tokens.Issue(domain.RoomName(req.Room), req.Data, ttl)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("issue token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token"})
			return
		}
		c.JSON(http.StatusCreated, tokenResponse{Room: req.Room, Token: token, ExpiresAt: time.Now().Add(ttl).UTC()})
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
