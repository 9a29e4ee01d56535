package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campuslive/classroom/internal/adapters/signal"
	"github.com/campuslive/classroom/internal/app"
	"github.com/campuslive/classroom/internal/config"
	"github.com/campuslive/classroom/internal/core"
	"github.com/campuslive/classroom/internal/domain"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware pins an anonymous identity to the browser; it
// becomes the session ID every room binding keys on.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ClassSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": orch.Rooms.List()})
	})

	api.GET("/rooms/:name", func(c *gin.Context) {
		name := domain.RoomName(c.Param("name"))
		room := orch.Rooms.GetOrCreate(name)
		c.JSON(http.StatusOK, gin.H{
			"name":        room.Room().Name,
			"memberCount": room.MemberCount(),
		})
	})

	api.GET("/rooms/:name/members", func(c *gin.Context) {
		name := domain.RoomName(c.Param("name"))
		room := orch.Rooms.GetOrCreate(name)
		c.JSON(http.StatusOK, room.MembersSnapshot())
	})

	api.DELETE("/rooms/:name/members/:sid", func(c *gin.Context) {
		sid := core.SessionID(c.Param("sid"))
		orch.KickBySID(sid)
		c.Status(http.StatusNoContent)
	})

	ctl := signal.NewClassWSController(orch, cfg.NoticeDuration)
	api.GET("/ws/class", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws class endpoint hit")
		ctl.HandleClass(ctx, c)
	})

	return r
}
