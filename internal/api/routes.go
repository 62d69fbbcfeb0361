package api

import (
	"net/http"
	"time"

	"github.com/Mesh2A/digitduel/internal/api/handlers"
	"github.com/Mesh2A/digitduel/internal/config"
	"github.com/Mesh2A/digitduel/internal/middleware"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/internal/services"
	"github.com/gin-gonic/gin"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config     *config.Config
	WalletRepo *repositories.WalletRepository

	ConnSvc  *services.ConnectionService
	QueueSvc *services.QueueService
	RoomSvc  *services.RoomService
	MatchSvc *services.MatchService
	AdminSvc *services.AdminService
	LobbySvc *services.LobbyService
}

// NewRouter builds the gin engine with the full /api/v1 surface.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	limiter := middleware.NewRateLimiter(
		deps.Config.RateLimitPerUser,
		deps.Config.RateLimitPerIP,
		time.Minute,
	)

	sessionHandler := handlers.NewSessionHandler(deps.ConnSvc)
	queueHandler := handlers.NewQueueHandler(deps.QueueSvc)
	roomHandler := handlers.NewRoomHandler(deps.RoomSvc)
	matchHandler := handlers.NewMatchHandler(deps.MatchSvc)
	walletHandler := handlers.NewWalletHandler(deps.WalletRepo)
	adminHandler := handlers.NewAdminHandler(deps.AdminSvc)
	lobbyHandler := handlers.NewLobbyHandler(deps.LobbySvc)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	authed := v1.Group("")
	authed.Use(middleware.Auth(deps.Config.JWTSecret), limiter.Middleware())
	{
		session := authed.Group("/session")
		{
			session.POST("/connect", sessionHandler.Connect)
			session.POST("/disconnect", sessionHandler.Disconnect)
		}

		queue := authed.Group("/queue")
		{
			queue.POST("", queueHandler.Join)
			queue.GET("/:id", queueHandler.Status)
			queue.DELETE("/:id", queueHandler.Cancel)
		}

		rooms := authed.Group("/rooms")
		{
			rooms.POST("", roomHandler.Create)
			rooms.GET("/:code", roomHandler.Status)
			rooms.POST("/:code/join", roomHandler.Join)
			rooms.DELETE("/:code", roomHandler.Cancel)
		}

		matches := authed.Group("/matches")
		{
			matches.GET("/active", matchHandler.Active)
			matches.GET("/:id", matchHandler.View)
			matches.POST("/:id/guess", matchHandler.Guess)
			matches.POST("/:id/forfeit", matchHandler.Forfeit)
			matches.POST("/:id/secret", matchHandler.SetSecret)
			matches.POST("/:id/ready", matchHandler.SetReady)
			matches.POST("/:id/card/pick", matchHandler.PickCard)
			matches.POST("/:id/card/use", matchHandler.UseCard)
		}

		wallet := authed.Group("/wallet")
		{
			wallet.GET("", walletHandler.Balance)
			wallet.GET("/history", walletHandler.History)
		}

		authed.GET("/lobby", lobbyHandler.Snapshot)
	}

	// The stream authenticates through the token query parameter handled by
	// the same Auth middleware; websocket clients cannot set headers.
	v1.GET("/lobby/stream", middleware.Auth(deps.Config.JWTSecret), lobbyHandler.Stream)

	admin := v1.Group("/admin")
	admin.Use(middleware.AdminAuth(deps.Config.AdminToken))
	{
		admin.GET("/online", adminHandler.Status)
		admin.PUT("/online", adminHandler.SetOnline)
	}

	return router
}
