package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/JAGANADITHYA/walk1/internal/config"
	"github.com/JAGANADITHYA/walk1/internal/middleware"
	"github.com/JAGANADITHYA/walk1/internal/services"
	"github.com/JAGANADITHYA/walk1/internal/storage"
)

type RouterDeps struct {
	Store      storage.Store
	Auth       *services.AuthService
	Tokens     middleware.TokenValidator
	Sessions   middleware.SessionValidator
	RateLimits middleware.RateLimitChecker
	Events     LedgerSubscriber
	Walks      *services.WalkTracker
	Accounting *services.Accounting
	Dashboards *services.DashboardService
	Health     map[string]Pinger
	Limits     config.Limits
	Log        *logrus.Entry

	// LoginLimiter is created from Limits when nil.
	LoginLimiter *middleware.IPRateLimiter
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(deps.Log), middleware.Metrics(), middleware.CORS())

	authHandler := NewAuthHandler(deps.Auth, deps.Log)
	dashboardHandler := NewDashboardHandler(deps.Dashboards, deps.Log)
	walkHandler := NewWalkHandler(deps.Walks, deps.Log)
	walletHandler := NewWalletHandler(deps.Accounting, deps.Log)
	brandHandler := NewBrandHandler(deps.Store, deps.Log)
	healthHandler := NewHealthHandler(deps.Health, deps.Log)
	wsHandler := NewWebSocketHandler(deps.Store, deps.Events, deps.Log)

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.NewIPRateLimiter(deps.Limits.LoginPerSecond, deps.Limits.LoginBurst)
	}
	router.POST("/api/auth/login", loginLimiter.Handler(), authHandler.Login)

	router.GET("/api/brand-config", brandHandler.GetBrandConfig)
	router.GET("/api/ad-placements", brandHandler.ListAdPlacements)

	walkLimit := middleware.UserRateLimit(deps.RateLimits, "walk", deps.Limits.WalksPerMinute, time.Minute, deps.Log)
	purchaseLimit := middleware.UserRateLimit(deps.RateLimits, "purchase", deps.Limits.PurchasesPerMinute, time.Minute, deps.Log)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.Tokens, deps.Sessions))
	{
		protected.GET("/auth/user", authHandler.GetCurrentUser)
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/dashboard", dashboardHandler.GetDashboard)
		protected.GET("/ws", wsHandler.HandleWebSocket)

		walks := protected.Group("/walks")
		{
			walks.GET("", walkHandler.ListWalks)
			walks.POST("/start", walkLimit, walkHandler.StartWalk)
			walks.PUT("/:id/complete", walkLimit, walkHandler.CompleteWalk)
		}

		protected.GET("/transactions", walletHandler.ListTransactions)
		protected.POST("/bonus/streak", walkLimit, walkHandler.ClaimStreakBonus)

		metro := protected.Group("/metro")
		{
			metro.GET("/stations", walletHandler.GetStations)
			metro.GET("/quote", walletHandler.QuoteMetroTicket)
			metro.GET("/tickets", walletHandler.ListMetroTickets)
			metro.POST("/purchase", purchaseLimit, walletHandler.PurchaseMetroTicket)
		}

		rewards := protected.Group("/rewards")
		{
			rewards.GET("/catalog", walletHandler.GetRewardCatalog)
			rewards.GET("/redemptions", walletHandler.ListRedemptions)
			rewards.POST("/redeem", purchaseLimit, walletHandler.RedeemReward)
		}
	}

	return router
}
