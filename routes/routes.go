package routes

import (
	"net/http"
	"time"

	"circl/handlers"
	"circl/metrics"
	"circl/middleware"
	"circl/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterDiscoveryRoutes registers quiz and resource list endpoints.
func RegisterDiscoveryRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/discovery")
	{
		api.GET("/domains", hb.ListDomainsHandler)
		api.GET("/views/:view", hb.GetViewHandler)
		api.POST("/:domain/search", hb.SearchHandler)
		api.POST("/:domain/views/:view", hb.SubmitQuizHandler)
		api.POST("/:domain/views/:view/appear", hb.AppearHandler)
	}
}

// RegisterSessionRoutes registers the per-device session gate endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/session/:device")
	{
		api.POST("/launch", hb.LaunchHandler)
		api.POST("/login", hb.LoginHandler)
		api.GET("/root", hb.RootHandler)

		// Protected routes (require a token issued for this device)
		protected := api.Group("")
		protected.Use(middleware.SessionAuthMiddleware(hb.Revocations))
		protected.POST("/logout", hb.LogoutHandler)
		protected.PUT("/title", hb.SetTitleHandler)
	}
}

// RegisterNetworkRoutes registers network membership endpoints.
func RegisterNetworkRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/network/:owner")
	{
		api.GET("/members", hb.ListMembersHandler)
		api.GET("/members/:member", hb.MembershipHandler)
		api.GET("/emails/:email", hb.EmailMembershipHandler)
		api.POST("/refresh", hb.RefreshNetworkHandler)

		// Writes require a token issued to the owner
		owner := api.Group("")
		owner.Use(middleware.OwnerAuthMiddleware(hb.Revocations))
		owner.POST("/members", hb.AddMemberHandler)
		owner.DELETE("/members/:member", hb.RemoveMemberHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Circl", "dependencies": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	r.GET("/metrics", metrics.Handler())
	RegisterDiscoveryRoutes(r, hb)
	RegisterSessionRoutes(r, hb)
	RegisterNetworkRoutes(r, hb)
}
