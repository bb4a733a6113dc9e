package app

import (
	"neet_tracker_backend/docs"
	"neet_tracker_backend/internal/middleware"
	"neet_tracker_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(s.auth))
	{
		a.registerAccountRoutes(authGroup, c)
		a.registerTestRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/ping", c.health.Ping)
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/signup", c.auth.Signup)
		public.POST("/auth/login", c.auth.Login)
	}
}

func (a *App) registerAccountRoutes(group *gin.RouterGroup, c *controllers) {
	group.GET("/auth/me", c.auth.Me)
	group.PUT("/auth/profile", c.auth.UpdateProfile)
}

func (a *App) registerTestRoutes(group *gin.RouterGroup, c *controllers) {
	tests := group.Group("/tests")
	{
		tests.POST("/preview", c.test.Preview)
		tests.GET("", c.test.List)
		tests.GET("/stats/summary", c.test.Stats)
		tests.GET("/:id", c.test.Get)
		tests.POST("", c.test.Create)
		tests.PUT("/:id", c.test.Update)
		tests.DELETE("/:id", c.test.Delete)
		tests.DELETE("", c.test.DeleteAll)
		tests.POST("/:id/send-email", c.test.SendEmail)
		tests.GET("/:id/report", c.test.Report)
		tests.POST("/:id/report/archive", c.test.ArchiveReport)
	}
}
