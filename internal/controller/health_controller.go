package controller

import (
	"context"
	"neet_tracker_backend/internal/util"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB          *gorm.DB
	Redis       *redis.Client
	PingMessage func() string
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, pingMessage func() string) *HealthController {
	return &HealthController{DB: db, Redis: rdb, PingMessage: pingMessage}
}

// Ping godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Router /ping [get]
func (c *HealthController) Ping(ctx *gin.Context) {
	util.Success(ctx, gin.H{"message": c.PingMessage()})
}

// HealthCheck godoc
// @Summary Health check
// @Description Pings the database and, when enabled, redis
// @Tags system
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.LogInternalError(ctx, err, "Database handle unavailable")
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up", "redis": "disabled"}
	if c.Redis != nil {
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
