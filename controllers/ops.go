package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/toorbo1/telegram-community1-sub000/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewOpsRouter builds the internal server for probes and Prometheus scraping.
// It listens on its own port and is never exposed through the public proxy.
func NewOpsRouter(db *gorm.DB, rc redis.UniversalClient, production bool, log *zap.Logger) *gin.Engine {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinAdapter(middleware.RequestIDMiddleware))
	r.Use(middleware.GinAdapter(middleware.Recovery(log)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		ready := true
		if err := pingDB(ctx, db); err != nil {
			log.Warn("readiness: database", zap.Error(err))
			checks["database"] = "down"
			ready = false
		} else {
			checks["database"] = "up"
		}
		if rc != nil {
			if err := rc.Ping(ctx).Err(); err != nil {
				log.Warn("readiness: redis", zap.Error(err))
				checks["redis"] = "down"
				ready = false
			} else {
				checks["redis"] = "up"
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "checks": checks})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
