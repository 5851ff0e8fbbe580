package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"device-license.backend/internal/infrastructure/metrics"
	"device-license.backend/internal/interfaces/http/middleware"
	"device-license.backend/pkg/redis"
)

const (
	serviceName    = "device-license-backend"
	serviceVersion = "1.0.0"

	healthTimeout = 2 * time.Second
)

// healthCheck probes one dependency; nil means healthy
type healthCheck struct {
	name  string
	probe func(ctx context.Context) error
}

func healthChecks(pingDB func(context.Context) error) []healthCheck {
	checks := []healthCheck{{name: "database", probe: pingDB}}
	if redis.GetClient() != nil {
		checks = append(checks, healthCheck{name: "redis", probe: redis.Ping})
	}
	return checks
}

func applyCORSMiddleware(r *gin.Engine, allowedOrigins []string) {
	r.Use(middleware.CORSMiddleware(allowedOrigins))
}

// registerHealthRoute answers 200 while every check passes and 503 otherwise
func registerHealthRoute(r *gin.Engine, checks []healthCheck) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.probe(ctx); err != nil {
				results[check.name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[check.name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":  status,
			"service": serviceName,
			"version": serviceVersion,
			"checks":  results,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, m *metrics.Metrics) {
	r.GET("/metrics", gin.WrapH(m.Handler()))
}
