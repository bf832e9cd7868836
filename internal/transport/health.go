package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether one backing service is usable.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 3 * time.Second

// health runs every check and answers 503 when one of them fails.
func health(cfg RouterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		checks := make(map[string]string, len(cfg.HealthChecks))
		for name, check := range cfg.HealthChecks {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		resp := gin.H{
			"status":  status,
			"service": "instafilter",
			"version": cfg.AppVersion,
		}
		if len(checks) > 0 {
			resp["checks"] = checks
		}
		c.JSON(code, resp)
	}
}
