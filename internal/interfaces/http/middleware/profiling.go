// Package middleware provides HTTP middleware for the ExpensoX API.
package middleware

import (
	"context"
	"strings"

	"github.com/Jay1425/ExpensoX/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig controls which requests get profiling labels.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths are exact paths left unlabeled, typically health checks.
	SkipPaths []string
	// SkipPathPrefixes are prefixes left unlabeled.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig skips health-check and documentation endpoints.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// Profiling returns the profiling-label middleware with defaults.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig attaches controller, route, method and company_id
// labels to the request context so continuous profiles can be sliced by
// endpoint and tenant.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// Route pattern, not the raw path: keeps label cardinality
		// bounded by the route table.
		route := c.FullPath()
		companyID := ""
		if v, exists := c.Get(JWTCompanyIDKey); exists {
			if id, ok := v.(string); ok {
				companyID = id
			}
		}
		labels := telemetry.HTTPRequestLabels(
			controllerFromRoute(route), route, c.Request.Method, companyID)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute picks the resource segment out of a route pattern,
// e.g. "/api/v1/expenses/:id" yields "expenses".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
