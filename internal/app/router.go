package app

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"pedidotrack.io/tracker/internal/api/handlers"
	"pedidotrack.io/tracker/internal/api/middleware"
	"pedidotrack.io/tracker/internal/config"
)

// Public routes that do NOT require JWT authentication.
var publicPrefixes = []string{
	"/health/",
}

func newRouter(cfg *config.Config, server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(cfg)))
	if !cfg.Security.AuthDisabled {
		router.Use(jwtSkipPublic([]byte(cfg.Security.JWTSigningKey)))
	}

	server.RegisterHealthRoutes(router)
	server.RegisterRoutes(router.Group("/api/v1"))
	return router
}

// buildCORSConfig turns the configured origin list into a cors config.
// A wildcard origin switches to allow-all and drops credentials, since
// browsers reject the credentialed-wildcard combination.
func buildCORSConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	c.ExposeHeaders = append(c.ExposeHeaders, middleware.RequestIDHeader)

	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			c.AllowAllOrigins = true
			c.AllowOrigins = nil
			c.AllowCredentials = false
			return c
		}
	}

	c.AllowOrigins = cfg.Server.CORSOrigins
	c.AllowCredentials = true
	return c
}

// jwtSkipPublic returns middleware that applies JWT auth only on non-public routes.
func jwtSkipPublic(signingKey []byte) gin.HandlerFunc {
	jwtMw := middleware.JWTAuth(signingKey)
	return func(c *gin.Context) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		jwtMw(c)
	}
}
