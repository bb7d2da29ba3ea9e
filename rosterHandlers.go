package main

import (
	"net/http"

	"github.com/FDXFinanzas1/inventario-ciego/roster"
	"github.com/gin-gonic/gin"
)

// personasHandler serves the cached roster. A nil cache means no roster source is configured.
func personasHandler(cache *roster.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cache == nil {
			c.JSON(http.StatusOK, []string{})
			return
		}
		c.JSON(http.StatusOK, cache.Get(c.Request.Context()))
	}
}

func refreshPersonasHandler(cache *roster.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cache == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "roster source not configured"})
			return
		}
		names, err := cache.Refresh(c.Request.Context())
		if err != nil {
			respondError(c, "refreshPersonasHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"personas": names, "actualizado": cache.FetchedAt()})
	}
}
