package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FDXFinanzas1/inventario-ciego/config"
	"github.com/FDXFinanzas1/inventario-ciego/middlewares"
	"github.com/FDXFinanzas1/inventario-ciego/models"
	"github.com/FDXFinanzas1/inventario-ciego/roster"
	"github.com/FDXFinanzas1/inventario-ciego/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func getRedisClient(redisAddress string) *redis.Client {
	if strings.TrimSpace(redisAddress) == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"db":     config.GetDB() != nil,
			"redis":  config.GetRedisDB() != nil,
		})
	}
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production: explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// Elsewhere: allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// deny all; an empty AllowOrigins list is rejected by cors.New
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Admin-Key", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", "X-Export-Archived")
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

// newRouter wires middlewares and routes. rosterCache may be nil.
func newRouter(logger *logrus.Logger, limiter *RateLimiter, rosterCache *roster.Cache) *gin.Engine {
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		switch c.Request.URL.Path {
		case "/healthz", "/metrics":
			c.Next()
			return
		}
		// Until the database is ready, app endpoints answer 503.
		if config.GetDB() == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service starting"})
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(cors.New(corsConfig()))
	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	supervisor := middlewares.RequireRole(models.UserRoleSupervisor)

	api := r.Group("/api")
	api.GET("/health", healthHandler())
	api.POST("/login", limiter.RateLimitMiddleware, loginHandler())
	api.POST("/logout", logoutHandler())
	api.POST("/usuarios", supervisor, saveUserHandler())

	api.GET("/bodegas", warehousesHandler())
	api.POST("/bodegas", supervisor, createWarehouseHandler())
	api.GET("/categorias", categoriesHandler())
	api.GET("/productos", productsHandler())
	api.GET("/personas", personasHandler(rosterCache))
	api.POST("/personas/actualizar", supervisor, refreshPersonasHandler(rosterCache))

	inventory := api.Group("/inventario")
	inventory.GET("/consultar", querySliceHandler())
	inventory.POST("/guardar-conteo", submitCountHandler())
	inventory.POST("/guardar-observacion", submitNotesHandler())
	inventory.POST("/cargar", loadReferenceHandler())
	inventory.GET("/asignaciones", allocationsHandler())
	inventory.POST("/asignaciones", supervisor, allocateHandler())

	api.GET("/historico", historyHandler())
	rep := api.Group("/reportes")
	rep.GET("/diferencias", differencesHandler())
	rep.GET("/dashboard", dashboardHandler())
	rep.GET("/tendencias", trendsHandler())
	rep.GET("/tendencias-temporal", temporalTrendsHandler())
	rep.GET("/exportar-excel", exportCountsHandler())

	cross := api.Group("/cruce")
	cross.POST("", supervisor, runCrossMatchHandler())
	cross.GET("", listCrossMatchesHandler())
	cross.GET("/:id", getCrossMatchHandler())
	cross.GET("/:id/detalles", crossMatchDetailsHandler())
	cross.GET("/:id/exportar-excel", exportCrossMatchHandler())
	cross.DELETE("/:id", supervisor, deleteCrossMatchHandler())

	admin := api.Group("/admin", middlewares.AdminKeyMiddleware())
	admin.DELETE("/inventario", purgeSliceHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

// newRosterCache returns nil when ROSTER_API_URL is not set.
func newRosterCache(logger *logrus.Logger) *roster.Cache {
	settings := config.GetRosterSettings()
	if settings.BaseURL == "" {
		return nil
	}
	client, err := roster.NewClient(settings.BaseURL, settings.APIKey, settings.PageSize)
	if err != nil {
		config.LogError(logger, "server.go", "newRosterCache", "building roster client", nil, err)
		return nil
	}
	return roster.NewCache(client, settings.TTL, logger)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	limiterClient := getRedisClient(os.Getenv("REDIS_ADDRESS"))
	rosterCache := newRosterCache(logger)
	r := newRouter(logger, rateLimiterFromEnv(limiterClient), rosterCache)

	// Start listening before dependencies are up; the readiness gate answers 503 meanwhile.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	if rosterCache != nil {
		settings := config.GetRosterSettings()
		roster.Prewarm(backgroundCtx, rosterCache, settings.PrewarmAttempts, settings.PrewarmBackoff)
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can block tables; SKIP_MIGRATIONS=true leaves it to a separate job.
	if !config.BoolFromEnv("SKIP_MIGRATIONS") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	cancelBackground()

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
	if rosterCache != nil {
		rosterCache.Wait()
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
	if limiterClient != nil {
		_ = limiterClient.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
