package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/handler"
	"github.com/WedtreeAutomation/PaySlip-Sender/middleware"
	"github.com/WedtreeAutomation/PaySlip-Sender/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:     newRouter(a),
		ReadTimeout: 2 * time.Minute,
		// Distributions run inside the request.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", a.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Server.ShutdownSecs)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited gracefully")
	return nil
}

func newRouter(a *app) *gin.Engine {
	cfg := a.cfg
	runs := service.NewRunStore(cfg.Runs.MaxRuns)
	sessions := service.NewNavigatorStore(a.gateway, cfg.Explorer.PageSize, cfg.Explorer.MaxPageSize)

	authHandler := handler.NewAuthHandler(cfg)
	distributionHandler := handler.NewDistributionHandler(a.distributor, a.dispatcher, runs, &cfg.Distribution, cfg.Server.MaxUploadMB)
	notificationHandler := handler.NewNotificationHandler(a.dispatcher)
	explorerHandler := handler.NewExplorerHandler(a.gateway, sessions)

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(noStoreMiddleware())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"backend":   cfg.Storage.Backend,
			"sms":       a.dispatcher != nil,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	if a.metrics != nil {
		router.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	}

	api := router.Group("/api")
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/distributions", distributionHandler.Create)
		protected.GET("/distributions", distributionHandler.List)
		protected.GET("/distributions/:id", distributionHandler.Get)
		protected.GET("/distributions/:id/report", distributionHandler.Report)
		protected.POST("/distributions/:id/notify", distributionHandler.Notify)
		protected.DELETE("/distributions/:id", middleware.RequireRole(handler.RoleAdmin), distributionHandler.Delete)

		protected.POST("/notifications", notificationHandler.Send)
	}

	explorer := protected.Group("/explorer")
	{
		explorer.GET("", explorerHandler.List)
		explorer.POST("/open", explorerHandler.Open)
		explorer.POST("/back", explorerHandler.Back())
		explorer.POST("/root", explorerHandler.Root())
		explorer.POST("/refresh", explorerHandler.Refresh())
		explorer.POST("/next", explorerHandler.Next())
		explorer.POST("/prev", explorerHandler.Prev())
		explorer.POST("/page-size", explorerHandler.PageSize)
		explorer.GET("/items/*id", explorerHandler.Download)
		explorer.DELETE("/items/*id", middleware.RequireRole(handler.RoleAdmin), explorerHandler.Delete)
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// noStoreMiddleware keeps API responses, which carry share links and
// contact numbers, out of shared caches.
func noStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
