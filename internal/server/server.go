// Package server is the HTTP surface the portal's view code talks to: a JSON
// API over every portal operation plus the embedded static assets.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/gramportal/internal/assetcache"
	"github.com/zulandar/gramportal/internal/notify"
	"github.com/zulandar/gramportal/internal/portal"
)

// StartOpts holds configuration for the portal server.
type StartOpts struct {
	Portal   *portal.Portal
	Port     int
	Out      io.Writer
	Cache    *assetcache.Cache // optional; reported at /api/cache
	Notifier *notify.Notifier  // optional; fans out /api/push and submission events
	Now      func() time.Time  // defaults to time.Now; stamps exports
}

// NewRouter builds the gin engine without starting a listener.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.Portal == nil {
		return nil, fmt.Errorf("server: portal is required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewNotifier("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := newHandlers(opts)
	opts.Portal.Subscribe(h.events.publish)
	if opts.Notifier.Sinks() > 0 {
		opts.Portal.Subscribe(PushOnSubmission(opts.Notifier))
	}
	if err := registerRoutes(router, h); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	return router, nil
}

// Start launches the portal HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Portal running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// requestLogger logs one line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("server: %s %s %s %d %v",
			c.ClientIP(), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
