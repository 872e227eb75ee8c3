package api

import (
	_ "embed"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/pprof"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hostel-allocation-backend/config"
	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/store"
)

//go:embed static/index.html
var landingPage []byte

var registerValidatorOnce sync.Once

// Options carries the optional collaborators of the router.
type Options struct {
	Server   config.ServerConfig
	Webpush  *webpush.Options
	Notifier Notifier
	Metrics  *mw.Metrics
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, opts Options) *gin.Engine {
	registerValidatorOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})

	metrics := opts.Metrics
	if metrics == nil {
		metrics = mw.NewMetrics()
	}
	handler := NewHandler(s, opts.Webpush, opts.Notifier, metrics)

	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Recovery())
	r.Use(requestid.New())
	r.Use(logger.SetLogger(
		logger.WithDefaultLevel(zerolog.InfoLevel),
		logger.WithClientErrorLevel(zerolog.InfoLevel),
		logger.WithServerErrorLevel(zerolog.ErrorLevel),
		logger.WithLogger(func(c *gin.Context, out io.Writer, latency time.Duration) zerolog.Logger {
			return log.Logger.With().
				Str("request-id", requestid.Get(c)).
				Dur("latency", latency).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", c.Writer.Status()).
				Logger()
		})))
	r.Use(metrics.Middleware())

	if len(opts.Server.CORSAllowOrigins) > 0 {
		log.Debug().Strs("allowOrigins", opts.Server.CORSAllowOrigins).Msg("CORS")
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.Server.CORSAllowOrigins,
			AllowMethods: []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Origin", "Content-Length", "Content-Type"},
		}))
	}

	if opts.Server.EnablePprof {
		pprof.Register(r)
	}

	// Operational endpoints bypass the rate limiter and the cache.
	r.GET("/", handler.Landing)
	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	r.GET("/metrics", metrics.Handler())
	r.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	responses := mw.NewResponseCache(5*time.Minute, 10*time.Minute)
	cacheTTL := time.Duration(opts.Server.CacheTTLSeconds) * time.Second

	chain := []gin.HandlerFunc{}
	if opts.Server.RateLimitPerSec > 0 {
		chain = append(chain, mw.RateLimiter(rate.Limit(opts.Server.RateLimitPerSec), opts.Server.RateLimitBurst))
	}
	chain = append(chain, responses.Invalidate(), responses.Cache(cacheTTL))

	student := r.Group("/student", chain...)
	{
		student.POST("", handler.RegisterStudent)
		student.GET("/list", handler.ListStudents)
		student.POST("/allocate", handler.Allocate)
		student.GET("/allocations", handler.ListAllocations)
		student.GET("/allocations/:id", handler.GetAllocation)
		student.GET("/subscriptions", handler.GetSubscription)
		student.PUT("/subscriptions", handler.PutSubscription)
		student.DELETE("/subscriptions", handler.DeleteSubscription)
		student.GET("/:id", handler.GetStudent)
		student.GET("/:id/allocation", handler.StudentAllocation)
	}

	admin := r.Group("/admin", chain...)
	{
		admin.POST("/rooms", handler.CreateRoom)
		admin.GET("/rooms", handler.ListRooms)
		admin.GET("/rooms/available", handler.AvailableRooms)
		admin.GET("/rooms/:id", handler.GetRoom)
		admin.POST("/allocate", handler.Allocate)
		admin.GET("/stats", handler.Stats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
