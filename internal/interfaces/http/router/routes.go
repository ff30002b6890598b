package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/ratelimit"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/handler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/middleware"
)

// Handlers are the endpoint groups mounted by New
type Handlers struct {
	Jobs      *handler.JobHandler
	Batches   *handler.BatchHandler
	Mappings  *handler.MappingHandler
	Products  *handler.ProductHandler
	Workflows *handler.WorkflowHandler
	Plugin    *handler.PluginHandler
	System    *handler.SystemHandler
}

// Options configure the engine built by New
type Options struct {
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	Auth           middleware.TokenValidator
	// Metrics may be nil; /metrics is then not mounted
	Metrics *telemetry.Metrics
	Logger  *zap.Logger
}

// New builds the engine: global middleware, then /health, /metrics, the
// plugin socket and the authenticated /api/v1 groups.
func New(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before logging and tracing
	// read it, and CORS must answer preflights before auth runs.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: opts.ServiceName,
		Enabled:     opts.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	if opts.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(opts.Metrics.Registry()))
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(opts.HTTP)))
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
	}
	if opts.Metrics != nil {
		engine.GET("/metrics", handler.Metrics(opts.Metrics.Handler()))
	}

	r := NewRouter(engine)

	jwtConfig := middleware.DefaultJWTConfig(opts.Auth)
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.TracingAttributeInjector())
	if opts.HTTP.RateLimitPerSecond > 0 {
		limiter := ratelimit.NewUserLimiter(opts.HTTP.RateLimitPerSecond, opts.HTTP.RateLimitBurst)
		r.Use(middleware.UserRateLimit(limiter))
	}

	if h.Jobs != nil {
		r.Register(jobRoutes(h.Jobs))
	}
	if h.Batches != nil {
		r.Register(batchRoutes(h.Batches))
	}
	if h.Mappings != nil {
		r.Register(mappingRoutes(h.Mappings))
	}
	if h.Products != nil {
		r.Register(NewDomainGroup("products", "/products").
			POST("/:id/validate", h.Products.Validate))
	}
	if h.Workflows != nil {
		r.Register(NewDomainGroup("workflows", "/workflows").
			POST("/sync", h.Workflows.StartSync).
			GET("/:workflow_id", h.Workflows.Status))
	}
	if h.Plugin != nil {
		r.Register(NewDomainGroup("plugin", "/plugin").
			GET("/status", h.Plugin.Status).
			POST("/token", h.Plugin.IssueToken))
		// the extension cannot set headers on a WebSocket handshake
		r.Register(NewDomainGroup("plugin-socket", "/plugin").Public().
			Use(middleware.QueryTokenAuth(opts.Auth, log)).
			GET("/ws", h.Plugin.Connect))
	}
	if h.System != nil {
		r.Register(NewDomainGroup("system", "").Public().GET("/health", h.System.Health))
	}
	r.Setup()
	log.Debug("API routes mounted", zap.Int("count", len(r.Routes())))

	return engine
}

func jobRoutes(h *handler.JobHandler) *DomainGroup {
	return NewDomainGroup("jobs", "/jobs").
		POST("", h.Create).
		GET("", h.List).
		GET("/stats", h.Stats).
		GET("/:id", h.Get).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/retry", h.Retry)
}

func batchRoutes(h *handler.BatchHandler) *DomainGroup {
	return NewDomainGroup("batches", "/batches").
		POST("", h.Create).
		GET("", h.List).
		GET("/:batch_id", h.Get).
		POST("/:batch_id/cancel", h.Cancel).
		POST("/:batch_id/retry-failed", h.RetryFailed)
}

func mappingRoutes(h *handler.MappingHandler) *DomainGroup {
	g := NewDomainGroup("mappings", "/mappings")
	vinted := g.Group("vinted", "/vinted")
	vinted.GET("/category", h.VintedCategory)
	vinted.POST("/attributes/match", h.MatchAttributes)
	return g
}
