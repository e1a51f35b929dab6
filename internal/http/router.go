package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/outbound-messaging-backend/internal/http/handlers"
	httpMW "github.com/yungbote/outbound-messaging-backend/internal/http/middleware"
	"github.com/yungbote/outbound-messaging-backend/internal/observability"
	"github.com/yungbote/outbound-messaging-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics
	RateLimiter *httpMW.RateLimiter

	AuthMiddleware *httpMW.AuthMiddleware

	OutboundHandler        *httpH.OutboundHandler
	ContentTemplateHandler *httpH.ContentTemplateHandler
	HealthHandler          *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	protected := r.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	protected.Use(httpMW.RateLimit(cfg.RateLimiter))
	{
		if cfg.OutboundHandler != nil {
			protected.POST("/api/outbound/messages", cfg.OutboundHandler.SendOutboundMessage)
			protected.POST("/sendOutboundMessage", cfg.OutboundHandler.SendOutboundMessage)
		}
		if cfg.ContentTemplateHandler != nil {
			protected.GET("/api/content-templates", cfg.ContentTemplateHandler.ListContentTemplates)
			protected.POST("/api/content-templates", cfg.ContentTemplateHandler.ListContentTemplates)
		}
	}

	return r
}
