package router

import (
	"net/http"

	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/covidtrack/registry/internal/infrastructure/metrics"
	"github.com/covidtrack/registry/internal/interfaces/http/dto"
	"github.com/covidtrack/registry/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EngineConfig configures NewEngine
type EngineConfig struct {
	Logger      *zap.Logger
	Metrics     *metrics.Metrics // nil disables request metrics and /metrics
	MetricsPath string
	MaxBodySize int64
	Production  bool
	Tracer      trace.TracerProvider // nil disables request spans
	ServiceName string
}

// NewEngine builds a gin engine with the middleware stack in order:
// request id, tracing, panic recovery, request logging, metrics, body limit.
func NewEngine(cfg EngineConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	if cfg.Tracer != nil {
		engine.Use(middleware.Tracing(cfg.ServiceName, cfg.Tracer), middleware.TraceRequestID())
	}
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	if cfg.Metrics != nil {
		engine.Use(middleware.Metrics(cfg.Metrics))
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "route not found", c.GetString("request_id")))
	})
	return engine
}
