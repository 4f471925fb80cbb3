package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck reports whether a backing store is reachable
type HealthCheck func() error

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	check     HealthCheck
}

// NewSystemHandler creates a new SystemHandler. check may be nil when the
// storage has nothing to ping.
func NewSystemHandler(name, version string, check HealthCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		check:     check,
	}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/system/info", h.GetSystemInfo)
	rg.GET("/system/ping", h.Ping)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping answers pong
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health reports storage reachability. It is mounted outside the API group.
func (h *SystemHandler) Health(c *gin.Context) {
	status, storage, code := "healthy", "ok", http.StatusOK
	if h.check != nil {
		if err := h.check(); err != nil {
			logger.GetGinLogger(c).Warn("health check failed", zap.Error(err))
			status, storage, code = "unhealthy", "error", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":  status,
		"time":    time.Now().Format(time.RFC3339),
		"storage": storage,
	})
}
