package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func tracedRouter(tp trace.TracerProvider) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Tracing("registry-test", tp), TraceRequestID())
	router.GET("/patients/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	router := tracedRouter(tp)

	req := httptest.NewRequest(http.MethodGet, "/patients/7", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Contains(t, span.Name(), "/patients/:id")

	var requestID string
	for _, kv := range span.Attributes() {
		if kv.Key == "request_id" {
			requestID = kv.Value.AsString()
		}
	}
	assert.Equal(t, "req-1", requestID)
}

func TestTracing_NoopProvider(t *testing.T) {
	router := tracedRouter(noop.NewTracerProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/patients/7", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
