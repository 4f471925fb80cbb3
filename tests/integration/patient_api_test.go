package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apppatient "github.com/covidtrack/registry/internal/application/patient"
	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/infrastructure/metrics"
	"github.com/covidtrack/registry/internal/infrastructure/persistence"
	"github.com/covidtrack/registry/internal/interfaces/http/handler"
	"github.com/covidtrack/registry/internal/interfaces/http/middleware"
	"github.com/covidtrack/registry/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	} `json:"error"`
}

func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	tdb := NewTestDB(t)
	ctx := context.Background()

	m := metrics.New()
	c, err := apppatient.NewCollection(ctx, persistence.NewGormPatientRepository(tdb.DB),
		patient.NewValidator(nil, nil), apppatient.WithRecorder(m))
	require.NoError(t, err)

	engine := router.NewEngine(router.EngineConfig{
		Logger:      zaptest.NewLogger(t),
		Metrics:     m,
		MetricsPath: "/metrics",
		MaxBodySize: 1 << 20,
	})
	router.NewRouter(engine).Register(handler.NewPatientHandler(c)).Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func TestPatientAPI_Postgres(t *testing.T) {
	engine := newTestAPI(t)

	code, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", `{
		"first_name": "Иван", "last_name": "Иванов", "birth_date": "1978-01-31",
		"phone": 89495052256, "document_type": "паспорт", "document_id": "4814326902"
	}`)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.Success)

	var created struct {
		Phone      string `json:"phone"`
		DocumentID string `json:"document_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "+7(949)505-22-56", created.Phone)
	assert.Equal(t, "48 14 326902", created.DocumentID)

	code, resp = doJSON(t, engine, http.MethodPost, "/api/v1/patients", `{
		"first_name": "Иван", "last_name": "Иванов", "birth_date": "1978-01-31",
		"phone": "8949505", "document_type": "паспорт", "document_id": "4814326902"
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_LENGTH", resp.Error.Code)
	assert.Equal(t, patient.FieldPhone, resp.Error.Field)

	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/patients/count", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"count":1}`, string(resp.Data))

	code, resp = doJSON(t, engine, http.MethodGet, "/api/v1/patients?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Иванов", list[0]["last_name"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "registry_http_requests_total")
}
