package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apppatient "github.com/covidtrack/registry/internal/application/patient"
	"github.com/covidtrack/registry/internal/domain/patient"
	"github.com/covidtrack/registry/internal/infrastructure/persistence"
	"github.com/covidtrack/registry/internal/interfaces/http/dto"
	"github.com/covidtrack/registry/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

const ivanBody = `{
	"first_name": "Иван",
	"last_name": "Иванов",
	"birth_date": "1978-01-31",
	"phone": 89495052256,
	"document_type": "паспорт",
	"document_id": "4814326902"
}`

func newTestCollection(t *testing.T) *apppatient.Collection {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patients.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	c, err := apppatient.NewCollection(context.Background(),
		persistence.NewCSVPatientRepository(path), patient.NewValidator(nil, nil))
	require.NoError(t, err)
	return c
}

func newPatientEngine(svc PatientService) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	NewPatientHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func decodeData[T any](t *testing.T, body []byte) APIResponse[T] {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestPatientHandler_Create(t *testing.T) {
	engine := newPatientEngine(newTestCollection(t))

	t.Run("valid patient is stored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(ivanBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := decodeData[dto.PatientResponse](t, w.Body.Bytes())
		assert.True(t, resp.Success)
		assert.Equal(t, "+7(949)505-22-56", resp.Data.Phone)
		assert.Equal(t, "domestic_passport", resp.Data.DocumentType)
		assert.Equal(t, "48 14 326902", resp.Data.DocumentID)
		assert.Equal(t, "Болен", resp.Data.StatusLabel)
	})

	t.Run("domain error maps to 422 with field", func(t *testing.T) {
		body := strings.Replace(ivanBody, `"1978-01-31"`, `"31 января 1978"`, 1)
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
		assert.Equal(t, patient.FieldBirthDate, resp.Error.Field)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("short phone", func(t *testing.T) {
		body := strings.Replace(ivanBody, `89495052256`, `"8949505"`, 1)
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "INVALID_LENGTH", resp.Error.Code)
	})

	t.Run("empty first name is a domain error", func(t *testing.T) {
		body := strings.Replace(ivanBody, `"first_name": "Иван"`, `"first_name": ""`, 1)
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
		assert.Equal(t, patient.FieldFirstName, resp.Error.Field)
	})

	t.Run("missing fields fail on the first one", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", `{"first_name": "Иван"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "INVALID_FORMAT", resp.Error.Code)
		assert.Equal(t, patient.FieldLastName, resp.Error.Field)
	})

	t.Run("missing phone is a type mismatch", func(t *testing.T) {
		body := strings.Replace(ivanBody, `"phone": 89495052256,`, ``, 1)
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", body)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "TYPE_MISMATCH", resp.Error.Code)
		assert.Equal(t, patient.FieldPhone, resp.Error.Field)
	})

	t.Run("malformed json is a 400", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodPost, "/api/v1/patients", `{"first_name": `)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})
}

func TestPatientHandler_ListAndCount(t *testing.T) {
	c := newTestCollection(t)
	engine := newPatientEngine(c)
	for range 3 {
		w, _ := doJSON(t, engine, http.MethodPost, "/api/v1/patients", ivanBody)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=2", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeData[[]dto.PatientResponse](t, w.Body.Bytes())
		assert.Len(t, resp.Data, 2)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(3), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Limit)
	})

	t.Run("default limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		resp := decodeData[[]dto.PatientResponse](t, w.Body.Bytes())
		assert.Len(t, resp.Data, 3)
		assert.Equal(t, defaultListLimit, resp.Meta.Limit)
	})

	t.Run("zero limit is empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=0", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		resp := decodeData[[]dto.PatientResponse](t, w.Body.Bytes())
		assert.Empty(t, resp.Data)
	})

	t.Run("negative limit", func(t *testing.T) {
		w, resp := doJSON(t, engine, http.MethodGet, "/api/v1/patients?limit=-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	})

	t.Run("count", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/count", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		resp := decodeData[dto.CountResponse](t, w.Body.Bytes())
		assert.Equal(t, int64(3), resp.Data.Count)
	})
}

func TestPatientHandler_Statistics(t *testing.T) {
	engine := newPatientEngine(newTestCollection(t))
	doJSON(t, engine, http.MethodPost, "/api/v1/patients", ivanBody)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeData[dto.StatisticsResponse](t, w.Body.Bytes())
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Statuses, 3)
	assert.Equal(t, "100.0", resp.Data.Statuses[0].Percent)
	assert.Contains(t, resp.Data.Chart, "Заражено")
}

const importCSV = "first_name,last_name,birth_date,phone,document_type,document_id,status\n" +
	"Глеб,Голубин,1978-01-31,+7(949)505-22-56,Водительские права,78 15 812581,Болен\n" +
	"Тамби,Масаев,1952-02-27,+7(940)246-24,Загран. паспорт,71 5874634,Умер\n"

func TestPatientHandler_Import(t *testing.T) {
	t.Run("raw body", func(t *testing.T) {
		engine := newPatientEngine(newTestCollection(t))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/import", strings.NewReader(importCSV))
		req.Header.Set("Content-Type", "text/csv")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[dto.PatientImportResponse](t, w.Body.Bytes())
		assert.Equal(t, 2, resp.Data.TotalRows)
		assert.Equal(t, 1, resp.Data.ImportedRows)
		assert.Equal(t, 1, resp.Data.ErrorRows)
		require.Len(t, resp.Data.Errors, 1)
		assert.Equal(t, 3, resp.Data.Errors[0].Row)
		assert.Equal(t, "INVALID_LENGTH", resp.Data.Errors[0].Code)
	})

	t.Run("multipart file", func(t *testing.T) {
		engine := newPatientEngine(newTestCollection(t))

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "patients.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(importCSV))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeData[dto.PatientImportResponse](t, w.Body.Bytes())
		assert.Equal(t, 1, resp.Data.ImportedRows)
	})

	t.Run("missing file part", func(t *testing.T) {
		engine := newPatientEngine(newTestCollection(t))
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		engine := newPatientEngine(newTestCollection(t))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/import", strings.NewReader(""))
		req.Header.Set("Content-Type", "text/csv")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeBadRequest)
	})

	t.Run("missing columns", func(t *testing.T) {
		engine := newPatientEngine(newTestCollection(t))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patients/import", strings.NewReader("first_name\nИван\n"))
		req.Header.Set("Content-Type", "text/csv")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "missing required columns")
	})
}

// brokenService fails every storage call
type brokenService struct{}

func (brokenService) Add(context.Context, patient.RawFields) (*patient.Patient, error) {
	return nil, errors.New("disk full")
}

func (brokenService) Limit(context.Context, int) iter.Seq2[*patient.Patient, error] {
	return func(yield func(*patient.Patient, error) bool) {
		yield(nil, errors.New("connection reset"))
	}
}

func (brokenService) Count(context.Context) (int64, error) { return 0, errors.New("connection reset") }
func (brokenService) Statistics() patient.Statistics        { return patient.Statistics{} }
func (brokenService) Import(context.Context, io.Reader) (*apppatient.ImportResult, error) {
	return nil, errors.New("disk full")
}

func TestPatientHandler_InternalErrors(t *testing.T) {
	engine := newPatientEngine(brokenService{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/v1/patients", ivanBody},
		{http.MethodGet, "/api/v1/patients", ""},
		{http.MethodGet, "/api/v1/patients/count", ""},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w, resp := doJSON(t, engine, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
			assert.NotContains(t, w.Body.String(), "disk full")
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}
