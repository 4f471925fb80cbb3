package handler

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"net/http"
	"strings"

	apppatient "github.com/covidtrack/registry/internal/application/patient"
	"github.com/covidtrack/registry/internal/domain/patient"
	csvimport "github.com/covidtrack/registry/internal/infrastructure/import"
	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/covidtrack/registry/internal/interfaces/http/dto"
	"github.com/covidtrack/registry/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultListLimit  = 10
	maxImportFileSize = 10 * 1024 * 1024
)

// PatientService is the collection as seen by the HTTP layer
type PatientService interface {
	Add(ctx context.Context, raw patient.RawFields) (*patient.Patient, error)
	Limit(ctx context.Context, n int) iter.Seq2[*patient.Patient, error]
	Count(ctx context.Context) (int64, error)
	Statistics() patient.Statistics
	Import(ctx context.Context, r io.Reader) (*apppatient.ImportResult, error)
}

// PatientHandler serves the patient endpoints
type PatientHandler struct {
	BaseHandler
	patients PatientService
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(patients PatientService) *PatientHandler {
	return &PatientHandler{patients: patients}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PatientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/patients", h.Create)
	rg.GET("/patients", h.List)
	rg.GET("/patients/count", h.Count)
	rg.POST("/patients/import", h.Import)
	rg.GET("/statistics", h.Statistics)
}

// Create validates and stores a new patient.
// POST /patients
func (h *PatientHandler) Create(c *gin.Context) {
	var req dto.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	p, err := h.patients.Add(c.Request.Context(), req.ToRaw())
	if err != nil {
		logger.GetGinLogger(c).Info("patient rejected", zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewPatientResponse(p))
}

// List returns the first patients in storage order.
// GET /patients?limit=N
func (h *PatientHandler) List(c *gin.Context) {
	var req dto.ListPatientsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	limit := defaultListLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	ctx := c.Request.Context()
	items := make([]dto.PatientResponse, 0, min(limit, 100))
	for p, err := range h.patients.Limit(ctx, limit) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		items = append(items, dto.NewPatientResponse(p))
	}

	total, err := h.patients.Count(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, limit)
}

// Count returns the number of stored patients.
// GET /patients/count
func (h *PatientHandler) Count(c *gin.Context) {
	n, err := h.patients.Count(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: n})
}

// Statistics returns the status tally of loaded patients.
// GET /statistics
func (h *PatientHandler) Statistics(c *gin.Context) {
	h.Success(c, dto.NewStatisticsResponse(h.patients.Statistics()))
}

// Import adds the valid rows of a CSV file, sent either as the "file" part
// of a multipart form or as the raw request body.
// POST /patients/import
func (h *PatientHandler) Import(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			h.BadRequest(c, "file is required")
			return
		}
		defer file.Close()
		if header.Size > maxImportFileSize {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "file exceeds maximum size of 10MB")
			return
		}
		body = file
	}

	result, err := h.patients.Import(c.Request.Context(), body)
	if err != nil {
		if isMalformedCSV(err) {
			h.BadRequest(c, err.Error())
			return
		}
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPatientImportResponse(result))
}

func isMalformedCSV(err error) bool {
	var parseErr *csv.ParseError
	return errors.As(err, &parseErr) ||
		errors.Is(err, csvimport.ErrEmptyFile) ||
		errors.Is(err, csvimport.ErrInvalidEncoding) ||
		errors.Is(err, csvimport.ErrMissingHeader)
}
