package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/usecase"
)

const (
	serviceName           = "foodlens-backend"
	serviceVersion        = "1.0.0"
	defaultMaxUploadBytes = 5 * 1024 * 1024
	defaultHistoryLimit   = 20
	maxHistoryLimit       = 100
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service        *usecase.FoodService
	catalog        *usecase.NutritionCatalog
	history        domain.AnalysisRepository
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler.
// service may be nil (food endpoints return 501); history may be nil (history is disabled).
func NewHandler(service *usecase.FoodService, catalog *usecase.NutritionCatalog, history domain.AnalysisRepository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:        service,
		catalog:        catalog,
		history:        history,
		maxUploadBytes: defaultMaxUploadBytes,
		logger:         logger.With(zap.String("component", "HANDLER")),
	}
}

// SetMaxUploadBytes caps the decoded image size accepted by AnalyzeImage
func (h *Handler) SetMaxUploadBytes(n int64) {
	if n > 0 {
		h.maxUploadBytes = n
	}
}

// analyzeImageRequest is the JSON form of an image upload
type analyzeImageRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// analyzeLabelsRequest carries labels produced by a client-side classifier
type analyzeLabelsRequest struct {
	Labels []domain.Label `json:"labels"`
}

// analysisResponse is an AnalysisResult plus the history id when it was stored
type analysisResponse struct {
	ID string `json:"id,omitempty"`
	*domain.AnalysisResult
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	records, keys := 0, 0
	if h.catalog != nil {
		records = h.catalog.Len()
		keys = h.catalog.Size()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
		"catalog": gin.H{
			"records": records,
			"keys":    keys,
		},
		"classifier": h.service != nil && h.service.HasClassifier(),
		"history":    h.history != nil,
	})
}

// AnalyzeImage handles POST /api/v1/food/analyze.
// Accepts a multipart "image" file or JSON {"image_base64": "..."} (plain or data URI).
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		h.logger.Debug("invalid image upload", zap.Error(err))
		h.writeError(c, err)
		return
	}

	result, err := h.service.AnalyzeFood(c.Request.Context(), image)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.record(c, "image", result))
}

// AnalyzeLabels handles POST /api/v1/food/labels
func (h *Handler) AnalyzeLabels(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	var req analyzeLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	result, err := h.service.AnalyzeLabels(req.Labels)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.record(c, "labels", result))
}

// Lookup handles GET /api/v1/food/lookup?q=
func (h *Handler) Lookup(c *gin.Context) {
	if !h.requireService(c) {
		return
	}

	result, err := h.service.Lookup(c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History handles GET /api/v1/food/history?limit=
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error":   "not_implemented",
			"message": "analysis history is not enabled",
		})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": records,
		"count":    len(records),
	})
}

func (h *Handler) requireService(c *gin.Context) bool {
	if h.service != nil {
		return true
	}
	c.JSON(http.StatusNotImplemented, gin.H{
		"error":   "not_implemented",
		"message": "food analysis service not configured",
	})
	return false
}

// record stores a successful analysis when history is enabled.
// Storage failures are logged and the result is still returned.
func (h *Handler) record(c *gin.Context, source string, result *domain.AnalysisResult) analysisResponse {
	resp := analysisResponse{AnalysisResult: result}
	if h.history == nil {
		return resp
	}

	rec := &domain.AnalysisRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
		Result:    *result,
	}
	if err := h.history.Save(c.Request.Context(), rec); err != nil {
		h.logger.Warn("failed to store analysis", zap.String("source", source), zap.Error(err))
		return resp
	}

	resp.ID = rec.ID
	return resp
}

// readImage extracts the image bytes from a multipart or JSON request
func (h *Handler) readImage(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("%w: missing image file", domain.ErrInvalidRequest)
		}
		if file.Size > h.maxUploadBytes {
			return nil, errImageTooLarge
		}

		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		defer f.Close()

		return h.readLimited(f)
	}

	var req analyzeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return h.decodeBase64Image(req.ImageBase64)
}

var errImageTooLarge = errors.New("image too large")

func (h *Handler) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}

// decodeBase64Image accepts raw base64 or a "data:image/...;base64," URI
func (h *Handler) decodeBase64Image(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 || !strings.HasSuffix(encoded[:comma], ";base64") {
			return nil, fmt.Errorf("%w: malformed data URI", domain.ErrInvalidRequest)
		}
		encoded = encoded[comma+1:]
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: image_base64 is required", domain.ErrInvalidRequest)
	}
	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > h.maxUploadBytes+2 {
		return nil, errImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 image", domain.ErrInvalidRequest)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, errImageTooLarge
	}
	return data, nil
}

// writeError maps domain errors to HTTP responses
func (h *Handler) writeError(c *gin.Context, err error) {
	status, _ := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	abortWithError(c, err)
}

// errorStatus returns the HTTP status and error code for err
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errImageTooLarge):
		return http.StatusRequestEntityTooLarge, "image_too_large"
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, domain.ErrNoFoodDetected):
		return http.StatusUnprocessableEntity, "no_food_detected"
	case errors.Is(err, usecase.ErrClassifierNotConfigured):
		return http.StatusServiceUnavailable, "classifier_unavailable"
	case errors.Is(err, domain.ErrClassificationFailed):
		return http.StatusBadGateway, "classification_failed"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// abortWithError writes the JSON error body for err and stops the chain
func abortWithError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error":   code,
		"message": err.Error(),
	})
}
