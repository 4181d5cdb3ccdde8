package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anime-shed/seedling-inspector-go/internal/config"
	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"
	"github.com/anime-shed/seedling-inspector-go/internal/logger"
	"github.com/anime-shed/seedling-inspector-go/internal/observer"
	"github.com/anime-shed/seedling-inspector-go/internal/seeddata"
	"github.com/anime-shed/seedling-inspector-go/internal/service"
	"github.com/anime-shed/seedling-inspector-go/internal/storage"
	"github.com/anime-shed/seedling-inspector-go/pkg/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Upload form defaults, as the dashboard sends them in demo mode.
const (
	defaultRecordID  = "demo-record"
	defaultDayNumber = 1
)

// Dependencies are the services the HTTP layer calls into.
type Dependencies struct {
	Analysis    service.AnalysisService
	Germination service.GerminationService
	Catalogue   *seeddata.Catalogue
	Metrics     *observer.MetricsObserver
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestLogger(),
		cors.New(corsConfig(cfg.AllowedOrigins)),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)

	api := r.Group("/api")
	{
		api.POST("/analyze-with-model", analyzeWithModel(deps, cfg))
		api.GET("/model/health", modelHealth(deps, cfg))
		api.POST("/ai/analyze", adviseOnPhoto(deps, cfg))
		api.POST("/update-photo-analysis", updatePhotoAnalysis(deps))
		api.POST("/upload-photo", uploadPhoto(deps, cfg))

		api.POST("/germination/create", createRecord(deps))
		api.GET("/germination/list", listRecords(deps))
		api.POST("/germination/update", updateRecord(deps))
		api.GET("/germination-records/:id", getRecord(deps))
		api.POST("/record-germination-progress", recordProgress(deps))

		api.GET("/analytics/dashboard", dashboard(deps))
		api.GET("/recommendations", recommendations(deps))
		api.GET("/model-performance", modelPerformance(deps))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func analyzeWithModel(deps Dependencies, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.AnalyzeWithModelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		if strings.TrimSpace(req.ImageURL) == "" {
			respondError(c, http.StatusBadRequest, "imageUrl is required", nil)
			return
		}

		endpoint := firstNonEmpty(req.CustomModelEndpoint, req.ColabEndpoint, cfg.CustomModelEndpoint)
		outcome, err := deps.Analysis.Analyze(ctx, models.AnalysisRequest{
			ImageURL:            req.ImageURL,
			UseCustomModel:      req.UseCustomModel || req.UseColab,
			CustomModelEndpoint: endpoint,
		})
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Analysis failed", err)
			return
		}

		payload := outcome.Payload()
		if req.PhotoID != "" {
			savePhotoAnalysis(ctx, deps, req.PhotoID, payload)
		}

		logger.WithFields(logrus.Fields{
			"url":                req.ImageURL,
			"source":             payload.Source,
			"model":              payload.ModelUsed,
			"processing_time_ms": outcome.Duration.Milliseconds(),
		}).Info("Germination analysis completed successfully")

		c.JSON(http.StatusOK, models.AnalysisResponse{Success: true, AnalysisPayload: payload})
	}
}

// savePhotoAnalysis persists a result; failures never fail the analysis.
func savePhotoAnalysis(ctx context.Context, deps Dependencies, photoID string, payload models.AnalysisPayload) {
	analysis, err := json.Marshal(payload)
	if err == nil {
		err = deps.Germination.SaveAnalysis(ctx, models.UpdatePhotoAnalysisRequest{
			PhotoID:   photoID,
			Analysis:  string(analysis),
			ModelUsed: payload.ModelUsed,
		})
	}
	if err != nil {
		logger.WithError(err).WithField("photo_id", photoID).Warn("Failed to save photo analysis")
	}
}

func modelHealth(deps Dependencies, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := firstNonEmpty(c.Query("endpoint"), cfg.CustomModelEndpoint)
		healthy, err := deps.Analysis.CustomModelHealthy(c.Request.Context(), endpoint)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Invalid model endpoint", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"healthy": healthy, "endpoint": endpoint})
	}
}

func adviseOnPhoto(deps Dependencies, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.AdvisoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		resp, err := deps.Analysis.Advise(ctx, req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to analyze photo", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func updatePhotoAnalysis(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdatePhotoAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		if err := deps.Germination.SaveAnalysis(c.Request.Context(), req); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to update analysis", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func uploadPhoto(deps Dependencies, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		header, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "No file provided", err)
			return
		}

		recordID := firstNonEmpty(c.PostForm("germinationRecordId"), defaultRecordID)
		dayNumber := defaultDayNumber
		if raw := c.PostForm("dayNumber"); raw != "" {
			if dayNumber, err = strconv.Atoi(raw); err != nil || dayNumber < 0 {
				respondError(c, http.StatusBadRequest, "Invalid dayNumber", err)
				return
			}
		}

		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "Failed to read upload", err)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Failed to read upload", err)
			return
		}

		result, err := deps.Germination.UploadPhoto(ctx, storage.PhotoUpload{
			RecordID:    recordID,
			DayNumber:   dayNumber,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to upload photo", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func createRecord(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		record, err := deps.Germination.CreateRecord(c.Request.Context(), req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to create record", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "record": record})
	}
}

func listRecords(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := deps.Germination.ListRecords(c.Request.Context(), c.Query("userId"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to fetch records", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
	}
}

func updateRecord(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		record, err := deps.Germination.UpdateRecord(c.Request.Context(), req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to update record", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "record": record})
	}
}

func getRecord(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		details, err := deps.Germination.GetRecordDetails(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to fetch germination record", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "record": details.Record, "progress": details.Progress})
	}
}

func recordProgress(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RecordProgressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Missing required fields", err)
			return
		}
		progress, err := deps.Germination.RecordProgress(c.Request.Context(), req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "Failed to record progress", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "progress": progress})
	}
}

func dashboard(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		analytics, err := deps.Germination.Dashboard(c.Request.Context(), c.Query("userId"))
		if apperrors.IsType(err, apperrors.ErrorTypeValidation) {
			respondError(c, http.StatusBadRequest, "User ID required", err)
			return
		}
		if err != nil {
			// The dashboard renders zeroed analytics rather than an error page.
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "Failed to fetch analytics", "analytics": analytics})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "analytics": analytics})
	}
}

// seedRecommendation is a catalogue seed with the category it belongs to.
type seedRecommendation struct {
	seeddata.Seed
	Category string `json:"category,omitempty"`
}

func recommendations(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		catalogue := deps.Catalogue

		if seedType := c.Query("seedType"); seedType != "" {
			seed, ok := catalogue.Lookup(seedType)
			if !ok {
				respondError(c, http.StatusNotFound, "Seed type not found", nil)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"success":        true,
				"recommendation": seedRecommendation{Seed: seed, Category: catalogue.CategoryOf(seed.Name)},
			})
			return
		}

		if name := c.Query("category"); name != "" {
			category, ok := catalogue.Category(name)
			if !ok {
				respondError(c, http.StatusNotFound, "Category not found", nil)
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"success":         true,
				"category":        category.Name,
				"recommendations": catalogue.SeedsIn(category),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"recommendations": catalogue.Seeds,
			"categories":      catalogue.Categories,
			"environment":     catalogue.Environment,
		})
	}
}

func modelPerformance(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "metrics": deps.Metrics.GetMetrics()})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"user_agent":  c.Request.UserAgent(),
			"ip":          c.ClientIP(),
		}).Debug("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "Request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {success:false, error}. An AppError's own message wins
// over the generic one so upstream rejections reach the caller intact.
func respondError(c *gin.Context, code int, message string, err error) {
	fields := logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}

	resp := models.ErrorResponse{Success: false, Error: message}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Error = appErr.Message
		if appErr.Message != message {
			resp.Message = message
		}
		if appErr.UpstreamStatus != 0 {
			fields["upstream_status"] = appErr.UpstreamStatus
		}
	}

	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, resp)
}
