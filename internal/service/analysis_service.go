package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/anime-shed/seedling-inspector-go/internal/errors"
	"github.com/anime-shed/seedling-inspector-go/internal/logger"
	"github.com/anime-shed/seedling-inspector-go/internal/normalizer"
	"github.com/anime-shed/seedling-inspector-go/internal/observer"
	"github.com/anime-shed/seedling-inspector-go/internal/prediction"
	"github.com/anime-shed/seedling-inspector-go/internal/seeddata"
	"github.com/anime-shed/seedling-inspector-go/internal/vision"
	"github.com/anime-shed/seedling-inspector-go/pkg/models"
	"github.com/anime-shed/seedling-inspector-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Fallback profile used in the advisory prompt for seeds missing from the catalogue.
const (
	defaultGerminationDays = 5
	defaultTemperature     = 21.0
	defaultHumidity        = 75.0
	defaultSuccessRate     = 0.85
)

// CustomModelClient is the custom prediction endpoint as the service sees it.
type CustomModelClient interface {
	prediction.Predictor
	Healthy(ctx context.Context, endpoint string) bool
}

// AnalysisOutcome is one finished analysis.
type AnalysisOutcome struct {
	Result    models.AnalysisResult
	ModelUsed string
	Duration  time.Duration
}

// Payload flattens the outcome for responses and persistence.
func (o *AnalysisOutcome) Payload() models.AnalysisPayload {
	return models.NewAnalysisPayload(o.Result, o.ModelUsed)
}

// AnalysisService defines germination analysis of seed photos
type AnalysisService interface {
	// Analyze tries the custom model when requested and falls back to the
	// vision model on any custom failure. At most two sequential upstream calls.
	Analyze(ctx context.Context, req models.AnalysisRequest) (*AnalysisOutcome, error)

	// Advise asks the vision model for a grower-facing assessment of a photo.
	Advise(ctx context.Context, req models.AdvisoryRequest) (*models.AdvisoryResponse, error)

	// CustomModelHealthy probes the custom endpoint. Advisory only.
	CustomModelHealthy(ctx context.Context, endpoint string) (bool, error)
}

type analysisService struct {
	custom    CustomModelClient
	vision    vision.Model
	catalogue *seeddata.Catalogue
	validator *validation.URLValidator
	events    observer.Subject
}

// NewAnalysisService creates a new analysis service. custom may be nil, in
// which case every request goes straight to the vision model.
func NewAnalysisService(
	custom CustomModelClient,
	visionModel vision.Model,
	catalogue *seeddata.Catalogue,
	events observer.Subject,
) AnalysisService {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &analysisService{
		custom:    custom,
		vision:    visionModel,
		catalogue: catalogue,
		validator: validation.NewURLValidator(),
		events:    events,
	}
}

func (s *analysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (*AnalysisOutcome, error) {
	if err := s.validator.ValidateImageURL(req.ImageURL); err != nil {
		return nil, err
	}

	start := time.Now()
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.AnalysisStarted,
		ImageURL:  req.ImageURL,
	})

	if req.WantsCustomModel() && s.custom != nil {
		outcome, err := s.analyzeCustom(ctx, req)
		if err == nil {
			outcome.Duration = time.Since(start)
			s.completed(ctx, req.ImageURL, outcome)
			return outcome, nil
		}

		event := observer.AnalysisEvent{
			EventType:      observer.CustomModelFailed,
			ImageURL:       req.ImageURL,
			Source:         string(models.SourceCustom),
			ModelUsed:      s.custom.Name(),
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		}
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			event.UpstreamStatus = appErr.UpstreamStatus
			event.Metadata = map[string]interface{}{"error_type": appErr.Type}
		}
		s.events.NotifyObservers(ctx, event)
	}

	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType: observer.FallbackInvoked,
		ImageURL:  req.ImageURL,
		Source:    string(models.SourceGeneric),
		ModelUsed: s.vision.Name(),
	})

	outcome, err := s.analyzeGeneric(ctx, req.ImageURL)
	if err != nil {
		s.events.NotifyObservers(ctx, observer.AnalysisEvent{
			EventType:      observer.AnalysisFailed,
			ImageURL:       req.ImageURL,
			Source:         string(models.SourceGeneric),
			ModelUsed:      s.vision.Name(),
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
			UpstreamStatus: err.UpstreamStatus,
		})
		return nil, err
	}

	outcome.Duration = time.Since(start)
	s.completed(ctx, req.ImageURL, outcome)
	return outcome, nil
}

func (s *analysisService) analyzeCustom(ctx context.Context, req models.AnalysisRequest) (*AnalysisOutcome, error) {
	if err := s.validator.ValidateEndpoint(req.CustomModelEndpoint); err != nil {
		return nil, err
	}

	result, err := s.custom.Predict(ctx, req.CustomModelEndpoint, req.ImageURL)
	if err != nil {
		return nil, err
	}

	return &AnalysisOutcome{
		Result: models.CustomAnalysis{
			CustomModelResult: result,
			Assessment:        prediction.Assessment(result.Probability * 100),
		},
		ModelUsed: s.custom.Name(),
	}, nil
}

func (s *analysisService) analyzeGeneric(ctx context.Context, imageURL string) (*AnalysisOutcome, *apperrors.AppError) {
	text, err := s.vision.Describe(ctx, imageURL, vision.GerminationPrompt)
	if err != nil {
		return nil, rejected(err)
	}

	result, strategy := normalizer.NormalizeWithStrategy(text)
	fields := logrus.Fields{
		"model":     s.vision.Name(),
		"strategy":  strategy,
		"image_url": imageURL,
	}
	if result.GerminatedCount > result.TotalSeeds {
		logger.WithFields(fields).
			WithField("germinated", result.GerminatedCount).
			WithField("total", result.TotalSeeds).
			Warn("Vision model reported more germinated seeds than seeds")
	} else {
		logger.WithFields(fields).Debug("Normalized vision model response")
	}

	return &AnalysisOutcome{
		Result:    models.GenericAnalysis{GenericModelResult: result},
		ModelUsed: s.vision.Name(),
	}, nil
}

func (s *analysisService) completed(ctx context.Context, imageURL string, outcome *AnalysisOutcome) {
	s.events.NotifyObservers(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		ImageURL:       imageURL,
		Source:         string(outcome.Result.Source()),
		ModelUsed:      outcome.ModelUsed,
		Confidence:     outcome.Result.Summary().Confidence,
		ProcessingTime: outcome.Duration,
		Success:        true,
	})
}

func (s *analysisService) Advise(ctx context.Context, req models.AdvisoryRequest) (*models.AdvisoryResponse, error) {
	if err := s.validator.ValidateImageURL(req.ImageURL); err != nil {
		return nil, err
	}

	var seed *seeddata.Seed
	if s.catalogue != nil {
		if found, ok := s.catalogue.Lookup(req.SeedType); ok {
			seed = &found
		}
	}

	text, err := s.vision.Describe(ctx, req.ImageURL, advisoryPrompt(req.SeedType, req.DayNumber, seed))
	if err != nil {
		appErr := rejected(err)
		logger.WithError(err).
			WithField("seed_type", req.SeedType).
			WithField("model", s.vision.Name()).
			Error("Advisory analysis failed")
		return nil, appErr
	}

	response := &models.AdvisoryResponse{
		Analysis:        text,
		ModelUsed:       s.vision.Name(),
		Recommendations: seeddata.Recommendations(seed, req.DayNumber),
	}
	if seed != nil {
		response.SeedData = seed
	}
	return response, nil
}

func (s *analysisService) CustomModelHealthy(ctx context.Context, endpoint string) (bool, error) {
	if err := s.validator.ValidateEndpoint(endpoint); err != nil {
		return false, err
	}
	if s.custom == nil {
		return false, nil
	}
	return s.custom.Healthy(ctx, endpoint), nil
}

func advisoryPrompt(seedType string, dayNumber int, seed *seeddata.Seed) string {
	days, temperature, humidity, success := defaultGerminationDays, defaultTemperature, defaultHumidity, defaultSuccessRate
	if seed != nil {
		days = seed.ExpectedGerminationDays
		temperature = seed.OptimalTemperature
		humidity = seed.OptimalHumidity
		success = seed.SuccessRate
	}

	return fmt.Sprintf(`You are an expert microgreen growing consultant analyzing a %s microgreen photo on day %d.

SEED-SPECIFIC DATA:
- Expected germination: %d days
- Optimal temperature: %g°C
- Optimal humidity: %g%%
- Success rate: %.0f%%

Please analyze this photo and provide:

1. Current Stage Assessment: What stage of growth is visible?
2. Health Indicators: Color, density, uniformity, any issues
3. Growth Progress: Is this normal for day %d?
4. Environmental Recommendations: Temperature, humidity, light adjustments
5. Next Steps: What to expect and when to harvest
6. Quality Score: Rate 1-10 with explanation

Be specific and practical. Focus on actionable advice for microgreen growers.`,
		seedType, dayNumber, days, temperature, humidity, success*100, dayNumber)
}

// rejected folds any vision failure into the terminal upstream-rejected
// error, keeping the upstream status and message.
func rejected(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Type == apperrors.ErrorTypeUpstreamRejected {
			return appErr
		}
		return apperrors.NewUpstreamRejectedError(appErr.Message, appErr.UpstreamStatus, err)
	}
	return apperrors.NewUpstreamRejectedError("vision model request failed", 0, err)
}
