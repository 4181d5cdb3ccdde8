package observer

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageURL       string                 `json:"image_url"`
	Source         string                 `json:"source,omitempty"`
	ModelUsed      string                 `json:"model_used,omitempty"`
	Confidence     float64                `json:"confidence,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	UpstreamStatus int                    `json:"upstream_status,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a request enters the orchestrator
	AnalysisStarted EventType = "analysis_started"
	// CustomModelFailed when the custom endpoint errors, times out or answers garbage
	CustomModelFailed EventType = "custom_model_failed"
	// FallbackInvoked when the generic vision model is called
	FallbackInvoked EventType = "fallback_invoked"
	// AnalysisCompleted when a result is produced
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when the generic model fails and the request is lost
	AnalysisFailed EventType = "analysis_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"image_url":       event.ImageURL,
		"processing_time": event.ProcessingTime.String(),
		"success":         event.Success,
	}
	if event.Source != "" {
		fields["source"] = event.Source
	}
	if event.ModelUsed != "" {
		fields["model_used"] = event.ModelUsed
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.UpstreamStatus != 0 {
		fields["upstream_status"] = event.UpstreamStatus
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Debug("Germination analysis started")
	case CustomModelFailed:
		entry.Warn("Custom model failed, falling back to vision model")
	case FallbackInvoked:
		entry.Info("Vision model fallback invoked")
	case AnalysisCompleted:
		entry.Info("Germination analysis completed")
	case AnalysisFailed:
		entry.Error("Germination analysis failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// ModelStats summarises one model's answers.
type ModelStats struct {
	ModelName           string    `json:"model_name"`
	Source              string    `json:"source"`
	TotalPredictions    int64     `json:"total_predictions"`
	FailedPredictions   int64     `json:"failed_predictions"`
	AvgConfidence       float64   `json:"avg_confidence"`
	AvgProcessingTimeMs int64     `json:"processing_time_ms"`
	LastUpdated         time.Time `json:"last_updated"`

	confidenceSum  float64
	processingTime time.Duration
}

// Metrics is a point-in-time copy of MetricsObserver's counters.
type Metrics struct {
	TotalAnalyses       int64        `json:"total_analyses"`
	SuccessfulAnalyses  int64        `json:"successful_analyses"`
	FailedAnalyses      int64        `json:"failed_analyses"`
	CustomModelFailures int64        `json:"custom_model_failures"`
	Fallbacks           int64        `json:"fallbacks"`
	AvgProcessingTimeMs int64        `json:"avg_processing_time_ms"`
	Models              []ModelStats `json:"models"`
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	failedAnalyses      int64
	customFailures      int64
	fallbacks           int64
	totalProcessingTime time.Duration
	models              map[string]*ModelStats
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{models: make(map[string]*ModelStats)}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case CustomModelFailed:
		o.customFailures++
		o.model(event).FailedPredictions++
	case FallbackInvoked:
		o.fallbacks++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		stats := o.model(event)
		stats.TotalPredictions++
		stats.confidenceSum += event.Confidence
		stats.processingTime += event.ProcessingTime
		stats.LastUpdated = event.Timestamp
	case AnalysisFailed:
		o.failedAnalyses++
		if event.ModelUsed != "" {
			o.model(event).FailedPredictions++
		}
	}
}

func (o *MetricsObserver) model(event AnalysisEvent) *ModelStats {
	name := event.ModelUsed
	if name == "" {
		name = "unknown"
	}
	stats, ok := o.models[name]
	if !ok {
		stats = &ModelStats{ModelName: name, Source: event.Source}
		o.models[name] = stats
	}
	return stats
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalAnalyses:       o.totalAnalyses,
		SuccessfulAnalyses:  o.successfulAnalyses,
		FailedAnalyses:      o.failedAnalyses,
		CustomModelFailures: o.customFailures,
		Fallbacks:           o.fallbacks,
		Models:              make([]ModelStats, 0, len(o.models)),
	}
	if o.successfulAnalyses > 0 {
		m.AvgProcessingTimeMs = (o.totalProcessingTime / time.Duration(o.successfulAnalyses)).Milliseconds()
	}

	for _, stats := range o.models {
		s := *stats
		if s.TotalPredictions > 0 {
			s.AvgConfidence = s.confidenceSum / float64(s.TotalPredictions)
			s.AvgProcessingTimeMs = (s.processingTime / time.Duration(s.TotalPredictions)).Milliseconds()
		}
		m.Models = append(m.Models, s)
	}
	sort.Slice(m.Models, func(i, j int) bool {
		return m.Models[i].ModelName < m.Models[j].ModelName
	})
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers event to every observer in subscription order.
// Observers run on the caller's goroutine and must not block.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
