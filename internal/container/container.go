package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/seedling-inspector-go/internal/config"
	"github.com/anime-shed/seedling-inspector-go/internal/factory"
	"github.com/anime-shed/seedling-inspector-go/internal/logger"
	"github.com/anime-shed/seedling-inspector-go/internal/observer"
	"github.com/anime-shed/seedling-inspector-go/internal/prediction"
	"github.com/anime-shed/seedling-inspector-go/internal/repository"
	"github.com/anime-shed/seedling-inspector-go/internal/seeddata"
	"github.com/anime-shed/seedling-inspector-go/internal/service"
	"github.com/anime-shed/seedling-inspector-go/internal/transport"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	store              repository.Store
	analysisService    service.AnalysisService
	germinationService service.GerminationService
	metrics            *observer.MetricsObserver
	handler            http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	catalogue, err := seeddata.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load seed catalogue: %w", err)
	}

	photos, err := components.StorageFactory.CreateStorage(ctx)
	if err != nil {
		return nil, err
	}

	visionModel, err := components.VisionModelFactory.CreateVisionModel(cfg.GenericProvider, photos.Fetcher)
	if err != nil {
		return nil, err
	}

	store, err := components.RepositoryFactory.CreateStore(ctx)
	if err != nil {
		return nil, err
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	customModel := prediction.NewClient(prediction.Options{
		APIKey:        cfg.CustomModelAPIKey,
		Timeout:       cfg.CustomModelTimeout,
		HealthTimeout: cfg.CustomModelHealthTimeout,
	})

	analysisService := service.NewAnalysisService(customModel, visionModel, catalogue, events)
	germinationService := service.NewGerminationService(store, photos.Photos)

	handler := transport.NewHandler(transport.Dependencies{
		Analysis:    analysisService,
		Germination: germinationService,
		Catalogue:   catalogue,
		Metrics:     metrics,
	}, cfg)

	logger.WithFields(logrus.Fields{
		"vision_model":    visionModel.Name(),
		"custom_endpoint": cfg.CustomModelEndpoint != "",
		"photo_storage":   photos.Type,
		"database":        cfg.DatabaseURL != "",
	}).Info("Container initialized")

	return &Container{
		config:             cfg,
		store:              store,
		analysisService:    analysisService,
		germinationService: germinationService,
		metrics:            metrics,
		handler:            handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the record store.
func (c *Container) Close() error {
	return c.store.Close()
}
