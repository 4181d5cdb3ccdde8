package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/seedling-inspector-go/internal/config"
	"github.com/anime-shed/seedling-inspector-go/internal/logger"
	"github.com/anime-shed/seedling-inspector-go/internal/repository"
	"github.com/anime-shed/seedling-inspector-go/internal/storage"
	"github.com/anime-shed/seedling-inspector-go/internal/vision"
)

// StorageType represents different photo storage backends
type StorageType string

const (
	// AzureStorage keeps photos in Azure Blob Storage
	AzureStorage StorageType = "azure"
	// PlaceholderStorage hands out placeholder URLs and keeps nothing
	PlaceholderStorage StorageType = "placeholder"
)

// Storage bundles the photo store with the fetcher that can read it back.
type Storage struct {
	Type    StorageType
	Photos  storage.PhotoStore
	Fetcher *storage.RoutingFetcher
}

// VisionModelFactory creates generic vision models
type VisionModelFactory interface {
	CreateVisionModel(provider string, fetcher vision.ImageFetcher) (vision.Model, error)
}

// StorageFactory creates photo storage
type StorageFactory interface {
	CreateStorage(ctx context.Context) (*Storage, error)
}

// RepositoryFactory creates the record store
type RepositoryFactory interface {
	CreateStore(ctx context.Context) (repository.Store, error)
}

type visionModelFactory struct {
	cfg *config.Config
}

// NewVisionModelFactory creates a new vision model factory
func NewVisionModelFactory(cfg *config.Config) VisionModelFactory {
	return &visionModelFactory{cfg: cfg}
}

// CreateVisionModel creates a model for the given provider. Ollama needs
// fetcher to pass image bytes.
func (f *visionModelFactory) CreateVisionModel(provider string, fetcher vision.ImageFetcher) (vision.Model, error) {
	switch provider {
	case config.ProviderOpenAI:
		return vision.NewOpenAIModel(vision.OpenAIOptions{
			APIKey:    f.cfg.OpenAIAPIKey,
			BaseURL:   f.cfg.OpenAIBaseURL,
			Model:     f.cfg.OpenAIModel,
			MaxTokens: f.cfg.OpenAIMaxTokens,
			Timeout:   f.cfg.GenericModelTimeout,
		}), nil
	case config.ProviderHuggingFace:
		return vision.NewHuggingFaceModel(vision.HuggingFaceOptions{
			Token:     f.cfg.HuggingFaceToken,
			BaseURL:   f.cfg.HuggingFaceBaseURL,
			Model:     f.cfg.HuggingFaceModel,
			MaxTokens: f.cfg.OpenAIMaxTokens,
			Timeout:   f.cfg.GenericModelTimeout,
		}), nil
	case config.ProviderOllama:
		return vision.NewOllamaModel(vision.OllamaOptions{
			URL:     f.cfg.OllamaURL,
			Model:   f.cfg.OllamaModel,
			Timeout: f.cfg.GenericModelTimeout,
		}, fetcher)
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", provider)
	}
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage uses Azure when credentials are configured and placeholders
// otherwise.
func (f *storageFactory) CreateStorage(ctx context.Context) (*Storage, error) {
	web := storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout)

	if !f.cfg.BlobStorageEnabled() {
		logger.Warn("Azure storage not configured, using placeholder photo URLs")
		return &Storage{
			Type:    PlaceholderStorage,
			Photos:  storage.PlaceholderStore{},
			Fetcher: storage.NewRoutingFetcher(nil, web),
		}, nil
	}

	blobs, err := storage.NewAzureStorage(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.AzureStorageContainer)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure storage: %w", err)
	}
	if err := blobs.EnsureContainer(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare azure container: %w", err)
	}

	return &Storage{
		Type:    AzureStorage,
		Photos:  blobs,
		Fetcher: storage.NewRoutingFetcher(blobs, web),
	}, nil
}

type repositoryFactory struct {
	cfg *config.Config
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config) RepositoryFactory {
	return &repositoryFactory{cfg: cfg}
}

// CreateStore connects to Postgres, or falls back to memory when no
// database is configured.
func (f *repositoryFactory) CreateStore(ctx context.Context) (repository.Store, error) {
	if f.cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, running with in-memory records")
		return repository.NewMemoryStore(), nil
	}

	store, err := repository.NewGormStore(ctx, f.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	VisionModelFactory VisionModelFactory
	StorageFactory     StorageFactory
	RepositoryFactory  RepositoryFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		VisionModelFactory: NewVisionModelFactory(cfg),
		StorageFactory:     NewStorageFactory(cfg),
		RepositoryFactory:  NewRepositoryFactory(cfg),
	}
}
