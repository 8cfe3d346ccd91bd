package container

import (
	"fmt"

	"github.com/adlens/adscache/cmd/adscached/service"
	"github.com/adlens/adscache/common/bootstrap"
	"github.com/adlens/adscache/common/clients"
	"github.com/adlens/adscache/common/mediacache"
	"github.com/adlens/adscache/common/repository"
	"github.com/adlens/adscache/common/security"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	MediaRepo *repository.MediaRecordRepository

	// Media cache store
	MediaCache *mediacache.Cache

	// Clients
	AdsClient *clients.ScrapeCreatorsClient
	Fetcher   *clients.MediaFetcher
	Analyzer  *clients.GeminiClient

	// Services
	AdsService   *service.AdsService
	MediaService *service.MediaService
	CacheService *service.CacheService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	// Initialize repositories
	mediaRepo := repository.NewMediaRecordRepository(components.DB)

	// Media cache store on top of the index
	mediaCache, err := mediacache.New(cfg.Cache, mediaRepo, components.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media cache: %w", err)
	}

	// Outbound clients
	adsClient := clients.NewScrapeCreatorsClient(
		cfg.AdsAPI.BaseURL,
		cfg.AdsAPI.APIKey,
		cfg.AdsAPI.Timeout,
		cfg.AdsAPI.DefaultLimit,
		components.Logger,
	)

	var guardOpts []security.GuardOption
	if cfg.Fetch.AllowPrivateHosts {
		components.Logger.Warn("fetch guard allows private hosts; use only in development")
		guardOpts = append(guardOpts, security.AllowPrivateHosts())
	}
	fetcher := clients.NewMediaFetcher(
		cfg.Fetch.ImageTimeout,
		cfg.Fetch.VideoTimeout,
		security.NewURLGuard(guardOpts...),
		components.Logger,
	)

	analyzer := clients.NewGeminiClient(
		cfg.Analyzer.BaseURL,
		cfg.Analyzer.APIKey,
		cfg.Analyzer.Model,
		cfg.Analyzer.Timeout,
		components.Logger,
	)

	// Initialize services (bottom-up: dependencies first)
	adsService := service.NewAdsService(adsClient, components.Logger)
	mediaService := service.NewMediaService(mediaCache, fetcher, analyzer, components)
	cacheService := service.NewCacheService(mediaCache, cfg.Cache.MaxAgeDays, components.Logger)

	return &Container{
		Components:   components,
		MediaRepo:    mediaRepo,
		MediaCache:   mediaCache,
		AdsClient:    adsClient,
		Fetcher:      fetcher,
		Analyzer:     analyzer,
		AdsService:   adsService,
		MediaService: mediaService,
		CacheService: cacheService,
	}, nil
}
