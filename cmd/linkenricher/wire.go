package main

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/link-enricher/internal/api"
	"github.com/JakeFAU/link-enricher/internal/backend/boilerplate"
	"github.com/JakeFAU/link-enricher/internal/backend/news"
	"github.com/JakeFAU/link-enricher/internal/backend/plainhtml"
	"github.com/JakeFAU/link-enricher/internal/backend/readability"
	"github.com/JakeFAU/link-enricher/internal/backend/session"
	"github.com/JakeFAU/link-enricher/internal/backend/social"
	"github.com/JakeFAU/link-enricher/internal/cache"
	"github.com/JakeFAU/link-enricher/internal/classifier"
	"github.com/JakeFAU/link-enricher/internal/clock/system"
	"github.com/JakeFAU/link-enricher/internal/config"
	"github.com/JakeFAU/link-enricher/internal/dispatcher"
	"github.com/JakeFAU/link-enricher/internal/dump"
	"github.com/JakeFAU/link-enricher/internal/enricher"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
	collyfetcher "github.com/JakeFAU/link-enricher/internal/fetcher/colly"
	"github.com/JakeFAU/link-enricher/internal/fetcher/headless"
	"github.com/JakeFAU/link-enricher/internal/hash/sha256"
	"github.com/JakeFAU/link-enricher/internal/id/uuid"
	"github.com/JakeFAU/link-enricher/internal/policy/ratelimit"
	pubsubpublisher "github.com/JakeFAU/link-enricher/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/link-enricher/internal/queue/memory"
	gcsstore "github.com/JakeFAU/link-enricher/internal/storage/gcs"
	"github.com/JakeFAU/link-enricher/internal/storage/local"
	memoryStorage "github.com/JakeFAU/link-enricher/internal/storage/memory"
	"github.com/JakeFAU/link-enricher/internal/storage/postgres"
	"github.com/JakeFAU/link-enricher/internal/strategy"
	"github.com/JakeFAU/link-enricher/internal/worker"
)

// service holds the wired components and the cleanups for the ones that own
// external resources.
type service struct {
	enricher   *enricher.Enricher
	dispatcher *dispatcher.Dispatcher
	queue      *queueMemory.Queue
	readiness  []api.ReadinessCheck
	closers    []func()
}

func (s *service) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (_ *service, err error) {
	svc := &service{}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()

	clock := system.New()
	ids := uuid.New()
	table := cfg.Social.Table()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
	})

	var renderer enrichment.Fetcher = headless.NewNoop()
	if cfg.Headless.Enabled {
		chrome, chromeErr := headless.NewChromedp(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.HTTP.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			SettleDelay:       time.Duration(cfg.Headless.SettleDelayMs) * time.Millisecond,
		})
		if chromeErr != nil {
			logger.Warn("headless renderer init failed; social backend disabled", zap.Error(chromeErr))
		} else {
			renderer = chrome
			svc.closers = append(svc.closers, chrome.Close)
		}
	}

	chain := strategy.New(
		strategy.Config{
			BackendTimeout: cfg.BackendTimeout(),
			MinTextChars:   cfg.Enricher.MinTextChars,
		},
		classifier.New(cfg.Classifier),
		[]enrichment.Backend{
			boilerplate.New(fetcher),
			news.New(fetcher, news.Config{Language: cfg.News.Language, MinStopWords: cfg.News.MinStopWords}),
			readability.New(fetcher),
			session.New(session.Config{
				UserAgent:    cfg.HTTP.UserAgent,
				Timeout:      cfg.FetchTimeout(),
				PrimeSession: cfg.HTTP.PrimeSession,
			}, table),
			plainhtml.New(fetcher),
		},
		social.New(renderer, table),
		table,
		logger,
	)

	limiter := ratelimit.New(ratelimit.Config{
		PerHostRPS:   cfg.HTTP.PerHostRPS,
		PerHostBurst: cfg.HTTP.PerHostBurst,
	})

	var linkCache enrichment.LinkCache
	if c := cache.NewMemoryCache(cfg.CacheTTL(), sha256.New()); c != nil {
		linkCache = c
	}

	var recorder enrichment.LinkRecorder
	if cfg.DB.DSN != "" {
		store, dbErr := postgres.NewLinkStore(ctx, postgres.LinkStoreConfig{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        cfg.DB.MaxConns,
			MinConns:        cfg.DB.MinConns,
			MaxConnLifetime: time.Duration(cfg.DB.MaxConnLifetimeMin) * time.Minute,
		})
		if dbErr != nil {
			return nil, fmt.Errorf("link store: %w", dbErr)
		}
		svc.closers = append(svc.closers, store.Close)
		if cfg.DB.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		recorder = store
		svc.readiness = append(svc.readiness, api.ReadinessCheck{Name: "postgres", Check: store.Ping})
	}

	svc.queue = queueMemory.NewQueue(cfg.Enricher.QueueDepth)
	workerCfg := worker.Config{
		ContentLimit:  cfg.Enricher.ContentLimit,
		NotesMaxChars: cfg.Enricher.NotesMaxChars,
	}
	workers := make([]*worker.Worker, 0, cfg.Enricher.Workers)
	for i := range cfg.Enricher.Workers {
		workers = append(workers, worker.New(
			svc.queue, chain, limiter, linkCache, recorder, ids, clock, workerCfg,
			logger.With(zap.Int("worker", i)),
		))
	}
	svc.dispatcher = dispatcher.New(svc.queue, workers)
	svc.closers = append(svc.closers, svc.queue.Close)

	var dumper enrichment.Dumper
	if cfg.Debug.Enabled {
		store, storeErr := blobStore(ctx, cfg, svc)
		if storeErr != nil {
			return nil, storeErr
		}
		dumper = dump.New(store, clock, cfg.Storage.Prefix)
	}

	var publisher enrichment.Publisher
	if cfg.PubSub.TopicName != "" {
		client, psErr := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if psErr != nil {
			return nil, fmt.Errorf("pubsub client: %w", psErr)
		}
		pub := pubsubpublisher.New(client)
		svc.closers = append(svc.closers, func() {
			pub.Close()
			if err := client.Close(); err != nil {
				logger.Warn("pubsub client close failed", zap.Error(err))
			}
		})
		publisher = pub
	}

	svc.enricher = enricher.New(svc.dispatcher, dumper, publisher, ids, clock, enricher.Config{
		BatchTimeout: cfg.BatchTimeout(),
		Topic:        cfg.PubSub.TopicName,
	}, logger)

	logger.Info("enricher wired",
		zap.Int("workers", cfg.Enricher.Workers),
		zap.Int("social_domains", table.Len()),
		zap.Bool("headless", cfg.Headless.Enabled),
		zap.Bool("postgres", recorder != nil),
		zap.Bool("cache", linkCache != nil),
		zap.Bool("debug_dumps", dumper != nil),
		zap.Bool("pubsub", publisher != nil),
	)
	return svc, nil
}

// blobStore selects the debug dump destination.
func blobStore(ctx context.Context, cfg config.Config, svc *service) (enrichment.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		store, err := local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store: %w", err)
		}
		return store, nil
	case config.StorageGCS:
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		svc.closers = append(svc.closers, func() { _ = client.Close() })
		store, err := gcsstore.New(client, gcsstore.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store: %w", err)
		}
		return store, nil
	default:
		return memoryStorage.NewBlobStore(), nil
	}
}
