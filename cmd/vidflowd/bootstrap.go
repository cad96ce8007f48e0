package main

import (
	"fmt"
	"log/slog"
	"time"

	"vidflow/internal/activity"
	"vidflow/internal/config"
	"vidflow/internal/daemon"
	"vidflow/internal/engine"
	"vidflow/internal/instance"
	"vidflow/internal/logging"
	"vidflow/internal/services/blobstore"
	"vidflow/internal/services/openai"
	"vidflow/internal/services/search"
	"vidflow/internal/services/videoai"
	"vidflow/internal/stages"
	"vidflow/internal/starter"
	"vidflow/internal/status"
)

// bootstrap wires the full processing stack: store, service clients,
// stage activities, engine, manager, and daemon. Clients are built once
// here and injected; an unconfigured service leaves its client nil and
// the stage falls back to simulation.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := instance.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open instance store: %w", err)
	}

	blobs, videoAI, openAI, searchClient, err := buildClients(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	registry := activity.NewRegistry()
	stages.NewActivities(blobs, videoAI, openAI, searchClient, logger).Register(registry)

	invoker := activity.WithPolicy(registry, activity.Policy{
		Timeout:       time.Duration(cfg.Workflow.StageTimeout) * time.Second,
		RetryAttempts: cfg.Workflow.RetryAttempts,
		RetryBackoff:  time.Duration(cfg.Workflow.RetryBackoff) * time.Second,
	})

	eng := engine.New(store, invoker, logger)
	manager := engine.NewManager(cfg, store, eng, logger)
	eventStarter := starter.New(store, logger)
	statusSvc := status.NewService(store, logger)

	d, err := daemon.New(cfg, store, manager, eventStarter, statusSvc, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return d, nil
}

func buildClients(cfg *config.Config, logger *slog.Logger) (*blobstore.Client, *videoai.Client, *openai.Client, *search.Client, error) {
	var (
		blobs        *blobstore.Client
		videoAI      *videoai.Client
		openAI       *openai.Client
		searchClient *search.Client
		err          error
	)

	if cfg.BlobStore.AccountURL != "" {
		timeout := time.Duration(cfg.BlobStore.RequestTimeout) * time.Second
		blobs, err = blobstore.New(cfg.BlobStore.AccountURL, timeout)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("blob store client: %w", err)
		}
	} else {
		logger.Info("blob store not configured, metadata extraction will be simulated",
			logging.String(logging.FieldComponent, "bootstrap"))
	}

	if cfg.VideoAI.Endpoint != "" {
		videoAI, err = videoai.New(cfg.VideoAI.Endpoint, cfg.VideoAI.APIKey, cfg.VideoAI.APIVersion)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("video analysis client: %w", err)
		}
	} else {
		logger.Info("video analysis not configured, content analysis will be simulated",
			logging.String(logging.FieldComponent, "bootstrap"))
	}

	if cfg.OpenAI.Endpoint != "" {
		openAI, err = openai.New(
			cfg.OpenAI.Endpoint,
			cfg.OpenAI.APIKey,
			cfg.OpenAI.APIVersion,
			cfg.OpenAI.EmbeddingDeployment,
			cfg.OpenAI.ChatDeployment,
		)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("openai client: %w", err)
		}
	} else {
		logger.Info("openai not configured, embeddings and insights will be simulated",
			logging.String(logging.FieldComponent, "bootstrap"))
	}

	if cfg.Search.Endpoint != "" {
		searchClient, err = search.New(cfg.Search.Endpoint, cfg.Search.APIKey, cfg.Search.APIVersion, cfg.Search.IndexName)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("search client: %w", err)
		}
	} else {
		logger.Info("search not configured, document upload will be simulated",
			logging.String(logging.FieldComponent, "bootstrap"))
	}

	return blobs, videoAI, openAI, searchClient, nil
}
