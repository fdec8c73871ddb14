package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/timmy/kbsync/internal/awsclient"
	"github.com/timmy/kbsync/internal/config"
	"github.com/timmy/kbsync/internal/domain"
	"github.com/timmy/kbsync/internal/extract"
	"github.com/timmy/kbsync/internal/logger"
	"github.com/timmy/kbsync/internal/orchestrator"
	"github.com/timmy/kbsync/internal/remote"
	"github.com/timmy/kbsync/internal/repository"
	"github.com/timmy/kbsync/internal/sink"
	"github.com/timmy/kbsync/internal/storage"
	"github.com/urfave/cli/v2"
)

var errNoSource = errors.New("no descriptor source: set --stack-name, --descriptors, discovery.stack_name or discovery.descriptor_file")

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to load config: %v", err), 2)
	}
	if v := c.String("stack-name"); v != "" {
		cfg.Discovery.StackName = v
		cfg.Discovery.DescriptorFile = ""
	}
	if v := c.String("descriptors"); v != "" {
		if c.String("stack-name") != "" {
			return nil, cli.Exit("--stack-name and --descriptors are mutually exclusive", 2)
		}
		cfg.Discovery.DescriptorFile = v
		cfg.Discovery.StackName = ""
	}
	return cfg, nil
}

func loadAWS(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsclient.LoadConfig(ctx, &cfg.AWS)
	if err != nil {
		return aws.Config{}, cli.Exit(err.Error(), 2)
	}
	return awsCfg, nil
}

func descriptorSource(cfg *config.DiscoveryConfig, awsCfg aws.Config) (extract.DescriptorSource, error) {
	switch {
	case cfg.DescriptorFile != "":
		return extract.NewFileSource(cfg.DescriptorFile), nil
	case cfg.StackName != "":
		return extract.NewStackOutputSource(awsCfg, cfg.StackName), nil
	default:
		return nil, errNoSource
	}
}

// discover reads the descriptors and turns them into job specs.
func discover(ctx context.Context, cfg *config.Config, awsCfg aws.Config) ([]extract.Descriptor, []domain.JobSpec, error) {
	src, err := descriptorSource(&cfg.Discovery, awsCfg)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 2)
	}

	descriptors, err := src.Descriptors(ctx)
	if err != nil {
		return nil, nil, err
	}
	specs, err := extract.Specs(descriptors)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 2)
	}
	return descriptors, specs, nil
}

func newRemoteClient(cfg *config.Config, awsCfg aws.Config) (remote.Client, error) {
	var client remote.Client
	switch cfg.Remote.Provider {
	case "http":
		httpClient, err := remote.NewHTTPClient(&remote.HTTPConfig{
			BaseURL: cfg.Remote.BaseURL,
			APIKey:  cfg.Remote.APIKey,
			Timeout: cfg.Remote.Timeout,
		})
		if err != nil {
			return nil, cli.Exit(err.Error(), 2)
		}
		client = httpClient
	default:
		client = remote.NewBedrockClient(awsCfg, cfg.AWS.Endpoint)
	}
	return remote.NewRateLimited(client, cfg.Remote.RequestsPerSecond, cfg.Remote.Burst), nil
}

func newOrchestrator(client remote.Client, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(client,
		orchestrator.WithLaunchConcurrency(cfg.Orchestrator.LaunchConcurrency),
		orchestrator.WithTriggerTimeout(cfg.Remote.Timeout),
	)
}

func pollPolicy(cfg *config.PollConfig) orchestrator.PollPolicy {
	return orchestrator.PollPolicy{
		PollInterval:           cfg.Interval,
		RetryBackoff:           cfg.RetryBackoff,
		MaxConsecutiveFailures: cfg.MaxConsecutiveFailures,
		MaxElapsed:             cfg.MaxElapsed,
	}
}

// newSinks builds the enabled report destinations. The returned cleanup
// releases the database handle, if one was opened.
func newSinks(ctx context.Context, cfg *config.Config, descriptors []extract.Descriptor) (sink.Multi, func(), error) {
	cleanup := func() {}
	var sinks sink.Multi

	if cfg.Report.File != "" {
		sinks = append(sinks, sink.NewFileSink(cfg.Report.File))
	}
	if cfg.Report.AgentIDsFile != "" {
		sinks = append(sinks, sink.NewAgentIDsWriter(cfg.Report.AgentIDsFile, extract.AgentRefs(descriptors)))
	}

	if s3 := cfg.Report.S3; s3.Enabled {
		store, err := storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(s3.Type),
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			UseSSL:    s3.UseSSL,
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			PublicURL: s3.PublicURL,
		})
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize report storage: %w", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, cleanup, fmt.Errorf("failed to ensure report bucket: %w", err)
		}
		sinks = append(sinks, sink.NewObjectSink(store, s3.Prefix))
	}

	if cfg.Report.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if sqlDB, err := db.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					logger.Warn("Failed to close database: %v", err)
				}
			}
		}
		sinks = append(sinks, sink.NewDatabaseSink(repository.NewReportRepository(db)))
	}

	return sinks, cleanup, nil
}
