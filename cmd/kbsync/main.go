package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/kbsync/internal/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error("kbsync failed: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func newApp() *cli.App {
	sourceFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file",
			EnvVars: []string{"CONFIG_PATH"},
		},
		&cli.StringFlag{
			Name:    "stack-name",
			Aliases: []string{"s"},
			Usage:   "CloudFormation stack whose outputs describe the agents",
		},
		&cli.StringFlag{
			Name:    "descriptors",
			Aliases: []string{"d"},
			Usage:   "JSON file with agent descriptors, used instead of the stack",
		},
	}

	return &cli.App{
		Name:  "kbsync",
		Usage: "Start knowledge base ingestion jobs and wait for them to finish",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (json, text)",
				Value:   "json",
				EnvVars: []string{"LOG_FORMAT"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Launch one ingestion job per data source, poll all of them and write the report",
				Action: runCommand,
				Flags: append(sourceFlags,
					&cli.StringFlag{
						Name:  "report",
						Usage: "Report file path (overrides report.file)",
					},
					&cli.BoolFlag{
						Name:  "fail-on-error",
						Usage: "Exit non-zero when any job did not succeed",
					},
				),
			},
			{
				Name:   "specs",
				Usage:  "Print the job specs that run would launch",
				Action: specsCommand,
				Flags:  sourceFlags,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	envCfg := logger.LoadFromEnv()
	envCfg.Level = c.String("log-level")
	envCfg.Format = c.String("log-format")
	envCfg.ServiceName = "kbsync"
	logger.SetDefaultLogger(logger.NewFromEnv(envCfg))
	return nil
}

func runCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.SetComponent(ctx, "cli")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if path := c.String("report"); path != "" {
		cfg.Report.File = path
	}

	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return err
	}

	descriptors, specs, err := discover(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	logger.With(logger.Fields{"descriptors": len(descriptors)}).
		WithCount(len(specs)).Info(ctx, "Discovered ingestion targets")

	client, err := newRemoteClient(cfg, awsCfg)
	if err != nil {
		return err
	}
	orch, err := newOrchestrator(client, cfg)
	if err != nil {
		return err
	}

	sinks, cleanup, err := newSinks(ctx, cfg, descriptors)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := orch.Run(ctx, specs, pollPolicy(&cfg.Poll))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 2)
	}

	// Delivery must finish even when the run was interrupted.
	if err := sinks.Deliver(context.WithoutCancel(ctx), report); err != nil {
		return err
	}

	if c.Bool("fail-on-error") && !report.AllSucceeded() {
		return cli.Exit(fmt.Sprintf("report %s: not every job succeeded", report.ID), 1)
	}
	return nil
}

func specsCommand(c *cli.Context) error {
	ctx := logger.SetComponent(c.Context, "cli")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		return err
	}
	_, specs, err := discover(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(specs)
}
