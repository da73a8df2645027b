package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/viant/afs"

	"github.com/viant/procflow"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model"
	"github.com/viant/procflow/service/dao/flow"
	"github.com/viant/procflow/service/meta"
)

// loadFlow loads and validates the flow document named by the first argument
func loadFlow(ctx context.Context, command *cli.Command) (*model.Flow, error) {
	location := command.Args().First()
	if location == "" {
		return nil, fmt.Errorf("flow location is required")
	}
	loader := flow.New(flow.WithMetaService(meta.New(afs.New(), "")))
	aFlow, err := loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	if err = aFlow.Validate(); err != nil {
		return nil, err
	}
	return aFlow, nil
}

// loadConfig reads the engine config and applies global flag overrides
func loadConfig(ctx context.Context, command *cli.Command) (*procflow.Config, error) {
	cfg := procflow.DefaultConfig()
	if URL := command.String("config"); URL != "" {
		var err error
		if cfg, err = procflow.LoadConfig(ctx, URL); err != nil {
			return nil, err
		}
	}
	if level := command.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format := command.String("log-format"); format != "" {
		cfg.Log.Format = format
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
