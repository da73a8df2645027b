package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/urfave/cli/v3"

	"github.com/viant/procflow"
	"github.com/viant/procflow/logging"
	"github.com/viant/procflow/model/execution"
	"github.com/viant/procflow/service/approval"
	"github.com/viant/procflow/service/approval/memory"
	"github.com/viant/procflow/service/event"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Aliases:   []string{"r"},
		Usage:     "Run a flow and print the final execution",
		ArgsUsage: "<flow.yaml>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Usage: "Input data as a JSON object",
				Value: "{}",
			},
			&cli.BoolFlag{
				Name:  "auto-approve",
				Usage: "Approve every approval request",
			},
			&cli.StringFlag{
				Name:  "auto-reject",
				Usage: "Reject every approval request with the given reason",
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Store kind (memory, fs, redis)",
				Sources: cli.EnvVars("PROCFLOW_STORE"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL of the fs store",
				Sources: cli.EnvVars("PROCFLOW_BASE_URL"),
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "Print lifecycle events as JSON lines",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Maximum time to wait for the execution",
				Value: 10 * time.Minute,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(ctx, command)
			if err != nil {
				return err
			}
			if kind := command.String("store"); kind != "" {
				cfg.Store.Kind = kind
			}
			if baseURL := command.String("base-url"); baseURL != "" {
				cfg.Store.BaseURL = baseURL
			}
			input := map[string]interface{}{}
			if err = json.Unmarshal([]byte(command.String("input")), &input); err != nil {
				return fmt.Errorf("invalid input: %w", err)
			}
			aFlow, err := loadFlow(ctx, command)
			if err != nil {
				return err
			}

			logger := logging.WithModule("procflow-run")
			events := event.NewService(event.WithLogger(logger))
			approvals := memory.New(memory.WithPublisher(events), memory.WithLogger(logger))
			options := []procflow.Option{
				procflow.WithEventService(events),
				procflow.WithApprovalService(approvals),
			}
			if command.Bool("events") {
				pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermill.NewStdLogger(false, false))
				defer pubSub.Close()
				messages, err := pubSub.Subscribe(ctx, eventTopic(cfg))
				if err != nil {
					return err
				}
				go printEvents(command, messages, logger)
				options = append(options, procflow.WithEventSink(pubSub, eventTopic(cfg)))
			}
			srv, err := procflow.NewFromConfig(cfg, options...)
			if err != nil {
				return err
			}
			rt := srv.Runtime()
			if err = rt.Start(ctx); err != nil {
				return err
			}
			defer rt.Shutdown()

			switch {
			case command.Bool("auto-approve"):
				defer approval.AutoApprove(ctx, approvals, 50*time.Millisecond)()
			case command.String("auto-reject") != "":
				defer approval.AutoReject(ctx, approvals, command.String("auto-reject"), 50*time.Millisecond)()
			}
			if _, err = rt.RegisterFlow(ctx, aFlow); err != nil {
				return err
			}
			id, err := rt.Execute(ctx, aFlow.ID, input)
			if err != nil {
				return err
			}
			exec, err := rt.Wait(ctx, id, command.Duration("timeout"))
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(command.Root().Writer)
			encoder.SetIndent("", "  ")
			if err = encoder.Encode(exec); err != nil {
				return err
			}
			if exec.Status != execution.StatusCompleted {
				return fmt.Errorf("execution %s finished with status %s", exec.ID, exec.Status)
			}
			return nil
		},
	}
}

func eventTopic(cfg *procflow.Config) string {
	if cfg.Events.Topic != "" {
		return cfg.Events.Topic
	}
	return event.DefaultTopic
}

// printEvents writes events consumed from the sink topic to the error writer
func printEvents(command *cli.Command, messages <-chan *message.Message, logger *slog.Logger) {
	for msg := range messages {
		msg.Ack()
		e, err := event.Decode(msg)
		if err != nil {
			logger.Warn("failed to decode event", logging.Error(err))
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		fmt.Fprintln(command.Root().ErrWriter, string(data))
	}
}
