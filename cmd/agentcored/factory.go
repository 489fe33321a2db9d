package main

import (
	"context"
	"fmt"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/creation"
	"github.com/fibanez/agentcore/hooks"
	"github.com/fibanez/agentcore/instance"
	"github.com/fibanez/agentcore/middleware"
	"github.com/fibanez/agentcore/modelclient"
	"github.com/fibanez/agentcore/modelclient/anthropic"
	"github.com/fibanez/agentcore/modelclient/bedrock"
	"github.com/fibanez/agentcore/modelclient/openai"
	"github.com/fibanez/agentcore/rendezvous"
	"github.com/fibanez/agentcore/telemetry"
)

// buildModelClient constructs the modelclient.Client named by cfg.Provider.
func buildModelClient(ctx context.Context, cfg Config) (modelclient.Client, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return anthropic.NewFromAPIKey(cfg.APIKey, cfg.Model)
	case "openai":
		return openai.NewFromAPIKey(cfg.APIKey, cfg.Model)
	case "bedrock":
		awsCfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("agentcored: loading AWS config: %w", err)
		}
		return bedrock.New(bedrock.Options{
			Runtime:      bedrockruntime.NewFromConfig(awsCfg),
			DefaultModel: cfg.Model,
		})
	default:
		return nil, fmt.Errorf("agentcored: unknown provider %q", cfg.Provider)
	}
}

// rootSystemPrompt is the TaskManager's planning instruction: delegate work
// to start_task/edit_page rather than answering directly.
const rootSystemPrompt = "You are a task manager. Break the user's request into " +
	"worker tasks and delegate them via the start_task and edit_page tools " +
	"rather than answering directly."

const workerSystemPrompt = "You are a task worker. Complete the assigned task " +
	"and report your findings as plain text; you have no delegation tools of " +
	"your own."

// newInstanceFactory builds the manager.InstanceFactory that wires a
// TaskManager's start_task/edit_page tools back onto the same creation bus
// and rendezvous registry the manager itself consumes, and gives
// TaskWorker/PageBuilderWorker instances no delegation tools of their own
// (spec.md §3: only a TaskManager may spawn further agents).
func newInstanceFactory(model modelclient.Client, bus *creation.Bus, reg *rendezvous.Registry, uiEvents hooks.Bus, tel telemetry.Bundle) func(creation.Request, agent.Type) instance.Options {
	return func(req creation.Request, typ agent.Type) instance.Options {
		if typ.IsManager() {
			return instance.Options{
				Model:        model,
				SystemPrompt: rootSystemPrompt,
				Tools: []instance.Tool{
					&startTaskTool{bus: bus, rendezvous: reg, waitFor: rendezvousWait},
					&editPageTool{bus: bus, rendezvous: reg, waitFor: rendezvousWait},
				},
				Middleware: middleware.NewStack(middleware.NewAutoAnalysisLayerWithDefaults()),
				UIEvents:   uiEvents,
				Telemetry:  tel,
				MaxTokens:  4096,
			}
		}
		return instance.Options{
			Model:        model,
			SystemPrompt: workerSystemPrompt,
			Middleware:   middleware.NewStack(middleware.NewAutoAnalysisLayerWithDefaults()),
			UIEvents:     uiEvents,
			Telemetry:    tel,
			MaxTokens:    4096,
		}
	}
}

const rendezvousWait = rendezvous.DefaultTimeout
