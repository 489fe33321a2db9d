package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/fibanez/agentcore/agent"
	"github.com/fibanez/agentcore/creation"
	"github.com/fibanez/agentcore/hooks"
	"github.com/fibanez/agentcore/manager"
	"github.com/fibanez/agentcore/rendezvous"
	"github.com/fibanez/agentcore/session"
	inmemsession "github.com/fibanez/agentcore/session/inmem"
	redissession "github.com/fibanez/agentcore/session/redis"
	"github.com/fibanez/agentcore/telemetry"
)

func serveCmd() *cobra.Command {
	var task string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "boot a TaskManager and run it until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), task)
		},
	}
	cmd.Flags().StringVar(&task, "task", "", "initial task posted to the root TaskManager; if empty, reads one line from stdin")
	return cmd
}

func runServe(parentCtx context.Context, task string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(parentCtx, log.WithFormat(format))
	if cfg.Verbose {
		ctx = log.Context(ctx, log.WithDebug())
	}
	tel := telemetry.NewClueBundle()

	model, err := buildModelClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("agentcored: building model client: %w", err)
	}

	store, err := buildSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("agentcored: building session store: %w", err)
	}
	if _, err := store.CreateSession(ctx, cfg.SessionID, time.Now()); err != nil {
		return fmt.Errorf("agentcored: creating session %q: %w", cfg.SessionID, err)
	}

	bus := creation.NewBus(creation.Options{})
	reg := rendezvous.NewRegistry()
	reg.OnNoWaiter(func(workerID agent.ID) {
		tel.Logger.Warn(ctx, "agentcored: worker completed with no waiter", "worker_id", workerID.String())
	})
	uiEvents := hooks.NewBus()

	m := manager.New(manager.Options{
		Factory:    newInstanceFactory(model, bus, reg, uiEvents, tel),
		Creation:   bus,
		Rendezvous: reg,
		UIEvents:   uiEvents,
		Sessions:   store,
		SessionID:  cfg.SessionID,
		Telemetry:  tel,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go m.Run(runCtx)

	root := m.SpawnManager(runCtx, agent.NewMetadata("root", "interactive task manager", cfg.Model, time.Now()))
	tel.Logger.Info(ctx, "agentcored: root task manager started", "agent_id", root.ID().String())

	if task == "" {
		task, err = readTaskFromStdin()
		if err != nil {
			return err
		}
	}
	if task != "" {
		if err := root.PostUserMessage(task); err != nil {
			return fmt.Errorf("agentcored: posting initial task: %w", err)
		}
	}

	go drainUIEvents(runCtx, uiEvents, tel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		tel.Logger.Info(ctx, "agentcored: received signal, shutting down", "signal", sig.String())
	case <-runCtx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return m.Shutdown(shutdownCtx)
}

func readTaskFromStdin() (string, error) {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return "", nil
	}
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	return "", scanner.Err()
}

func buildSessionStore(cfg Config) (session.Store, error) {
	if cfg.RedisAddr == "" {
		return inmemsession.New(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return redissession.New(rdb, redissession.Options{})
}

func drainUIEvents(ctx context.Context, bus hooks.Bus, tel telemetry.Bundle) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, event := range hooks.DrainAll(bus) {
				tel.Logger.Debug(ctx, "agentcored: ui event", "kind", event.Kind.String(), "worker_id", event.WorkerID.String())
			}
		}
	}
}
