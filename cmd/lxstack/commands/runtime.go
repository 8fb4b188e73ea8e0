package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lxstack/lxstack/pkg/config"
	"github.com/lxstack/lxstack/pkg/engine"
	"github.com/lxstack/lxstack/pkg/lxd"
	"github.com/lxstack/lxstack/pkg/stores"
	"github.com/lxstack/lxstack/pkg/telemetry"
)

// runtime bundles everything a command needs after setup: telemetry, the
// local store, the fetched stack, and the hypervisor session.
type runtime struct {
	runID   string
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	store   *stores.Store
	stack   *engine.Stack
	client  *lxd.Client
	key     string
}

// options resolves the configuration-service settings: flags first, then the
// local configuration file, then built-in defaults.
func options() (config.Options, error) {
	fileOpts, err := config.LoadFile(configurationFile)
	if err != nil {
		return config.Options{}, err
	}

	opts := config.Options{
		URL:          serviceURL,
		Levels:       levels,
		CacheSeconds: cacheSeconds,
		Key:          stackKey,
	}.Merge(fileOpts).Merge(config.Options{
		CacheSeconds: config.DefaultCacheSeconds,
		Key:          config.DefaultKey,
	})

	return opts, opts.Validate()
}

// setup builds the runtime. withHypervisor is false for commands that only
// read configuration (render, history) and never talk to LXD.
func setup(ctx context.Context, withHypervisor bool) (*runtime, error) {
	rt := &runtime{runID: uuid.NewString()}

	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = buildVersion
	cfg.Logging.Level = logLevel
	cfg.Tracing.Enabled = traceSpans

	rt.log = telemetry.NewLogger(cfg.Logging).WithRunID(rt.runID)

	metrics, err := telemetry.NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("setup metrics: %w", err)
	}
	rt.metrics = metrics

	tracer, err := telemetry.NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("setup tracer: %w", err)
	}
	rt.tracer = tracer

	opts, err := options()
	if err != nil {
		return nil, err
	}
	rt.key = opts.Key

	store, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	rt.store = store

	configClient, err := config.NewClient(opts, store, rt.log)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}

	stack, err := configClient.GetStack(ctx, opts.Key)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	rt.stack = stack

	if withHypervisor {
		client, err := lxd.NewClient(lxd.ClientConfig{
			SocketPath: socketPath,
			Logger:     rt.log,
			Metrics:    rt.metrics,
			Tracer:     rt.tracer,
		})
		if err != nil {
			rt.close(ctx)
			return nil, err
		}
		rt.client = client
	}

	return rt, nil
}

// close flushes telemetry and releases the store.
func (rt *runtime) close(ctx context.Context) {
	rt.metrics.LogSummary(rt.log)
	if err := rt.tracer.Shutdown(ctx); err != nil {
		rt.log.WithError(err).Warn("tracer shutdown failed")
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.log.WithError(err).Warn("closing state store failed")
		}
	}
}

// openStore opens (and migrates) the local state database.
func openStore(ctx context.Context) (*stores.Store, error) {
	dir := stateDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve state directory: %w", err)
		}
		dir = filepath.Join(home, ".lxstack")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	store, err := stores.NewStore(stores.Config{Path: filepath.Join(dir, "lxstack.db")})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// runLifecycle executes one orchestrator command end to end, recording the
// run in the local store.
func runLifecycle(ctx context.Context, command engine.Command) error {
	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	run := &stores.Run{
		ID:        rt.runID,
		Command:   string(command),
		Key:       rt.key,
		Status:    stores.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := rt.store.CreateRun(ctx, run); err != nil {
		rt.log.WithError(err).Warn("recording run failed")
	}

	rt.log.WithField("command", command).Info("applying stack")
	runErr := engine.New(rt.client).Run(ctx, command, rt.stack)

	status, errMsg := stores.RunStatusCompleted, ""
	if runErr != nil {
		status, errMsg = stores.RunStatusFailed, runErr.Error()
	}
	if err := rt.store.FinishRun(ctx, rt.runID, status, errMsg); err != nil {
		rt.log.WithError(err).Warn("recording run outcome failed")
	}

	if runErr != nil {
		return runErr
	}
	rt.log.WithField("command", command).Info("stack applied")
	return nil
}
