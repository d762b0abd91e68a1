package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mosaic/internal/agent"
	"mosaic/internal/catalog"
	"mosaic/internal/config"
	"mosaic/internal/db"
	"mosaic/internal/discovery"
	"mosaic/internal/gateway"
	"mosaic/internal/history"
	"mosaic/internal/llm"
	"mosaic/internal/tools"
	"mosaic/internal/trace"
)

var addr string

var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	RunE:  run,
}

func init() {
	Cmd.Flags().StringVarP(&addr, "addr", "a", "", "override gateway listen address")
}

// backend is what a serving provider must offer: generation plus model
// discovery.
type backend interface {
	llm.Provider
	llm.ModelLister
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Gateway.Addr = addr
	}

	shutdownTrace, err := trace.Init(ctx, trace.Config{
		Endpoint: cfg.Trace.Endpoint,
		URLPath:  cfg.Trace.URLPath,
		APIKey:   cfg.Trace.APIKey,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdownTrace = func(context.Context) error { return nil }
	}

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	store := history.NewStore(database)

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	cache := discovery.NewCached(provider, time.Duration(cfg.Discovery.RefreshSeconds)*time.Second)

	registry := tools.NewRegistry()
	sources := tools.BuiltinSources(cfg)
	if len(cfg.MCP.Servers) > 0 {
		bridge, err := tools.NewMCPBridge(ctx, cfg.MCP.Servers)
		if err != nil {
			slog.Warn("mcp bridge unavailable", "error", err)
		} else {
			defer bridge.Close()
			sources = append(sources, bridge)
		}
	}
	if err := registry.Load(ctx, sources...); err != nil {
		return fmt.Errorf("loading tools: %w", err)
	}
	slog.Info("tools registered", "count", registry.Len())

	cat := catalog.New(agent.Modes(), cache)
	if err := cat.Refresh(ctx); err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}

	pool := agent.NewPool(runnerFactory(provider, store, registry), cache)
	controller := agent.NewController(pool, cache)
	router := gateway.NewRouter(cat, pool, controller)
	srv := gateway.NewServer(router, cat, controller, registry, store, cache)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go refreshLoop(ctx, cat, time.Duration(cfg.Discovery.RefreshSeconds)*time.Second)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting gateway", "addr", cfg.Gateway.Addr)
		errCh <- srv.ListenAndServe(cfg.Gateway.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("gateway shutdown", "error", err)
	}
	if err := shutdownTrace(shutdownCtx); err != nil {
		slog.Warn("trace shutdown", "error", err)
	}
	return nil
}

func buildProvider(cfg *config.Config) (backend, error) {
	llmCfg, ok := cfg.LLMs[cfg.DefaultLLM]
	if !ok {
		return nil, fmt.Errorf("no llm config named %q", cfg.DefaultLLM)
	}

	timeout := time.Duration(cfg.Discovery.TimeoutSeconds) * time.Second
	switch llmCfg.Type {
	case "ollama":
		return llm.NewOllama(llmCfg.BaseURL, timeout)
	case "openai":
		return llm.NewOpenAI(llmCfg.BaseURL, llmCfg.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown llm type %q", llmCfg.Type)
	}
}

func runnerFactory(provider llm.Provider, store *history.Store, registry *tools.Registry) agent.RunnerFactory {
	return func(modeID string) (agent.Runner, error) {
		switch modeID {
		case "chain":
			return agent.NewChainRunner(provider, store), nil
		case "agent":
			return agent.NewReactRunner(provider, store, registry), nil
		case "graph":
			return agent.NewGraphRunner(provider, store, registry), nil
		default:
			return nil, fmt.Errorf("%w: %q", agent.ErrUnknownMode, modeID)
		}
	}
}

// refreshLoop rebuilds the catalog on an interval so newly pulled
// models show up without a restart.
func refreshLoop(ctx context.Context, cat *catalog.Catalog, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cat.Refresh(ctx); err != nil {
				slog.Warn("catalog refresh failed", "error", err)
			}
		}
	}
}
