package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/remex-io/remex/internal/agent"
	"github.com/remex-io/remex/internal/bulk"
	"github.com/remex-io/remex/internal/config"
	"github.com/remex-io/remex/internal/constants"
	"github.com/remex-io/remex/internal/events"
	"github.com/remex-io/remex/internal/explorer"
	"github.com/remex-io/remex/internal/progress"
	"github.com/remex-io/remex/internal/transfer"
	"github.com/remex-io/remex/internal/winpath"
)

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if agentURL != "" {
		cfg.AgentURL = agentURL
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newClient builds an agent client from the merged configuration.
func newClient() (*agent.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	client, err := agent.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create agent client: %w", err)
	}
	return client, cfg, nil
}

// workspace bundles the client-side state commands wire up around one
// agent client. One-shot commands use a slice of it; explore uses all
// of it.
type workspace struct {
	cfg         *config.Config
	client      *agent.Client
	bus         *events.Bus
	cache       *explorer.Cache
	selection   *explorer.Selection
	clipboard   *explorer.Clipboard
	queue       *transfer.Queue
	coordinator *bulk.Coordinator
}

func newWorkspace() (*workspace, error) {
	client, cfg, err := newClient()
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(constants.EventBusDefaultBuffer)
	cache := explorer.NewCache(client, bus)
	selection := explorer.NewSelection(bus)
	clipboard := explorer.NewClipboard(client, cache, selection, bus)
	queue := transfer.NewQueue(bus)
	coordinator := bulk.NewCoordinator(client, cache, selection, queue, GetLogger())

	return &workspace{
		cfg:         cfg,
		client:      client,
		bus:         bus,
		cache:       cache,
		selection:   selection,
		clipboard:   clipboard,
		queue:       queue,
		coordinator: coordinator,
	}, nil
}

// normalizeRemote canonicalizes a user-typed remote path. The empty
// string stays empty: it is the drive-listing sentinel.
func normalizeRemote(path string) string {
	return winpath.Clean(path)
}

// normalizeAll canonicalizes a slice of user-typed remote paths.
func normalizeAll(paths []string) []string {
	result := make([]string, len(paths))
	for i, p := range paths {
		result[i] = normalizeRemote(p)
	}
	return result
}

// lister is the slice of the agent client resolveEntry needs.
type lister interface {
	List(ctx context.Context, path string) ([]agent.Entry, error)
}

// resolveEntry looks a path up in its parent's listing. The agent has
// no stat endpoint, so the listing is the only source of entry
// metadata. Roots resolve without a lookup; everything is a folder up
// there.
func resolveEntry(ctx context.Context, client lister, path string) (agent.Entry, error) {
	if winpath.IsRoot(path) {
		return agent.Entry{Name: winpath.Leaf(path), Path: winpath.Normalize(path), IsDir: true}, nil
	}

	parent := winpath.ParentOf(path)
	entries, err := client.List(ctx, parent)
	if err != nil {
		return agent.Entry{}, fmt.Errorf("failed to list %s: %w", parent, err)
	}

	want := winpath.Normalize(path)
	for _, entry := range entries {
		if strings.EqualFold(winpath.Normalize(entry.Path), want) {
			return entry, nil
		}
	}
	return agent.Entry{}, fmt.Errorf("%s not found", path)
}

// spinWhile renders an indeterminate spinner while fn runs. Used for
// remote operations that report nothing until the agent answers.
func spinWhile(description string, fn func() error) error {
	reporter := progress.NewCLIProgress()
	reporter.Start(-1, description)

	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(120 * time.Millisecond)
	defer ticker.Stop()

	var ticks int64
	for {
		select {
		case err := <-done:
			reporter.Finish()
			return err
		case <-ticker.C:
			ticks++
			reporter.Update(ticks)
		}
	}
}
