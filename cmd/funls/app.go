package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"funls/internal/complete"
	"funls/internal/core/config"
	"funls/internal/core/errors"
	"funls/internal/data/history"
	"funls/internal/index"
	"funls/internal/lsp"
	"funls/internal/shared/observability"
	"funls/internal/watcher"
)

// summaryHistoryLimit caps how many prior scans the one-shot report lists.
const summaryHistoryLimit = 5

type App struct {
	Config   *config.Config
	Index    *index.Service
	Resolver *complete.Resolver

	history    *history.Store
	watch      *watcher.Watcher
	obsServer  *observability.Server
	teaProgram *tea.Program

	shutdownTracing func(context.Context) error

	// mu guards lastSummary and teaProgram: rescans arrive from both the
	// watcher goroutine and the protocol read loop.
	mu          sync.Mutex
	lastSummary index.ScanSummary
}

func NewApp(cfg *config.Config) (*App, error) {
	roots := index.ComputeSearchRoots(cfg.Workspace.Root, cfg.Search.ExtraPaths, cfg.Search.UseEnvPath)
	slog.Info("search roots resolved", "roots", roots)

	svc, err := index.NewService(roots, index.Options{
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: cfg.Exclude.Files,
		Workers:      cfg.Scan.Workers,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "initialize index")
	}

	app := &App{
		Config:   cfg,
		Index:    svc,
		Resolver: complete.NewResolver(svc),
	}

	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path)
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeInternal, "open scan history"),
				errors.CtxPath, cfg.DB.Path)
		}
		app.history = store
	}

	if cfg.Observability.Enabled {
		app.obsServer = observability.NewServer(cfg.Observability.Address, svc.ModuleCount)
		app.obsServer.Start()

		shutdown, err := observability.SetupTracing(context.Background(), cfg.Observability.OTLPEndpoint, VERSION)
		if err != nil {
			slog.Warn("tracing setup failed", "error", err)
		} else {
			app.shutdownTracing = shutdown
		}
	}

	return app, nil
}

func (a *App) InitialScan(ctx context.Context) error {
	summary, err := a.Index.FullScan(ctx)
	if err != nil {
		return errors.AddContext(err, errors.CtxOperation, "initial_scan")
	}
	a.mu.Lock()
	a.lastSummary = summary
	a.mu.Unlock()
	a.recordScan(summary)
	slog.Info("initial scan complete",
		"files", summary.Files,
		"modules", summary.Modules,
		"symbols", summary.Symbols,
		"duration", summary.Duration)
	return nil
}

// Rescan runs a full scan; watcher batches and didClose both land here.
func (a *App) Rescan() {
	summary, err := a.Index.FullScan(context.Background())
	if err != nil {
		slog.Error("rescan failed", "error", err)
		return
	}
	a.mu.Lock()
	a.lastSummary = summary
	program := a.teaProgram
	a.mu.Unlock()
	a.recordScan(summary)

	if program != nil {
		program.Send(scanMsg{summary: summary, modules: a.moduleItems()})
	}
}

func (a *App) recordScan(summary index.ScanSummary) {
	if a.history == nil {
		return
	}
	scan := history.Scan{
		ID:           summary.Generation,
		WorkspaceKey: a.Config.Workspace.Root,
		Timestamp:    time.Now().UTC(),
		Files:        summary.Files,
		Modules:      summary.Modules,
		Symbols:      summary.Symbols,
		Duration:     summary.Duration,
	}
	if strings.TrimSpace(scan.ID) == "" {
		scan.ID = uuid.NewString()
	}
	if err := a.history.SaveScan(scan); err != nil {
		slog.Warn("failed to record scan", "error", err)
	}
}

// ReloadSearchPaths recomputes the search roots from the current
// configuration and reconciles the index against them.
func (a *App) ReloadSearchPaths() {
	roots := index.ComputeSearchRoots(a.Config.Workspace.Root, a.Config.Search.ExtraPaths, a.Config.Search.UseEnvPath)
	a.Index.SetRoots(roots)
	slog.Info("search roots reloaded", "roots", roots)
	a.Rescan()
}

func (a *App) StartWatcher() error {
	if !a.Config.Watch.Enabled {
		return nil
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		index.SourceExtension,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) {
			slog.Debug("change batch", "count", len(paths))
			a.Rescan()
		},
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "initialize watcher")
	}

	if err := w.Watch(a.Index.Roots()); err != nil {
		w.Close()
		return errors.Wrap(err, errors.CodeInternal, "watch roots")
	}
	a.watch = w
	return nil
}

// RunServer serves LSP over stdio until the client disconnects.
func (a *App) RunServer() error {
	var perMinute, burst int
	if a.Config.Server.RateLimit.Enabled {
		perMinute = a.Config.Server.RateLimit.RequestsPerMinute
		burst = a.Config.Server.RateLimit.Burst
	}

	srv := lsp.NewServer(os.Stdin, os.Stdout, a.Index, a.Resolver, lsp.Options{
		Version:           VERSION,
		OnRescan:          a.Rescan,
		OnConfigChange:    a.ReloadSearchPaths,
		RequestsPerMinute: perMinute,
		RateBurst:         burst,
	})
	return srv.Run()
}

func (a *App) RunUI() error {
	a.mu.Lock()
	m := initialModel(a.lastSummary, a.moduleItems())
	a.teaProgram = tea.NewProgram(m, tea.WithAltScreen())
	program := a.teaProgram
	a.mu.Unlock()

	_, err := program.Run()
	return err
}

func (a *App) moduleItems() []moduleItem {
	snapshot := a.Index.Snapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]moduleItem, 0, len(names))
	for _, name := range names {
		table := snapshot[name]
		items = append(items, moduleItem{
			name: name,
			desc: fmt.Sprintf("%d symbols | %d classes | %d functions",
				table.SymbolCount(), len(table.Classes), len(table.Functions)),
		})
	}
	return items
}

// PrintSummary writes the one-shot scan report for --once mode.
func (a *App) PrintSummary() {
	a.writeSummary(os.Stdout)
}

func (a *App) writeSummary(w io.Writer) {
	a.mu.Lock()
	s := a.lastSummary
	a.mu.Unlock()

	fmt.Fprintf(w, "funls scan: %d files, %d modules, %d symbols in %v\n",
		s.Files, s.Modules, s.Symbols, s.Duration.Round(time.Millisecond))
	for _, name := range a.Index.ModuleNames() {
		if table, ok := a.Index.Lookup(name); ok {
			fmt.Fprintf(w, "  %-40s %d symbols\n", name, table.SymbolCount())
		}
	}

	if a.history == nil {
		return
	}
	scans, err := a.history.LoadScans(a.Config.Workspace.Root, time.Time{})
	if err != nil {
		slog.Warn("failed to load scan history", "error", err)
		return
	}
	if len(scans) > summaryHistoryLimit {
		scans = scans[len(scans)-summaryHistoryLimit:]
	}
	fmt.Fprintf(w, "recent scans:\n")
	for _, scan := range scans {
		fmt.Fprintf(w, "  %s  %d modules, %d symbols in %v\n",
			scan.Timestamp.Format(time.RFC3339), scan.Modules, scan.Symbols, scan.Duration)
	}
}

func (a *App) Close() {
	if a.watch != nil {
		if err := a.watch.Close(); err != nil {
			slog.Warn("watcher close failed", "error", err)
		}
	}
	if a.obsServer != nil || a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if a.obsServer != nil {
			if err := a.obsServer.Stop(ctx); err != nil {
				slog.Warn("observability server stop failed", "error", err)
			}
		}
		if a.shutdownTracing != nil {
			if err := a.shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown failed", "error", err)
			}
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Warn("history close failed", "error", err)
		}
	}
}
