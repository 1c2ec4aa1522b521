package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"funls/internal/lang"
	"funls/internal/shared/observability"
	"funls/internal/shared/util"
)

const (
	// SourceExtension identifies Fun source files.
	SourceExtension = ".fun"
	// InitializerName is the package-initializer filename; the module then
	// names the containing directory.
	InitializerName = "__init__.fun"

	defaultWorkers = 8
)

// skipDirs are housekeeping directories never descended into during a scan.
// Hidden entries are skipped independently of this set.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	"build":        true,
	"dist":         true,
	"out":          true,
}

// Service owns the moduleName -> SymbolTable mapping for the lifetime of
// the hosting session. It is constructed once at session start and handed
// to collaborators by reference; there is no ambient global index.
type Service struct {
	mu      sync.RWMutex
	modules map[string]*lang.SymbolTable

	rootsMu sync.RWMutex
	roots   []string

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	workers      int
}

// Options tunes scan behavior. Exclude patterns apply to base names, the
// worker count bounds concurrent read+parse during a full scan.
type Options struct {
	ExcludeDirs  []string
	ExcludeFiles []string
	Workers      int
}

// ScanSummary describes one completed full scan.
type ScanSummary struct {
	Generation string
	Files      int
	Modules    int
	Symbols    int
	Duration   time.Duration
}

func NewService(roots []string, opts Options) (*Service, error) {
	dirGlobs := make([]glob.Glob, 0, len(opts.ExcludeDirs))
	for _, pattern := range opts.ExcludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", pattern, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(opts.ExcludeFiles))
	for _, pattern := range opts.ExcludeFiles {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", pattern, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	return &Service{
		modules:      make(map[string]*lang.SymbolTable),
		roots:        append([]string(nil), roots...),
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
		workers:      workers,
	}, nil
}

// SetRoots replaces the search roots, used on configuration change. The
// caller is expected to trigger a full scan afterwards.
func (s *Service) SetRoots(roots []string) {
	s.rootsMu.Lock()
	defer s.rootsMu.Unlock()
	s.roots = append([]string(nil), roots...)
}

func (s *Service) Roots() []string {
	s.rootsMu.RLock()
	defer s.rootsMu.RUnlock()
	return append([]string(nil), s.roots...)
}

// ComputeModuleName maps a file path to its dotted module name using the
// first search root that is an ancestor of the file. Files with the wrong
// extension, or outside every root, are not indexable.
func (s *Service) ComputeModuleName(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	for _, root := range s.Roots() {
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			continue
		}

		// The first matching root decides; a wrong extension under it is a
		// rejection, not a fallthrough to lower-priority roots.
		if filepath.Ext(rel) != SourceExtension {
			return "", false
		}

		parts := strings.Split(rel, string(os.PathSeparator))
		last := parts[len(parts)-1]
		if last == InitializerName {
			parts = parts[:len(parts)-1]
		} else {
			parts[len(parts)-1] = strings.TrimSuffix(last, SourceExtension)
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, "."), true
	}

	return "", false
}

// FullScan clears the index and repopulates it from every search root.
// File reads and parses run on a bounded worker pool; a failure for one
// file is logged and that file is omitted. There is no cancellation token:
// a newly triggered scan does not abort an in-flight one, and on a
// module-name collision the last finisher wins the slot.
func (s *Service) FullScan(ctx context.Context) (ScanSummary, error) {
	ctx, span := observability.Tracer.Start(ctx, "index.FullScan")
	defer span.End()

	generation := uuid.NewString()
	start := time.Now()

	files := s.discover()

	s.mu.Lock()
	s.modules = make(map[string]*lang.SymbolTable, len(files))
	s.mu.Unlock()

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			s.indexFile(path)
		}(path)
	}
	wg.Wait()

	summary := ScanSummary{
		Generation: generation,
		Files:      len(files),
		Duration:   time.Since(start),
	}

	s.mu.RLock()
	summary.Modules = len(s.modules)
	for _, table := range s.modules {
		summary.Symbols += table.SymbolCount()
	}
	s.mu.RUnlock()

	observability.ScanDuration.Observe(summary.Duration.Seconds())
	observability.IndexedModules.Set(float64(summary.Modules))
	slog.Debug("full scan complete",
		"generation", generation,
		"files", summary.Files,
		"modules", summary.Modules,
		"duration", summary.Duration)

	return summary, nil
}

// UpdateDocument replaces a single module's table from in-memory text,
// used on document open and edit so completions reflect unsaved changes.
// It runs synchronously to completion before the next edit is handled.
func (s *Service) UpdateDocument(path, text string) (string, bool) {
	name, ok := s.ComputeModuleName(path)
	if !ok {
		return "", false
	}

	timer := prometheus.NewTimer(observability.ParsingDuration)
	table := lang.Extract(text)
	timer.ObserveDuration()

	s.mu.Lock()
	s.modules[name] = table
	s.mu.Unlock()
	return name, true
}

// Lookup returns the symbol table for a module name.
func (s *Service) Lookup(module string) (*lang.SymbolTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.modules[module]
	return table, ok
}

// ModuleNames returns all indexed module names in sorted order.
func (s *Service) ModuleNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return util.SortedStringKeys(s.modules)
}

// Snapshot returns a shallow copy of the module map. Tables are immutable
// once stored, so sharing the pointers is safe.
func (s *Service) Snapshot() map[string]*lang.SymbolTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*lang.SymbolTable, len(s.modules))
	for name, table := range s.modules {
		out[name] = table
	}
	return out
}

func (s *Service) ModuleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.modules)
}

func (s *Service) indexFile(path string) {
	name, ok := s.ComputeModuleName(path)
	if !ok {
		// Wrong extension or outside every root: excluded, not an error.
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read source file", "path", path, "error", err)
		return
	}

	timer := prometheus.NewTimer(observability.ParsingDuration)
	table := lang.Extract(string(content))
	timer.ObserveDuration()

	s.mu.Lock()
	s.modules[name] = table
	s.mu.Unlock()
}

// discover walks every search root and collects candidate source files.
func (s *Service) discover() []string {
	var files []string
	seen := make(map[string]bool)

	for _, root := range s.Roots() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Warn("scan error", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			base := filepath.Base(path)
			if d.IsDir() {
				if path != root && s.shouldSkipDir(base) {
					return filepath.SkipDir
				}
				return nil
			}

			if strings.HasPrefix(base, ".") || filepath.Ext(base) != SourceExtension {
				return nil
			}
			for _, g := range s.excludeFiles {
				if g.Match(base) {
					return nil
				}
			}

			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			slog.Warn("failed to walk search root", "root", root, "error", err)
		}
	}

	return files
}

func (s *Service) shouldSkipDir(base string) bool {
	if skipDirs[base] || strings.HasPrefix(base, ".") {
		return true
	}
	for _, g := range s.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}
