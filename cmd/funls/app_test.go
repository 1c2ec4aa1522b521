package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"funls/internal/core/config"
)

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(root string) *config.Config {
	cfg := config.Default()
	cfg.Workspace.Root = root
	return cfg
}

func TestAppInitialScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.fun", "fun run():\n    pass\n")
	writeSource(t, tmpDir, "core/util.fun", "class Helper:\n    fun assist(this):\n        pass\n")

	app, err := NewApp(testConfig(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	if app.lastSummary.Modules != 2 {
		t.Errorf("Expected 2 modules, got %d", app.lastSummary.Modules)
	}
	if _, ok := app.Index.Lookup("core.util"); !ok {
		t.Error("Expected core.util to be indexed")
	}
}

func TestAppRescanPicksUpNewFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "a.fun", "x = 1\n")

	app, err := NewApp(testConfig(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	writeSource(t, tmpDir, "b.fun", "fun late():\n    pass\n")
	app.Rescan()

	if _, ok := app.Index.Lookup("b"); !ok {
		t.Error("Expected rescan to index b")
	}
}

func TestAppRecordsScanHistory(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.fun", "fun run():\n    pass\n")

	cfg := testConfig(tmpDir)
	cfg.DB.Enabled = true
	cfg.DB.Path = filepath.Join(tmpDir, "funls.db")

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	scans, err := app.history.LoadScans(tmpDir, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 1 {
		t.Fatalf("Expected 1 recorded scan, got %d", len(scans))
	}
	if scans[0].Modules != 1 {
		t.Errorf("Expected 1 module in scan record, got %d", scans[0].Modules)
	}
}

func TestAppConcurrentRescans(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.fun", "fun run():\n    pass\n")

	app, err := NewApp(testConfig(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Watcher batches and didClose notifications can trigger rescans from
	// different goroutines; the summary must stay consistent under -race.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Rescan()
		}()
	}
	wg.Wait()

	app.mu.Lock()
	modules := app.lastSummary.Modules
	app.mu.Unlock()
	if modules != 1 {
		t.Errorf("Expected 1 module after concurrent rescans, got %d", modules)
	}
}

func TestAppSummaryIncludesScanHistory(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "main.fun", "fun run():\n    pass\n")

	cfg := testConfig(tmpDir)
	cfg.DB.Enabled = true
	cfg.DB.Path = filepath.Join(tmpDir, "funls.db")

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}
	app.Rescan()

	var buf strings.Builder
	app.writeSummary(&buf)
	out := buf.String()

	_, history, found := strings.Cut(out, "recent scans:\n")
	if !found {
		t.Fatalf("Expected recent scans section in summary, got:\n%s", out)
	}
	rows := strings.Split(strings.TrimRight(history, "\n"), "\n")
	if len(rows) != 2 {
		t.Errorf("Expected both recorded scans in summary, got:\n%s", out)
	}
	for _, row := range rows {
		if !strings.Contains(row, "1 modules, 1 symbols") {
			t.Errorf("Expected scan counts in %q", row)
		}
	}
}

func TestAppModuleItems(t *testing.T) {
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, "zeta.fun", "x = 1\n")
	writeSource(t, tmpDir, "alpha.fun", "fun go():\n    pass\nclass A:\n    pass\n")

	app, err := NewApp(testConfig(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	if err := app.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	items := app.moduleItems()
	if len(items) != 2 || items[0].name != "alpha" || items[1].name != "zeta" {
		t.Errorf("Expected sorted module items, got %v", items)
	}
}
