package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestComputeModuleName(t *testing.T) {
	root := t.TempDir()
	svc, err := NewService([]string{root}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{filepath.Join(root, "core", "util.fun"), "core.util", true},
		{filepath.Join(root, "main.fun"), "main", true},
		{filepath.Join(root, "pkg", "__init__.fun"), "pkg", true},
		{filepath.Join(root, "a", "b", "c.fun"), "a.b.c", true},
		{filepath.Join(root, "notes.txt"), "", false},
		{"/elsewhere/core/util.fun", "", false},
		{filepath.Join(root, "__init__.fun"), "", false},
	}

	for _, tc := range cases {
		got, ok := svc.ComputeModuleName(tc.path)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ComputeModuleName(%s) = (%q, %v), want (%q, %v)", tc.path, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestComputeModuleNameRootPriority(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(second, "shared.fun"), "x = 1\n")

	svc, err := NewService([]string{first, second}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// The file only lives under the second root; the first root is not an
	// ancestor, so resolution falls through to the second.
	got, ok := svc.ComputeModuleName(filepath.Join(second, "shared.fun"))
	if !ok || got != "shared" {
		t.Errorf("expected shared via second root, got (%q, %v)", got, ok)
	}
}

func TestFullScanIndexesWorkspace(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "app.fun"), "fun run():\n    pass\n")
	writeFile(t, filepath.Join(root, "core", "util.fun"), "class Helper:\n    pass\n")
	writeFile(t, filepath.Join(root, "readme.md"), "not source")
	writeFile(t, filepath.Join(root, ".hidden.fun"), "fun ghost():\n    pass\n")
	writeFile(t, filepath.Join(root, ".git", "junk.fun"), "fun ghost():\n    pass\n")
	writeFile(t, filepath.Join(root, "node_modules", "dep.fun"), "fun ghost():\n    pass\n")

	svc, err := NewService([]string{root}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	summary, err := svc.FullScan(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if summary.Modules != 2 {
		t.Errorf("expected 2 modules, got %d (%v)", summary.Modules, svc.ModuleNames())
	}
	if _, ok := svc.Lookup("app"); !ok {
		t.Error("expected module app")
	}
	table, ok := svc.Lookup("core.util")
	if !ok || !table.Classes["Helper"] {
		t.Error("expected class Helper in core.util")
	}
	if summary.Generation == "" {
		t.Error("scan must carry a generation id")
	}
}

func TestFullScanClearsPreviousEntries(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "stale.fun")
	writeFile(t, stale, "x = 1\n")

	svc, err := NewService([]string{root}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FullScan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := svc.Lookup("stale"); !ok {
		t.Fatal("expected stale before removal")
	}

	if err := os.Remove(stale); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FullScan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := svc.Lookup("stale"); ok {
		t.Error("a full scan must reconcile against on-disk state")
	}
}

func TestFullScanCollisionKeepsSingleEntry(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(first, "core", "util.fun"), "fun from_first():\n    pass\n")
	writeFile(t, filepath.Join(second, "core", "util.fun"), "fun from_second():\n    pass\n")

	svc, err := NewService([]string{first, second}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FullScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Which file wins is nondeterministic (last finisher); the contract is
	// only that exactly one entry exists.
	count := 0
	for _, name := range svc.ModuleNames() {
		if name == "core.util" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one core.util entry, got %d", count)
	}
}

func TestUpdateDocument(t *testing.T) {
	root := t.TempDir()
	svc, err := NewService([]string{root}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// The document need not exist on disk: unsaved buffers are indexed too.
	name, ok := svc.UpdateDocument(filepath.Join(root, "draft.fun"), "fun wip():\n    pass\n")
	if !ok || name != "draft" {
		t.Fatalf("expected module draft, got (%q, %v)", name, ok)
	}
	table, ok := svc.Lookup("draft")
	if !ok || !table.Functions["wip"] {
		t.Error("expected wip in draft after update")
	}

	// A second update replaces the table wholesale.
	if _, ok := svc.UpdateDocument(filepath.Join(root, "draft.fun"), "fun done():\n    pass\n"); !ok {
		t.Fatal("second update must resolve")
	}
	table, _ = svc.Lookup("draft")
	if table.Functions["wip"] || !table.Functions["done"] {
		t.Errorf("stale symbols must not survive an update: %v", table.Functions)
	}

	if _, ok := svc.UpdateDocument("/outside/of/roots.fun", "x = 1\n"); ok {
		t.Error("documents outside every root must not be indexed")
	}
}

func TestExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.fun"), "x = 1\n")
	writeFile(t, filepath.Join(root, "generated", "gen.fun"), "x = 1\n")
	writeFile(t, filepath.Join(root, "skip_me.fun"), "x = 1\n")

	svc, err := NewService([]string{root}, Options{
		ExcludeDirs:  []string{"generated"},
		ExcludeFiles: []string{"skip_*.fun"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FullScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, ok := svc.Lookup("keep"); !ok {
		t.Error("expected keep to be indexed")
	}
	if _, ok := svc.Lookup("generated.gen"); ok {
		t.Error("excluded dir must be skipped")
	}
	if _, ok := svc.Lookup("skip_me"); ok {
		t.Error("excluded file must be skipped")
	}
}
