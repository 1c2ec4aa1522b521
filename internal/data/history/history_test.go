package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoadScans(t *testing.T) {
	store := openTestStore(t)

	first := Scan{
		ID:        uuid.NewString(),
		Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Files:     12,
		Modules:   10,
		Symbols:   240,
		Duration:  80 * time.Millisecond,
	}
	second := Scan{
		ID:        uuid.NewString(),
		Timestamp: time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		Files:     13,
		Modules:   11,
		Symbols:   260,
		Duration:  75 * time.Millisecond,
	}

	if err := store.SaveScan(first); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}
	if err := store.SaveScan(second); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	scans, err := store.LoadScans("", time.Time{})
	if err != nil {
		t.Fatalf("LoadScans failed: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("expected 2 scans, got %d", len(scans))
	}
	if scans[0].ID != first.ID || scans[1].ID != second.ID {
		t.Errorf("scans must come back ordered by timestamp: %v", scans)
	}
	if scans[0].Symbols != 240 || scans[0].Duration != 80*time.Millisecond {
		t.Errorf("round trip mismatch: %+v", scans[0])
	}
	if scans[0].WorkspaceKey != "default" {
		t.Errorf("empty workspace key must persist as default, got %q", scans[0].WorkspaceKey)
	}
}

func TestLoadScansSinceFilter(t *testing.T) {
	store := openTestStore(t)

	old := Scan{ID: uuid.NewString(), Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	recent := Scan{ID: uuid.NewString(), Timestamp: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	if err := store.SaveScan(old); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveScan(recent); err != nil {
		t.Fatal(err)
	}

	scans, err := store.LoadScans("", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 1 || scans[0].ID != recent.ID {
		t.Errorf("expected only the recent scan, got %v", scans)
	}
}

func TestSaveScanUpsertsByID(t *testing.T) {
	store := openTestStore(t)

	id := uuid.NewString()
	if err := store.SaveScan(Scan{ID: id, Modules: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveScan(Scan{ID: id, Modules: 5}); err != nil {
		t.Fatal(err)
	}

	scans, err := store.LoadScans("", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 1 || scans[0].Modules != 5 {
		t.Errorf("expected single upserted scan with 5 modules, got %v", scans)
	}
}

func TestSaveScanRejectsEmptyID(t *testing.T) {
	store := openTestStore(t)
	if err := store.SaveScan(Scan{}); err == nil {
		t.Error("expected error for empty scan id")
	}
}

func TestWorkspaceKeysAreIsolated(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveScan(Scan{ID: uuid.NewString(), WorkspaceKey: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveScan(Scan{ID: uuid.NewString(), WorkspaceKey: "b"}); err != nil {
		t.Fatal(err)
	}

	scans, err := store.LoadScans("a", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(scans) != 1 || scans[0].WorkspaceKey != "a" {
		t.Errorf("expected only workspace a scans, got %v", scans)
	}
}
