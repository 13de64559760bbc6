package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/skyfall/internal/multiplayer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSaveAndTopRuns(t *testing.T) {
	store := openTestStore(t)

	runs := []RunRecord{
		{RunID: "a", EndReason: "game_over", Level: 2, Score: 100, Ticks: 900, PlayerNames: []string{"x"}},
		{RunID: "b", EndReason: "game_over", Level: 1, Score: 50, Ticks: 300},
		{RunID: "c", EndReason: "abandoned", Level: 3, Score: 200, Ticks: 2000, PlayerNames: []string{"x", "y"}},
		{RunID: "d", EndReason: "game_over", Level: 4, Score: 200, Ticks: 2500, PlayerNames: []string{"z"}},
	}
	for _, r := range runs {
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("SaveRun(%s) failed: %v", r.RunID, err)
		}
	}

	top, err := store.TopRuns(3)
	if err != nil {
		t.Fatalf("TopRuns() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(top))
	}

	// Score descending, ties broken by level
	var ids []string
	for _, r := range top {
		ids = append(ids, r.RunID)
	}
	if !reflect.DeepEqual(ids, []string{"d", "c", "a"}) {
		t.Errorf("TopRuns order = %v, expected [d c a]", ids)
	}
	if !reflect.DeepEqual(top[1].PlayerNames, []string{"x", "y"}) {
		t.Errorf("PlayerNames = %v", top[1].PlayerNames)
	}
	if top[0].Ticks != 2500 || top[0].EndReason != "game_over" {
		t.Errorf("top run = %+v", top[0])
	}

	high, err := store.HighScore()
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 200 {
		t.Errorf("HighScore = %d, expected 200", high)
	}
}

func TestStoreEmpty(t *testing.T) {
	store := openTestStore(t)

	high, err := store.HighScore()
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if high != 0 {
		t.Errorf("Expected 0 for empty store, got %d", high)
	}

	top, err := store.TopRuns(10)
	if err != nil {
		t.Fatalf("TopRuns() failed: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("Expected no runs, got %d", len(top))
	}

	r, err := store.RunByID("missing")
	if err != nil || r != nil {
		t.Errorf("RunByID(missing) = %v, %v", r, err)
	}
}

func TestStoreSaveRunResult(t *testing.T) {
	store := openTestStore(t)

	var saver multiplayer.RunResultSaver = store
	err := saver.SaveRunResult(multiplayer.RunResult{
		RunID:    "run-1",
		Reason:   multiplayer.RunEndGameOver,
		Level:    3,
		Score:    420,
		Ticks:    5000,
		Players:  []string{"Alekos", "Bea"},
		Duration: 83 * time.Second,
	})
	if err != nil {
		t.Fatalf("SaveRunResult() failed: %v", err)
	}

	r, err := store.RunByID("run-1")
	if err != nil {
		t.Fatalf("RunByID() failed: %v", err)
	}
	if r == nil {
		t.Fatal("run not found")
	}
	if r.Score != 420 || r.Level != 3 || r.Duration != 83 || r.EndReason != "game_over" {
		t.Errorf("stored run = %+v", r)
	}
	if !reflect.DeepEqual(r.PlayerNames, []string{"Alekos", "Bea"}) {
		t.Errorf("PlayerNames = %v", r.PlayerNames)
	}

	// Run ids are unique.
	if err := saver.SaveRunResult(multiplayer.RunResult{RunID: "run-1", Reason: multiplayer.RunEndGameOver}); err == nil {
		t.Error("expected duplicate run id to fail")
	}
}

func TestStoreRecentRuns(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"first", "second", "third"} {
		if _, err := store.SaveRun(RunRecord{RunID: id, EndReason: "game_over"}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "third" || recent[1].RunID != "second" {
		t.Errorf("RecentRuns = %+v", recent)
	}
}
