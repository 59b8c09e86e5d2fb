package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quizmaster/internal/domain"
)

func sampleRecord(id string) domain.ScoreRecord {
	return domain.ScoreRecord{
		ID:             id,
		Username:       "alice",
		Score:          8,
		TotalQuestions: 10,
		Percentage:     80,
		Date:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStoreStartsEmptyWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "scores.json")
	store, err := NewScoreStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty store, got %d", len(records))
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	ctx := context.Background()

	store, err := NewScoreStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Append(ctx, sampleRecord("id-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, sampleRecord("id-2")); err != nil {
		t.Fatalf("append: %v", err)
	}

	reopened, err := NewScoreStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	records, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].ID != "id-1" || records[1].ID != "id-2" {
		t.Fatalf("unexpected records after reopen: %+v", records)
	}
	if records[0].Username != "alice" || records[0].Percentage != 80 {
		t.Fatalf("record fields lost on roundtrip: %+v", records[0])
	}
}

func TestStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	ctx := context.Background()

	store, err := NewScoreStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = store.Append(ctx, sampleRecord("id-1"))
	_ = store.Append(ctx, sampleRecord("id-2"))

	found, err := store.Delete(ctx, "id-1")
	if err != nil || !found {
		t.Fatalf("expected delete to find id-1, got %v (%v)", found, err)
	}
	found, err = store.Delete(ctx, "id-1")
	if err != nil || found {
		t.Fatalf("expected second delete to miss, got %v (%v)", found, err)
	}

	reopened, err := NewScoreStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	records, _ := reopened.List(ctx)
	if len(records) != 1 || records[0].ID != "id-2" {
		t.Fatalf("delete not persisted: %+v", records)
	}
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	if err := os.WriteFile(path, []byte("not-json"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if _, err := NewScoreStore(path); err == nil {
		t.Fatalf("expected error for corrupt store")
	}
}

func TestStoreNoLeftoverTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.json")

	store, err := NewScoreStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Append(context.Background(), sampleRecord("id-1")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err %v", err)
	}
}
