package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)

	started := time.Now().Add(-time.Minute).Truncate(time.Millisecond)
	job := &Job{
		ID:        "job-1",
		Profile:   "default",
		Project:   "/work/shop",
		Source:    "8",
		Target:    "17",
		Status:    "ACCEPTED",
		WorkDir:   "/work/shop/.upshift/output/shop-20260101-120000",
		StartedAt: started,
	}
	if err := store.Record(job); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Profile != "default" || got.Project != "/work/shop" || got.Source != "8" || got.Target != "17" {
		t.Errorf("Get() = %+v, want recorded fields back", got)
	}
	if got.Status != "ACCEPTED" {
		t.Errorf("Get() Status = %q, want %q", got.Status, "ACCEPTED")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("Get() StartedAt = %v, want %v", got.StartedAt, started)
	}
	if !got.EndedAt.IsZero() {
		t.Errorf("Get() EndedAt = %v, want zero for a running job", got.EndedAt)
	}
}

func TestGetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := openTestStore(t)

	job := &Job{ID: "job-1", Status: "ACCEPTED", StartedAt: time.Now()}
	if err := store.Record(job); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if err := store.UpdateStatus("job-1", "PLANNING", ""); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != "PLANNING" {
		t.Errorf("Status = %q, want %q", got.Status, "PLANNING")
	}

	if err := store.UpdateStatus("missing", "PLANNING", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStatus() error = %v, want ErrNotFound", err)
	}
}

func TestFinish(t *testing.T) {
	store := openTestStore(t)

	job := &Job{ID: "job-1", Status: "TRANSFORMING", StartedAt: time.Now().Add(-time.Hour)}
	if err := store.Record(job); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ended := time.Now().Truncate(time.Millisecond)
	if err := store.Finish("job-1", "COMPLETED", "", "/out/result/patch.zip", ended); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != "COMPLETED" {
		t.Errorf("Status = %q, want %q", got.Status, "COMPLETED")
	}
	if got.Artifact != "/out/result/patch.zip" {
		t.Errorf("Artifact = %q, want %q", got.Artifact, "/out/result/patch.zip")
	}
	if !got.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, ended)
	}
}

func TestFinishWithFailure(t *testing.T) {
	store := openTestStore(t)

	job := &Job{ID: "job-1", Status: "TRANSFORMING", StartedAt: time.Now()}
	if err := store.Record(job); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := store.Finish("job-1", "FAILED", "build error in module core", "", time.Now()); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := store.Get("job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != "FAILED" || got.Reason != "build error in module core" {
		t.Errorf("Get() = status %q reason %q, want FAILED with reason", got.Status, got.Reason)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"job-a", "job-b", "job-c"} {
		job := &Job{ID: id, Status: "COMPLETED", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Record(job); err != nil {
			t.Fatalf("Record(%s) error = %v", id, err)
		}
	}

	jobs, err := store.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("List() returned %d jobs, want 3", len(jobs))
	}
	want := []string{"job-c", "job-b", "job-a"}
	for i, j := range jobs {
		if j.ID != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, j.ID, want[i])
		}
	}

	jobs, err = store.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("List(2) returned %d jobs, want 2", len(jobs))
	}
}

func TestRecordReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)

	first := &Job{ID: "job-1", Status: "ACCEPTED", StartedAt: time.Now()}
	if err := store.Record(first); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	second := &Job{ID: "job-1", Status: "PLANNING", Project: "/other", StartedAt: time.Now()}
	if err := store.Record(second); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	jobs, err := store.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("List() returned %d jobs, want 1", len(jobs))
	}
	if jobs[0].Status != "PLANNING" || jobs[0].Project != "/other" {
		t.Errorf("List()[0] = %+v, want replaced row", jobs[0])
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if err := store.Record(&Job{ID: "job-1", StartedAt: time.Now()}); err != nil {
		t.Errorf("Record() error = %v", err)
	}
}
