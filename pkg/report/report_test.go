package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/imprint/pkg/batch"
	"github.com/matzehuels/imprint/pkg/errors"
)

func sample(id string) batch.Summary {
	return batch.Summary{
		ID:        id,
		StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Items: []batch.Item{
			{Index: 0, Label: "1", Status: batch.StatusOK, Output: "1_card.png"},
			{Index: 1, Label: "2", Status: batch.StatusFailed, Code: errors.ErrCodeTemplateNotFound},
		},
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(context.Background(), sample("run-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Succeeded != 1 || got.Failed != 1 || len(got.Items) != 2 {
		t.Errorf("loaded = %+v, want 1 ok / 1 failed", got)
	}
	if got.Items[1].Code != errors.ErrCodeTemplateNotFound {
		t.Errorf("Items[1].Code = %s, want %s", got.Items[1].Code, errors.ErrCodeTemplateNotFound)
	}
	if !got.StartedAt.Equal(sample("").StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, sample("").StartedAt)
	}
}

func TestFileStoreRejectsUnsafeID(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	for _, id := range []string{"", "../escape", "a/b"} {
		if err := s.Save(context.Background(), sample(id)); !errors.Is(err, errors.ErrCodeInvalidRequest) {
			t.Errorf("Save(%q) = %v, want %s", id, err, errors.ErrCodeInvalidRequest)
		}
	}
}

func TestFileStoreMissing(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if _, err := s.Load("nope"); err == nil {
		t.Error("Load(nope) succeeded, want error")
	}
}

type recordStore struct {
	saved []string
	err   error
}

func (r *recordStore) Save(_ context.Context, sum batch.Summary) error {
	r.saved = append(r.saved, sum.ID)
	return r.err
}

func TestMultiSavesEverywhere(t *testing.T) {
	bad := &recordStore{err: errors.New(errors.ErrCodeInternal, "down")}
	good := &recordStore{}
	err := Multi{bad, good}.Save(context.Background(), sample("x"))
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInternal)
	}
	if len(good.saved) != 1 {
		t.Errorf("second store saved %d reports, want 1", len(good.saved))
	}
}

func TestConnectRejectsBadURI(t *testing.T) {
	_, err := Connect(context.Background(), "not-a-mongo-uri", "imprint", "batches")
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Connect(bad uri) error = %v, want CONFIGURATION_ERROR", err)
	}
}
