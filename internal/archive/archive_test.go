package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"codeduel/internal/challenge"
	"codeduel/internal/common/storage"
	"codeduel/internal/room"

	"github.com/klauspost/compress/gzip"
)

type fakeStorage struct {
	bucket string
	key    string
	data   []byte
}

func (f *fakeStorage) EnsureBucket(context.Context, string) error { return nil }

func (f *fakeStorage) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ string) error {
	f.bucket = bucket
	f.key = key
	data, err := io.ReadAll(r)
	f.data = data
	return err
}

func (f *fakeStorage) GetObject(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (f *fakeStorage) ListObjects(context.Context, string, string) <-chan storage.ObjectInfo {
	ch := make(chan storage.ObjectInfo)
	close(ch)
	return ch
}

func (f *fakeStorage) RemoveObjects(context.Context, string, []string) error { return nil }

func TestArchiver_WritesGzipJSON(t *testing.T) {
	store := &fakeStorage{}
	a, err := NewArchiver(context.Background(), store, Config{Bucket: "matches"})
	if err != nil {
		t.Fatalf("NewArchiver returned error: %v", err)
	}

	r := &room.Room{
		ID: "ABC123",
		Challenge: &challenge.Challenge{
			ID: "ch1", Title: "Echo", Description: "d",
			TestCases: []challenge.TestCase{{Input: "a", ExpectedOutput: "a"}},
		},
		Players:    []room.Player{{ID: "p1", Name: "alice"}, {ID: "p2", Name: "bob"}},
		State:      room.StateFinished,
		WinnerID:   "p1",
		FinishedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := a.archive(context.Background(), r); err != nil {
		t.Fatalf("archive returned error: %v", err)
	}

	if store.bucket != "matches" {
		t.Errorf("bucket = %q, want matches", store.bucket)
	}
	if !strings.HasPrefix(store.key, "rooms/ABC123/") || !strings.HasSuffix(store.key, ".json.gz") {
		t.Errorf("key = %q, want rooms/ABC123/<ts>.json.gz", store.key)
	}

	gz, err := gzip.NewReader(bytes.NewReader(store.data))
	if err != nil {
		t.Fatalf("stored object is not gzip: %v", err)
	}
	var got room.Room
	if err := json.NewDecoder(gz).Decode(&got); err != nil {
		t.Fatalf("stored object is not JSON: %v", err)
	}
	if got.ID != "ABC123" || got.WinnerID != "p1" {
		t.Errorf("decoded room = %q winner %q", got.ID, got.WinnerID)
	}
}

func TestArchiver_NilIsSafe(t *testing.T) {
	var a *Archiver

	// Must not panic.
	a.Archive(&room.Room{ID: "X"})
}

func TestArchiver_DisabledWithoutBucket(t *testing.T) {
	a, err := NewArchiver(context.Background(), &fakeStorage{}, Config{})
	if err != nil {
		t.Fatalf("NewArchiver returned error: %v", err)
	}
	if a != nil {
		t.Error("expected nil archiver when no bucket configured")
	}
}
