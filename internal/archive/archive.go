// Package archive preserves finished duels as compressed documents in
// object storage. Archival is strictly best-effort: a duel never fails or
// stalls because the archive is down.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codeduel/internal/common/storage"
	"codeduel/internal/room"
	"codeduel/pkg/utils/logger"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

// Config selects the destination bucket. An empty bucket disables archiving.
type Config struct {
	Bucket string `yaml:"bucket"`
}

// Archiver writes finished room documents to object storage as gzip JSON.
type Archiver struct {
	store  storage.ObjectStorage
	bucket string
}

// NewArchiver returns nil when no bucket is configured; a nil Archiver is
// safe to call and does nothing.
func NewArchiver(ctx context.Context, store storage.ObjectStorage, cfg Config) (*Archiver, error) {
	if cfg.Bucket == "" || store == nil {
		return nil, nil
	}
	if err := store.EnsureBucket(ctx, cfg.Bucket); err != nil {
		return nil, fmt.Errorf("ensure archive bucket: %w", err)
	}
	return &Archiver{store: store, bucket: cfg.Bucket}, nil
}

// Archive uploads one finished room asynchronously. It returns immediately;
// failures are logged, never propagated.
func (a *Archiver) Archive(r *room.Room) {
	if a == nil {
		return
	}
	snapshot := *r
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.archive(ctx, &snapshot); err != nil {
			logger.Warn(ctx, "match archive failed",
				zap.String("room_id", snapshot.ID), zap.Error(err))
		}
	}()
}

func (a *Archiver) archive(ctx context.Context, r *room.Room) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(doc); err != nil {
		return fmt.Errorf("compress room: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress room: %w", err)
	}

	finishedAt := r.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	key := fmt.Sprintf("rooms/%s/%s.json.gz", r.ID, finishedAt.UTC().Format("20060102T150405Z"))
	return a.store.PutObject(ctx, a.bucket, key, &buf, int64(buf.Len()), "application/gzip")
}
