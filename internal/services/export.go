package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/webservice-umg/apiserver/types"
)

// ObjectStore is the slice of object storage the exporter writes to.
// *storage.Storage implements it.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// UserExport is the document written by Exporter.
type UserExport struct {
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	Users      []types.User `json:"usuarios"`
}

// Exporter snapshots every user into a single JSON object.
type Exporter struct {
	users   *UserService
	objects ObjectStore
	now     func() time.Time
}

func NewExporter(users *UserService, objects ObjectStore) *Exporter {
	return &Exporter{users: users, objects: objects, now: time.Now}
}

// Export uploads the snapshot and returns its object key.
func (e *Exporter) Export(ctx context.Context) (string, int, error) {
	users, err := e.users.List(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("list users: %w", err)
	}

	exportedAt := e.now().UTC()
	data, err := json.Marshal(UserExport{
		ExportedAt: exportedAt,
		Count:      len(users),
		Users:      users,
	})
	if err != nil {
		return "", 0, fmt.Errorf("encode export: %w", err)
	}

	if err := e.objects.EnsureBucket(ctx); err != nil {
		return "", 0, fmt.Errorf("ensure bucket: %w", err)
	}

	key := fmt.Sprintf("exports/usuarios-%s.json", exportedAt.Format("20060102T150405Z"))
	if err := e.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", 0, fmt.Errorf("upload export: %w", err)
	}
	return key, len(users), nil
}
