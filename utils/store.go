package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

var ErrObjectNotFound = errors.New("object not found")

// FileStore persists replay files. Put returns the public URL of the object.
type FileStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ReplayKey builds the object key for a run's replay,
// e.g. "runs/surf_utopia/<runID>.mrf".
func ReplayKey(mapName, runID string) string {
	s := slug.Make(mapName)
	if s == "" {
		s = "unnamed"
	}
	return fmt.Sprintf("runs/%s/%s.mrf", s, runID)
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}
