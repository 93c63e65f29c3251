package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Collection is an ordered set of records persisted as one pretty-printed
// JSON array. Every write rewrites the whole file.
//
// Writes are serialized within the process only. Two processes writing the
// same file may lose updates; the last writer wins.
type Collection[T any] struct {
	path   string
	name   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCollection creates a collection stored at path. Nothing touches the
// disk until the first write.
func NewCollection[T any](path string, logger *slog.Logger) *Collection[T] {
	return &Collection[T]{path: path, name: collectionName(path), logger: logger}
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string {
	return c.path
}

// List returns every record. A missing, empty or unparseable file reads as
// an empty collection.
func (c *Collection[T]) List(ctx context.Context) (items []T, err error) {
	ctx, end := c.instrument(ctx, "list")
	defer func() { end(err) }()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(ctx)
}

// Append adds rec at the end of the collection.
func (c *Collection[T]) Append(ctx context.Context, rec T) error {
	return c.Update(ctx, func(items []T) ([]T, error) {
		return append(items, rec), nil
	})
}

// Prepend adds rec at the head of the collection.
func (c *Collection[T]) Prepend(ctx context.Context, rec T) error {
	return c.Update(ctx, func(items []T) ([]T, error) {
		return append([]T{rec}, items...), nil
	})
}

// ErrSkipWrite may be returned by an Update callback to leave the file
// untouched without failing the update.
var ErrSkipWrite = errors.New("filestore: skip write")

// Update runs a read-modify-write cycle: fn receives the current records and
// returns the new full set, which replaces the file.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) (err error) {
	ctx, end := c.instrument(ctx, "update")
	defer func() { end(err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.read(ctx)
	if err != nil {
		return err
	}

	next, err := fn(items)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}

	return c.write(ctx, next)
}

func (c *Collection[T]) read(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.WarnContext(ctx, "discarding unreadable collection file",
			slog.String("path", c.path),
			slog.String("error", err.Error()),
		)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	c.observeSize(len(items))
	return items, nil
}

func (c *Collection[T]) write(ctx context.Context, items []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(c.path), err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.path, err)
	}
	c.observeSize(len(items))
	return nil
}

// CheckWritable verifies that dir exists, or can be created, and accepts
// new files.
func CheckWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
