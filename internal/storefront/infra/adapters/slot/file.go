// Package slot provides durable homes for a session's cart: a JSON file on
// the local disk or a key in Redis.
package slot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

var _ ports.CartSlot = (*FileSlot)(nil)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileSlot stores the cart as <dir>/cart-<session>.json. Writes go through a
// temp file and a rename so a crash never leaves half a payload behind.
type FileSlot struct {
	path string
}

func NewFileSlot(dir, session string) *FileSlot {
	return NewNamedFileSlot(dir, "cart", session)
}

// NewNamedFileSlot stores other per-session state as <dir>/<kind>-<session>.json.
func NewNamedFileSlot(dir, kind, session string) *FileSlot {
	name := kind + "-" + unsafeChars.ReplaceAllString(session, "_") + ".json"
	return &FileSlot{path: filepath.Join(dir, name)}
}

func (s *FileSlot) Path() string { return s.path }

func (s *FileSlot) Load(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file slot: read %s: %w", s.path, err)
	}
	return b, nil
}

func (s *FileSlot) Save(_ context.Context, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("file slot: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".slot-*")
	if err != nil {
		return fmt.Errorf("file slot: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file slot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file slot: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("file slot: rename: %w", err)
	}
	return nil
}

func (s *FileSlot) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file slot: remove %s: %w", s.path, err)
	}
	return nil
}
