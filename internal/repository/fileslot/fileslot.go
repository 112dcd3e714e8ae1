// Package fileslot persists the cart snapshot as a JSON file on disk.
// Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated slot behind.
package fileslot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/psvit/storefront/internal/domain"
	"github.com/psvit/storefront/internal/repository"
)

type Slot struct {
	path string
}

func New(path string) *Slot {
	return &Slot{path: path}
}

func (s *Slot) Load(_ context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cart slot %s: %w", s.path, err)
	}
	return repository.DecodeSlot(data)
}

func (s *Slot) Save(_ context.Context, snap domain.Snapshot) error {
	data, err := repository.EncodeSlot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".cart-slot-*")
	if err != nil {
		return fmt.Errorf("creating temp slot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cart slot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cart slot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing cart slot %s: %w", s.path, err)
	}
	return nil
}

func (s *Slot) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing cart slot %s: %w", s.path, err)
	}
	return nil
}
