package participant

import (
	"context"
	"errors"

	"presence-chat/internal/errs"
)

// Directory answers presence lookups straight from the repository
type Directory struct {
	repo Repository
}

// NewDirectory creates a directory over repo
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// IsActive reports whether name is currently registered
func (d *Directory) IsActive(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}

	_, err := d.repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errs.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
