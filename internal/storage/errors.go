package storage

import (
	"errors"
	"fmt"

	"github.com/mcoot/crosswordgame-daily/internal/model"
)

// Unavailable wraps a connectivity or backend failure as model.ErrStoreUnavailable
// so callers can treat it as retryable. Domain errors pass through unchanged.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrScoreNotFound) ||
		errors.Is(err, model.ErrPlayerNotFound) ||
		errors.Is(err, model.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
