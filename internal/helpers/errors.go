package helpers

import (
	"fmt"

	"github.com/jmagar/vodgrab/internal/model"
)

// WrapIO tags a filesystem failure with model.ErrIO while keeping the cause reachable.
func WrapIO(op, path string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", model.ErrIO, op, path, err)
}

// WrapUpstream tags a failed dependency call with model.ErrUpstream.
func WrapUpstream(label string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrUpstream, label, err)
}
