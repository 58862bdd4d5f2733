package compose

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/cerberus/vessel/internal/paths"
	"github.com/cerberus/vessel/internal/store"
)

const lockRetryDelay = 50 * time.Millisecond

// WriteFile stores data as the compose file of project under root. Writers
// are serialized through an advisory lock next to the output, and the file
// is replaced atomically so readers never see a partial document.
func WriteFile(ctx context.Context, root, project string, data []byte) (string, error) {
	path := paths.ProjectCompose(root, project)

	lock := flock.New(paths.ProjectLock(root, project))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("failed to lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return "", fmt.Errorf("failed to lock %s", lock.Path())
	}
	defer lock.Unlock()

	if err := store.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
