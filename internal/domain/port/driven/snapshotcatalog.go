package driven

import (
	"context"

	"github.com/mudlet/deploylinks/internal/domain/model"
)

// SnapshotCatalog queries the build-artifact catalog for a PR's snapshots.
type SnapshotCatalog interface {
	// ListSnapshots returns all known artifacts for the PR. A malformed
	// catalog response yields an empty slice and a nil error: it means "no
	// new information", and callers must not erase existing links on it.
	ListSnapshots(ctx context.Context, prNumber int) ([]model.Snapshot, error)
}
