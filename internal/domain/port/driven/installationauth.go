package driven

import (
	"context"
	"errors"
)

// ErrNoInstallation is returned by FindInstallation when the GitHub App is
// not installed on the requested repository.
var ErrNoInstallation = errors.New("app not installed on repository")

// InstallationAuth resolves GitHub App installations and mints
// installation-scoped clients.
type InstallationAuth interface {
	// FindInstallation returns the installation ID for owner/repo, or
	// ErrNoInstallation when the app is not installed there.
	FindInstallation(ctx context.Context, owner, repo string) (int64, error)
	// ClientFor returns a GitHubClient authenticated as the given
	// installation.
	ClientFor(installationID int64) GitHubClient
}
