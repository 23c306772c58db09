package driven

import (
	"context"

	"github.com/mudlet/deploylinks/internal/domain/model"
)

// BuildProvider correlates a CI build with its pull request and exposes job
// logs. One implementation per CI provider.
type BuildProvider interface {
	// Name identifies the provider in logs ("travis", "appveyor").
	Name() string
	// ResolveBuild fetches the build record for the given numeric build ID
	// and returns the PR number plus the passed jobs worth inspecting. A
	// build with no PR association has PRNumber zero.
	ResolveBuild(ctx context.Context, buildID, owner, repo string) (*model.Build, error)
	// JobLog returns the raw log text of a job.
	JobLog(ctx context.Context, job model.BuildJob) (string, error)
}
