package model

// Build is a CI provider's parent build record, reduced to what the bot
// needs: the PR it belongs to and the jobs worth inspecting.
type Build struct {
	ID       string
	PRNumber int
	// Jobs holds only the passed jobs the provider considers interesting
	// (build and translation sub-jobs); failed or unrelated jobs are
	// filtered out by the provider adapter.
	Jobs []BuildJob
}

// BuildJob is a single CI job within a build.
type BuildJob struct {
	ID string
	OS string
}
