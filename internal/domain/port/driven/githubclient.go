// Package driven defines the outbound ports: the GitHub API, the CI
// providers, and the snapshot catalog. Adapters under
// internal/adapter/driven implement them.
package driven

import (
	"context"

	"github.com/mudlet/deploylinks/internal/domain/model"
)

// GitHubClient is the comment-centric slice of the GitHub API the bot uses,
// scoped to a single installation.
type GitHubClient interface {
	// FindBotComment returns the first comment on the PR's issue thread
	// authored by the bot identity, or (nil, nil) when there is none.
	FindBotComment(ctx context.Context, owner, repo string, prNumber int) (*model.BotComment, error)
	// CreateComment posts a new comment on the PR's issue thread.
	CreateComment(ctx context.Context, owner, repo string, prNumber int, body string) (*model.BotComment, error)
	// UpdateComment replaces the body of an existing comment. This is the
	// only externally visible write in the whole pipeline.
	UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) error
	// CreateReaction adds a reaction (e.g. "+1") to an issue comment.
	CreateReaction(ctx context.Context, owner, repo string, commentID int64, content string) error
	// IssueTitle returns the title of the issue/PR with the given number.
	IssueTitle(ctx context.Context, owner, repo string, number int) (string, error)
}
