package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// CommentService owns the read-modify-write cycle on the bot comment. It is
// constructed per event around the installation-scoped GitHub client; all
// state lives in the comment body itself.
type CommentService struct {
	gh     driven.GitHubClient
	logger *slog.Logger
}

// NewCommentService creates a CommentService over the given client.
func NewCommentService(gh driven.GitHubClient, logger *slog.Logger) *CommentService {
	return &CommentService{gh: gh, logger: logger}
}

// Create posts the initial bot comment, picking the template variant from
// the PR title. Creation is not deduplicated: a second call produces a
// second comment, which stays inert because lookups always return the
// first.
func (s *CommentService) Create(ctx context.Context, owner, repo string, prNumber int, title string) (*model.BotComment, error) {
	body := model.NewCommentTemplate(title)
	comment, err := s.gh.CreateComment(ctx, owner, repo, prNumber, body)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created bot comment",
		"owner", owner, "repo", repo, "pr", prNumber, "comment_id", comment.ID,
	)
	return comment, nil
}

// Ensure returns the bot comment for the PR, creating it (with a template
// keyed on the live issue title) when the opened event was missed.
func (s *CommentService) Ensure(ctx context.Context, owner, repo string, prNumber int) (*model.BotComment, error) {
	comment, err := s.gh.FindBotComment(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}
	if comment != nil {
		return comment, nil
	}

	title, err := s.gh.IssueTitle(ctx, owner, repo, prNumber)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, owner, repo, prNumber, title)
}

// WriteLinks merges resolved platform links into the comment's link
// section and persists the result. A missing comment aborts with a log and
// no write; an empty link list is "no new information" and never erases
// existing content. Unknown labels are dropped by the body's no-append
// rule. The update call is skipped when patching changed nothing, so
// re-running with identical catalog data is idempotent.
func (s *CommentService) WriteLinks(ctx context.Context, owner, repo string, prNumber int, links []model.PlatformLink) error {
	if len(links) == 0 {
		s.logger.Info("no links resolved, leaving comment untouched",
			"owner", owner, "repo", repo, "pr", prNumber,
		)
		return nil
	}

	comment, err := s.gh.FindBotComment(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}
	if comment == nil {
		s.logger.Warn("bot comment not found, skipping link update",
			"owner", owner, "repo", repo, "pr", prNumber,
		)
		return nil
	}

	body := model.ParseCommentBody(comment.Body)
	for _, link := range links {
		if !body.SetPlatformLink(link.Label, link.Content()) {
			s.logger.Info("no line for platform label, skipping",
				"label", link.Label, "pr", prNumber,
			)
		}
	}

	return s.persist(ctx, owner, repo, prNumber, comment, body)
}

// WriteStats replaces the translation-stats section with the given table.
// Comments without the section (non-translation PRs) are left untouched.
func (s *CommentService) WriteStats(ctx context.Context, owner, repo string, prNumber int, table string) error {
	comment, err := s.gh.FindBotComment(ctx, owner, repo, prNumber)
	if err != nil {
		return err
	}
	if comment == nil {
		s.logger.Warn("bot comment not found, skipping stats update",
			"owner", owner, "repo", repo, "pr", prNumber,
		)
		return nil
	}

	body := model.ParseCommentBody(comment.Body)
	if !body.ReplaceSection(model.StatsHeading, table) {
		s.logger.Info("comment has no stats section, skipping",
			"owner", owner, "repo", repo, "pr", prNumber,
		)
		return nil
	}

	return s.persist(ctx, owner, repo, prNumber, comment, body)
}

// React acknowledges a command comment.
func (s *CommentService) React(ctx context.Context, owner, repo string, commentID int64, content string) error {
	return s.gh.CreateReaction(ctx, owner, repo, commentID, content)
}

func (s *CommentService) persist(ctx context.Context, owner, repo string, prNumber int, comment *model.BotComment, body *model.CommentBody) error {
	if !body.Changed() {
		s.logger.Info("comment body unchanged, skipping update",
			"owner", owner, "repo", repo, "pr", prNumber,
		)
		return nil
	}

	comment.Body = body.String()
	if err := s.gh.UpdateComment(ctx, owner, repo, comment.ID, comment.Body); err != nil {
		return fmt.Errorf("persisting comment for %s/%s#%d: %w", owner, repo, prNumber, err)
	}
	s.logger.Info("updated bot comment",
		"owner", owner, "repo", repo, "pr", prNumber, "comment_id", comment.ID,
	)
	return nil
}
