// Package github implements the GitHubClient and InstallationAuth ports
// using the go-github library with GitHub App authentication.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v82/github"

	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// Client implements the driven.GitHubClient port for one installation.
type Client struct {
	gh       *gh.Client
	botLogin string
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, botLogin string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, botLogin: botLogin}, nil
}

// FindBotComment lists the comments on the PR's issue thread and returns the
// first one authored by the bot identity. Multiple matches are not expected;
// only the first is used. Returns (nil, nil) when no comment matches.
func (c *Client) FindBotComment(ctx context.Context, owner, repo string, prNumber int) (*model.BotComment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing comments for %s/%s#%d: %w", owner, repo, prNumber, err)
		}

		for _, comment := range comments {
			if comment.GetUser().GetLogin() == c.botLogin {
				return &model.BotComment{
					ID:     comment.GetID(),
					Author: comment.GetUser().GetLogin(),
					Body:   comment.GetBody(),
				}, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return nil, nil
}

// CreateComment posts a new comment on the PR's issue thread.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, prNumber int, body string) (*model.BotComment, error) {
	created, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, prNumber, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return nil, fmt.Errorf("creating comment on %s/%s#%d: %w", owner, repo, prNumber, err)
	}

	return &model.BotComment{
		ID:     created.GetID(),
		Author: created.GetUser().GetLogin(),
		Body:   created.GetBody(),
	}, nil
}

// UpdateComment replaces the body of an existing issue comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) error {
	_, _, err := c.gh.Issues.EditComment(ctx, owner, repo, commentID, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("updating comment %d on %s/%s: %w", commentID, owner, repo, err)
	}
	return nil
}

// CreateReaction adds a reaction to an issue comment. content must be one of
// the reaction types the GitHub API accepts (e.g. "+1").
func (c *Client) CreateReaction(ctx context.Context, owner, repo string, commentID int64, content string) error {
	_, _, err := c.gh.Reactions.CreateIssueCommentReaction(ctx, owner, repo, commentID, content)
	if err != nil {
		return fmt.Errorf("reacting to comment %d on %s/%s: %w", commentID, owner, repo, err)
	}
	return nil
}

// IssueTitle returns the title of the issue or PR with the given number.
// Used to pick the right comment template when the opened event was missed.
func (c *Client) IssueTitle(ctx context.Context, owner, repo string, number int) (string, error) {
	issue, _, err := c.gh.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return "", fmt.Errorf("fetching issue %s/%s#%d: %w", owner, repo, number, err)
	}
	return issue.GetTitle(), nil
}
