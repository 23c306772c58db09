package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Comment commands users can issue on the PR thread.
const (
	cmdCreateLinks  = "/create links"
	cmdRefreshLinks = "/refresh links"
)

// ackReaction acknowledges a processed command comment.
const ackReaction = "+1"

// Dispatcher routes inbound webhook events to the synchronization logic.
// Each event is handled independently; no state is carried between events
// beyond what is re-derived from the bot comment each time. Two events for
// the same PR can interleave their read-modify-write cycles on the comment
// body; the last write wins and the next successful event repairs any lost
// update.
type Dispatcher struct {
	auth      driven.InstallationAuth
	resolver  *LinkResolver
	travis    driven.BuildProvider
	appveyor  driven.BuildProvider
	checkName string
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. checkName identifies the check run
// (by substring of its name) whose completion triggers a link refresh.
func NewDispatcher(
	auth driven.InstallationAuth,
	resolver *LinkResolver,
	travis driven.BuildProvider,
	appveyor driven.BuildProvider,
	checkName string,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		auth:      auth,
		resolver:  resolver,
		travis:    travis,
		appveyor:  appveyor,
		checkName: checkName,
		logger:    logger,
	}
}

// HandleEvent dispatches one parsed webhook event. Unknown event kinds are
// ignored. Pattern mismatches and provider API errors are local to the
// event: they are logged and swallowed so the webhook endpoint does not
// signal a retryable failure for conditions that will never succeed.
func (d *Dispatcher) HandleEvent(ctx context.Context, event any) error {
	switch ev := event.(type) {
	case *gh.PullRequestEvent:
		return d.handlePullRequest(ctx, ev)
	case *gh.IssueCommentEvent:
		return d.handleIssueComment(ctx, ev)
	case *gh.StatusEvent:
		return d.handleStatus(ctx, ev)
	case *gh.CheckRunEvent:
		return d.handleCheckRun(ctx, ev)
	default:
		d.logger.Debug("ignoring event", "type", fmt.Sprintf("%T", event))
		return nil
	}
}

// handlePullRequest creates the bot comment when a PR is opened. The
// template includes the translation-stats section only for Crowdin update
// PRs.
func (d *Dispatcher) handlePullRequest(ctx context.Context, ev *gh.PullRequestEvent) error {
	if ev.GetAction() != "opened" {
		return nil
	}

	owner := ev.GetRepo().GetOwner().GetLogin()
	repo := ev.GetRepo().GetName()
	svc := d.commentService(ev.GetInstallation().GetID())

	_, err := svc.Create(ctx, owner, repo, ev.GetNumber(), ev.GetPullRequest().GetTitle())
	return err
}

// handleIssueComment reacts to the comment commands. "/create links" posts
// a fresh comment (not deduplicated; a second command creates a second,
// inert comment), then both commands resolve and write links and
// acknowledge with a reaction.
func (d *Dispatcher) handleIssueComment(ctx context.Context, ev *gh.IssueCommentEvent) error {
	if ev.GetAction() != "created" || !ev.GetIssue().IsPullRequest() {
		return nil
	}

	command := strings.TrimSpace(ev.GetComment().GetBody())
	if command != cmdCreateLinks && command != cmdRefreshLinks {
		return nil
	}

	owner := ev.GetRepo().GetOwner().GetLogin()
	repo := ev.GetRepo().GetName()
	prNumber := ev.GetIssue().GetNumber()
	svc := d.commentService(ev.GetInstallation().GetID())

	if command == cmdCreateLinks {
		if _, err := svc.Create(ctx, owner, repo, prNumber, ev.GetIssue().GetTitle()); err != nil {
			return err
		}
	}

	if err := d.refreshLinks(ctx, svc, owner, repo, prNumber); err != nil {
		return err
	}

	return svc.React(ctx, owner, repo, ev.GetComment().GetID(), ackReaction)
}

// handleStatus correlates a CI status event with its PR, updates the
// translation stats from the passed jobs' logs, and refreshes the platform
// links from the snapshot catalog.
func (d *Dispatcher) handleStatus(ctx context.Context, ev *gh.StatusEvent) error {
	statusContext := ev.GetContext()
	if !strings.Contains(statusContext, "pr") && !strings.Contains(statusContext, "appveyor") {
		return nil
	}

	provider := d.providerFor(statusContext)
	if provider == nil {
		d.logger.Debug("status context matches no provider", "context", statusContext)
		return nil
	}

	buildID, err := BuildIDFromURL(ev.GetTargetURL())
	if err != nil {
		d.logger.Warn("no build id in status target url",
			"provider", provider.Name(), "target_url", ev.GetTargetURL(),
		)
		return nil
	}

	owner := ev.GetRepo().GetOwner().GetLogin()
	repo := ev.GetRepo().GetName()

	build, err := provider.ResolveBuild(ctx, buildID, owner, repo)
	if err != nil {
		// A provider API error means the same as "no jobs passed": skip,
		// do not retry within this event.
		d.logger.Error("resolving build failed",
			"provider", provider.Name(), "build_id", buildID, "error", err,
		)
		return nil
	}
	if build.PRNumber == 0 {
		d.logger.Info("build has no pull request, skipping",
			"provider", provider.Name(), "build_id", buildID,
		)
		return nil
	}
	if len(build.Jobs) == 0 {
		d.logger.Info("no passed jobs yet, skipping",
			"provider", provider.Name(), "build_id", buildID, "pr", build.PRNumber,
		)
		return nil
	}

	svc := d.commentService(ev.GetInstallation().GetID())

	var statsTable string
	for _, job := range build.Jobs {
		logText, err := provider.JobLog(ctx, job)
		if err != nil {
			d.logger.Error("fetching job log failed",
				"provider", provider.Name(), "job", job.ID, "error", err,
			)
			continue
		}

		if url, ok := DeployedURL(logText); ok {
			d.logger.Info("job deployed its output", "os", job.OS, "url", url)
		}

		if rows := ExtractStats(logText); len(rows) > 0 {
			statsTable = RenderStatsTable(rows)
		}
	}

	if statsTable != "" {
		if err := svc.WriteStats(ctx, owner, repo, build.PRNumber, statsTable); err != nil {
			return err
		}
	}

	return d.refreshLinks(ctx, svc, owner, repo, build.PRNumber)
}

// handleCheckRun refreshes links when the configured provider check
// completes. The PR number comes from the permalink in the check's output.
func (d *Dispatcher) handleCheckRun(ctx context.Context, ev *gh.CheckRunEvent) error {
	run := ev.GetCheckRun()
	if !strings.Contains(run.GetName(), d.checkName) {
		return nil
	}

	output := run.GetOutput().GetTitle() + "\n" + run.GetOutput().GetSummary() + "\n" + run.GetOutput().GetText()
	prNumber, err := PRNumberFromPermalink(output)
	if err != nil {
		d.logger.Warn("no pull request permalink in check run output", "check", run.GetName())
		return nil
	}

	owner := ev.GetRepo().GetOwner().GetLogin()
	repo := ev.GetRepo().GetName()
	svc := d.commentService(ev.GetInstallation().GetID())

	return d.refreshLinks(ctx, svc, owner, repo, prNumber)
}

// ProcessSnapshotPing handles the catalog's push notification that new
// snapshots exist for the given PRs: per PR the bot comment is found (or
// created, when the opened event was missed) and its links refreshed. It
// returns the number of the last PR processed.
func (d *Dispatcher) ProcessSnapshotPing(ctx context.Context, owner, repo string, prNumbers []int) (int, error) {
	installationID, err := d.auth.FindInstallation(ctx, owner, repo)
	if err != nil {
		return 0, err
	}

	svc := d.commentService(installationID)

	lastPR := 0
	for _, prNumber := range prNumbers {
		if _, err := svc.Ensure(ctx, owner, repo, prNumber); err != nil {
			return lastPR, err
		}
		if err := d.refreshLinks(ctx, svc, owner, repo, prNumber); err != nil {
			return lastPR, err
		}
		lastPR = prNumber
	}

	return lastPR, nil
}

// FindComment exposes a read-only comment lookup for the preview endpoint.
func (d *Dispatcher) FindComment(ctx context.Context, owner, repo string, prNumber int) (string, error) {
	installationID, err := d.auth.FindInstallation(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	comment, err := d.auth.ClientFor(installationID).FindBotComment(ctx, owner, repo, prNumber)
	if err != nil {
		return "", err
	}
	if comment == nil {
		return "", ErrNoComment
	}
	return comment.Body, nil
}

// ErrNoComment is returned by FindComment when the PR has no bot comment.
var ErrNoComment = errors.New("bot comment not found")

func (d *Dispatcher) refreshLinks(ctx context.Context, svc *CommentService, owner, repo string, prNumber int) error {
	links, err := d.resolver.Resolve(ctx, prNumber)
	if err != nil {
		return err
	}
	return svc.WriteLinks(ctx, owner, repo, prNumber, links)
}

func (d *Dispatcher) commentService(installationID int64) *CommentService {
	return NewCommentService(d.auth.ClientFor(installationID), d.logger)
}

func (d *Dispatcher) providerFor(statusContext string) driven.BuildProvider {
	switch {
	case strings.Contains(statusContext, "travis"):
		return d.travis
	case strings.Contains(statusContext, "appveyor"):
		return d.appveyor
	default:
		return nil
	}
}
