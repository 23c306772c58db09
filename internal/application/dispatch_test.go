package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudlet/deploylinks/internal/application"
	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockAuth struct {
	client         *mockGitHubClient
	installationID int64
	findErr        error
}

func (m *mockAuth) FindInstallation(_ context.Context, _, _ string) (int64, error) {
	if m.findErr != nil {
		return 0, m.findErr
	}
	return m.installationID, nil
}

func (m *mockAuth) ClientFor(_ int64) driven.GitHubClient {
	return m.client
}

type mockCatalog struct {
	snapshots []model.Snapshot
	err       error
}

func (m *mockCatalog) ListSnapshots(_ context.Context, _ int) ([]model.Snapshot, error) {
	return m.snapshots, m.err
}

type mockProvider struct {
	name       string
	build      *model.Build
	resolveErr error
	logs       map[string]string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) ResolveBuild(_ context.Context, buildID, _, _ string) (*model.Build, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	build := *m.build
	build.ID = buildID
	return &build, nil
}

func (m *mockProvider) JobLog(_ context.Context, job model.BuildJob) (string, error) {
	logText, ok := m.logs[job.ID]
	if !ok {
		return "", errors.New("no such job")
	}
	return logText, nil
}

// --- Test fixtures ---

type fixture struct {
	gh         *mockGitHubClient
	catalog    *mockCatalog
	travis     *mockProvider
	appveyor   *mockProvider
	dispatcher *application.Dispatcher
}

func newFixture(commentBody string) *fixture {
	ghClient := &mockGitHubClient{}
	if commentBody != "" {
		ghClient.comment = &model.BotComment{ID: 7, Author: "add-deployment-links[bot]", Body: commentBody}
	}

	catalog := &mockCatalog{}
	travis := &mockProvider{name: "travis", build: &model.Build{}}
	appveyor := &mockProvider{name: "appveyor", build: &model.Build{}}

	dispatcher := application.NewDispatcher(
		&mockAuth{client: ghClient, installationID: 42},
		application.NewLinkResolver(catalog),
		travis,
		appveyor,
		"AppVeyor",
		testLogger(),
	)

	return &fixture{gh: ghClient, catalog: catalog, travis: travis, appveyor: appveyor, dispatcher: dispatcher}
}

func eventRepo() *gh.Repository {
	return &gh.Repository{
		Name:  gh.Ptr("Mudlet"),
		Owner: &gh.User{Login: gh.Ptr("Mudlet")},
	}
}

func eventInstallation() *gh.Installation {
	return &gh.Installation{ID: gh.Ptr(int64(42))}
}

func linuxSnapshot() model.Snapshot {
	return model.Snapshot{
		Platform:     "linux",
		URL:          "https://x/l.tar",
		CreationTime: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CommitID:     "abc",
	}
}

// --- Dispatcher tests ---

func TestHandleEvent_PullRequestOpenedCreatesComment(t *testing.T) {
	f := newFixture("")

	err := f.dispatcher.HandleEvent(context.Background(), &gh.PullRequestEvent{
		Action:       gh.Ptr("opened"),
		Number:       gh.Ptr(12),
		PullRequest:  &gh.PullRequest{Title: gh.Ptr("Improve: New Crowdin updates")},
		Repo:         eventRepo(),
		Installation: eventInstallation(),
	})

	require.NoError(t, err)
	require.Len(t, f.gh.creates, 1)
	assert.Equal(t, 12, f.gh.creates[0].PRNumber)
	assert.Contains(t, f.gh.creates[0].Body, model.StatsHeading)
}

func TestHandleEvent_PullRequestOtherActionIgnored(t *testing.T) {
	f := newFixture("")

	err := f.dispatcher.HandleEvent(context.Background(), &gh.PullRequestEvent{
		Action:       gh.Ptr("synchronize"),
		Repo:         eventRepo(),
		Installation: eventInstallation(),
	})

	require.NoError(t, err)
	assert.Empty(t, f.gh.creates)
}

func commentEvent(body string) *gh.IssueCommentEvent {
	return &gh.IssueCommentEvent{
		Action: gh.Ptr("created"),
		Issue: &gh.Issue{
			Number:           gh.Ptr(12),
			Title:            gh.Ptr("Fix crash"),
			PullRequestLinks: &gh.PullRequestLinks{URL: gh.Ptr("https://api.github.com/repos/Mudlet/Mudlet/pulls/12")},
		},
		Comment:      &gh.IssueComment{ID: gh.Ptr(int64(88)), Body: gh.Ptr(body)},
		Repo:         eventRepo(),
		Installation: eventInstallation(),
	}
}

func TestHandleEvent_RefreshLinksCommand(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	err := f.dispatcher.HandleEvent(context.Background(), commentEvent("/refresh links"))

	require.NoError(t, err)
	require.Len(t, f.gh.updates, 1)
	assert.Contains(t, f.gh.updates[0].Body, "- linux: https://x/l.tar (commit abc)")
	require.Len(t, f.gh.reactions, 1)
	assert.Equal(t, int64(88), f.gh.reactions[0].CommentID)
	assert.Equal(t, "+1", f.gh.reactions[0].Content)
}

func TestHandleEvent_CreateLinksCommandCreatesSecondComment(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))

	err := f.dispatcher.HandleEvent(context.Background(), commentEvent("/create links"))

	require.NoError(t, err)
	// Creation is not deduplicated even though a comment already exists.
	assert.Len(t, f.gh.creates, 1)
	assert.Len(t, f.gh.reactions, 1)
}

func TestHandleEvent_OtherCommentBodyIgnored(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))

	err := f.dispatcher.HandleEvent(context.Background(), commentEvent("nice work!"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.creates)
	assert.Empty(t, f.gh.updates)
	assert.Empty(t, f.gh.reactions)
}

func TestHandleEvent_CommentOnPlainIssueIgnored(t *testing.T) {
	f := newFixture("")
	ev := commentEvent("/refresh links")
	ev.Issue.PullRequestLinks = nil

	err := f.dispatcher.HandleEvent(context.Background(), ev)

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
	assert.Empty(t, f.gh.reactions)
}

func statusEvent(statusContext, targetURL string) *gh.StatusEvent {
	return &gh.StatusEvent{
		Context:      gh.Ptr(statusContext),
		TargetURL:    gh.Ptr(targetURL),
		State:        gh.Ptr("success"),
		Repo:         eventRepo(),
		Installation: eventInstallation(),
	}
}

func TestHandleEvent_StatusUpdatesStatsAndLinks(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Improve: New Crowdin updates"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}
	f.travis.build = &model.Build{
		PRNumber: 12,
		Jobs: []model.BuildJob{
			{ID: "j1", OS: "linux"},
			{ID: "j3", OS: "linux"},
		},
	}
	f.travis.logs = map[string]string{
		"j1": "[00:05:00] Deployed the output to https://x/l.tar",
		"j3": "[00:01:02] * de_DE 120 5 0 0 0 95%",
	}

	err := f.dispatcher.HandleEvent(context.Background(),
		statusEvent("continuous-integration/travis-ci/pr", "https://travis-ci.com/Mudlet/Mudlet/builds/4821"))

	require.NoError(t, err)
	require.Len(t, f.gh.updates, 2)
	assert.Contains(t, f.gh.updates[0].Body, "| ★ de_DE | 120 | 5 | 95% |")
	assert.Contains(t, f.gh.updates[1].Body, "- linux: https://x/l.tar (commit abc)")
}

func TestHandleEvent_StatusContextWithoutProviderMarkersIgnored(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))

	err := f.dispatcher.HandleEvent(context.Background(),
		statusEvent("codecov/patch", "https://codecov.io/builds/1"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
}

func TestHandleEvent_StatusBadTargetURLIsHardStop(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	err := f.dispatcher.HandleEvent(context.Background(),
		statusEvent("continuous-integration/travis-ci/pr", "https://travis-ci.com/Mudlet/Mudlet"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
}

func TestHandleEvent_StatusProviderErrorSkips(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.appveyor.resolveErr = errors.New("api down")

	err := f.dispatcher.HandleEvent(context.Background(),
		statusEvent("continuous-integration/appveyor/pr", "https://ci.appveyor.com/builds/99"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
}

func TestHandleEvent_StatusNoPassedJobsSkips(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.travis.build = &model.Build{PRNumber: 12}

	err := f.dispatcher.HandleEvent(context.Background(),
		statusEvent("continuous-integration/travis-ci/pr", "https://travis-ci.com/builds/4821"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
}

func checkRunEvent(name, summary string) *gh.CheckRunEvent {
	return &gh.CheckRunEvent{
		CheckRun: &gh.CheckRun{
			Name: gh.Ptr(name),
			Output: &gh.CheckRunOutput{
				Summary: gh.Ptr(summary),
			},
		},
		Repo:         eventRepo(),
		Installation: eventInstallation(),
	}
}

func TestHandleEvent_CheckRunRefreshesLinks(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	err := f.dispatcher.HandleEvent(context.Background(),
		checkRunEvent("AppVeyor build", "Artifacts: https://github.com/Mudlet/Mudlet/pull/12"))

	require.NoError(t, err)
	require.Len(t, f.gh.updates, 1)
	assert.Contains(t, f.gh.updates[0].Body, "- linux: https://x/l.tar")
}

func TestHandleEvent_CheckRunWrongNameIgnored(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	err := f.dispatcher.HandleEvent(context.Background(),
		checkRunEvent("codeql", "https://github.com/Mudlet/Mudlet/pull/12"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
}

func TestHandleEvent_CheckRunWithoutPermalinkIsHardStop(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	err := f.dispatcher.HandleEvent(context.Background(),
		checkRunEvent("AppVeyor build", "no permalink here"))

	require.NoError(t, err)
	assert.Empty(t, f.gh.updates)
}

func TestHandleEvent_UnknownEventIgnored(t *testing.T) {
	f := newFixture("")

	err := f.dispatcher.HandleEvent(context.Background(), &gh.PushEvent{})

	require.NoError(t, err)
	assert.Empty(t, f.gh.creates)
}

// --- Snapshot ping tests ---

func TestProcessSnapshotPing_RefreshesExistingComments(t *testing.T) {
	f := newFixture(model.NewCommentTemplate("Fix crash"))
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	lastPR, err := f.dispatcher.ProcessSnapshotPing(context.Background(), "Mudlet", "Mudlet", []int{12, 34})

	require.NoError(t, err)
	assert.Equal(t, 34, lastPR)
	assert.Empty(t, f.gh.creates)
	assert.NotEmpty(t, f.gh.updates)
}

func TestProcessSnapshotPing_CreatesMissingComment(t *testing.T) {
	f := newFixture("")
	f.gh.title = "Fix crash"
	f.catalog.snapshots = []model.Snapshot{linuxSnapshot()}

	lastPR, err := f.dispatcher.ProcessSnapshotPing(context.Background(), "Mudlet", "Mudlet", []int{12})

	require.NoError(t, err)
	assert.Equal(t, 12, lastPR)
	require.Len(t, f.gh.creates, 1)
	assert.Equal(t, 12, f.gh.creates[0].PRNumber)
}

func TestProcessSnapshotPing_NoInstallation(t *testing.T) {
	ghClient := &mockGitHubClient{}
	dispatcher := application.NewDispatcher(
		&mockAuth{client: ghClient, findErr: driven.ErrNoInstallation},
		application.NewLinkResolver(&mockCatalog{}),
		&mockProvider{name: "travis", build: &model.Build{}},
		&mockProvider{name: "appveyor", build: &model.Build{}},
		"AppVeyor",
		testLogger(),
	)

	_, err := dispatcher.ProcessSnapshotPing(context.Background(), "Mudlet", "Mudlet", []int{12})

	assert.ErrorIs(t, err, driven.ErrNoInstallation)
}
