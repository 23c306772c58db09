package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.InstallationAuth = (*AppAuth)(nil)

// AppAuth implements the driven.InstallationAuth port. It holds the
// app-level JWT transport and derives per-installation clients from it.
type AppAuth struct {
	appTransport *ghinstallation.AppsTransport
	appClient    *gh.Client
	botLogin     string
}

// NewAppAuth creates an AppAuth from the GitHub App ID and its PEM-encoded
// private key.
func NewAppAuth(appID int64, privateKey []byte, botLogin string) (*AppAuth, error) {
	atr, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("creating app transport: %w", err)
	}

	return &AppAuth{
		appTransport: atr,
		appClient:    gh.NewClient(&http.Client{Transport: atr}),
		botLogin:     botLogin,
	}, nil
}

// FindInstallation resolves the installation ID for owner/repo using the
// app-level client. A 404 from the API maps to driven.ErrNoInstallation.
func (a *AppAuth) FindInstallation(ctx context.Context, owner, repo string) (int64, error) {
	installation, resp, err := a.appClient.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return 0, driven.ErrNoInstallation
		}
		return 0, fmt.Errorf("finding installation for %s/%s: %w", owner, repo, err)
	}
	return installation.GetID(), nil
}

// ClientFor returns a GitHubClient authenticated as the given installation,
// with the following transport stack:
//  1. ghinstallation (installation token minting and refresh)
//  2. httpcache (ETag-based conditional request caching)
//  3. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  4. go-github (GitHub REST API client)
func (a *AppAuth) ClientFor(installationID int64) driven.GitHubClient {
	itr := ghinstallation.NewFromAppsTransport(a.appTransport, installationID)

	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = itr

	httpClient := github_ratelimit.NewClient(cacheTransport)

	return &Client{
		gh:       gh.NewClient(httpClient),
		botLogin: a.botLogin,
	}
}
