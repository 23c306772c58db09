// Package appveyor implements the BuildProvider port against the AppVeyor
// API. AppVeyor only builds the Windows targets, so every job is tagged
// "windows".
package appveyor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BuildProvider = (*Client)(nil)

// DefaultBaseURL is the production AppVeyor API endpoint.
const DefaultBaseURL = "https://ci.appveyor.com"

// Client queries the AppVeyor project-build and job-log endpoints.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates an AppVeyor client with an in-memory caching transport.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the provider in logs.
func (c *Client) Name() string {
	return "appveyor"
}

type buildResponse struct {
	Build struct {
		// AppVeyor serializes the PR number as a string.
		PullRequestID string `json:"pullRequestId"`
		Jobs          []struct {
			JobID  string `json:"jobId"`
			Status string `json:"status"`
		} `json:"jobs"`
	} `json:"build"`
}

// ResolveBuild fetches the build record by numeric build ID and returns the
// PR number plus the successful jobs. AppVeyor lowercases project slugs, so
// the repo name is lowercased in the URL.
func (c *Client) ResolveBuild(ctx context.Context, buildID, owner, repo string) (*model.Build, error) {
	url := fmt.Sprintf("%s/api/projects/%s/%s/builds/%s", c.baseURL, owner, strings.ToLower(repo), buildID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building appveyor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying appveyor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying appveyor: unexpected status %d for build %s", resp.StatusCode, buildID)
	}

	var parsed buildResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding appveyor response: %w", err)
	}

	build := &model.Build{ID: buildID}
	if parsed.Build.PullRequestID != "" {
		prNumber, err := strconv.Atoi(parsed.Build.PullRequestID)
		if err != nil {
			return nil, fmt.Errorf("parsing appveyor pull request id %q: %w", parsed.Build.PullRequestID, err)
		}
		build.PRNumber = prNumber
	}

	for _, job := range parsed.Build.Jobs {
		if job.Status != "success" {
			continue
		}
		build.Jobs = append(build.Jobs, model.BuildJob{ID: job.JobID, OS: "windows"})
	}

	return build, nil
}

// JobLog fetches the raw log text for a job.
func (c *Client) JobLog(ctx context.Context, job model.BuildJob) (string, error) {
	url := fmt.Sprintf("%s/api/buildjobs/%s/log", c.baseURL, job.ID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building appveyor log request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching appveyor log for job %s: %w", job.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching appveyor log for job %s: unexpected status %d", job.ID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading appveyor log for job %s: %w", job.ID, err)
	}
	return string(body), nil
}
