// Package travis implements the BuildProvider port against the Travis CI
// API. A Travis build fans out into numbered sub-jobs; only the build
// (".1") and translation (".3") sub-jobs carry output the bot cares about.
package travis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BuildProvider = (*Client)(nil)

// DefaultBaseURL is the production Travis CI API endpoint.
const DefaultBaseURL = "https://api.travis-ci.com"

// Sub-job positions within a build: ".1" is the packaging job, ".3" the
// translation job. Everything else is lint/test noise.
var interestingJobSuffixes = []string{".1", ".3"}

// Client queries the Travis build and job-log endpoints.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Travis client with an in-memory caching transport.
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
	return "travis"
}

type buildResponse struct {
	Build struct {
		Number            string `json:"number"`
		PullRequestNumber int    `json:"pull_request_number"`
	} `json:"build"`
	Jobs []struct {
		ID     int64  `json:"id"`
		Number string `json:"number"`
		State  string `json:"state"`
		Config struct {
			OS string `json:"os"`
		} `json:"config"`
	} `json:"jobs"`
}

// ResolveBuild fetches the parent build record and returns the PR number
// (a field on the build itself) plus the passed build/translation sub-jobs.
func (c *Client) ResolveBuild(ctx context.Context, buildID, owner, repo string) (*model.Build, error) {
	var resp buildResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/builds/%s", c.baseURL, buildID), &resp); err != nil {
		return nil, err
	}

	build := &model.Build{
		ID:       buildID,
		PRNumber: resp.Build.PullRequestNumber,
	}

	for _, job := range resp.Jobs {
		if !isInterestingJob(resp.Build.Number, job.Number) {
			continue
		}
		if job.State != "passed" {
			continue
		}
		os := job.Config.OS
		if os == "" {
			os = "linux"
		}
		build.Jobs = append(build.Jobs, model.BuildJob{
			ID: fmt.Sprintf("%d", job.ID),
			OS: os,
		})
	}

	return build, nil
}

// JobLog fetches the raw log text for a job.
func (c *Client) JobLog(ctx context.Context, job model.BuildJob) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/jobs/%s/log", c.baseURL, job.ID), nil)
	if err != nil {
		return "", fmt.Errorf("building travis log request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching travis log for job %s: %w", job.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching travis log for job %s: unexpected status %d", job.ID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading travis log for job %s: %w", job.ID, err)
	}
	return string(body), nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building travis request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("querying travis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("querying travis: unexpected status %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding travis response: %w", err)
	}
	return nil
}

// isInterestingJob reports whether jobNumber is one of the build's tracked
// sub-positions ("<buildNumber>.1" or "<buildNumber>.3").
func isInterestingJob(buildNumber, jobNumber string) bool {
	for _, suffix := range interestingJobSuffixes {
		if jobNumber == buildNumber+suffix {
			return true
		}
	}
	return false
}
