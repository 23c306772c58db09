// Package snapshots implements the SnapshotCatalog port against the
// make.mudlet.org snapshot catalog.
package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotCatalog = (*Catalog)(nil)

// DefaultBaseURL is the production snapshot catalog endpoint.
const DefaultBaseURL = "https://make.mudlet.org/snapshots"

// creationTimeLayout is the catalog's timestamp format.
const creationTimeLayout = "2006-01-02 15:04:05"

// Catalog queries the snapshot catalog by PR number.
type Catalog struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewCatalog creates a catalog client with an in-memory caching transport.
func NewCatalog(baseURL string, logger *slog.Logger) *Catalog {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Catalog{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type record struct {
	Platform     string `json:"platform"`
	URL          string `json:"url"`
	CreationTime string `json:"creation_time"`
	CommitID     string `json:"commitid"`
}

// ListSnapshots returns all known artifacts for the PR. The catalog serves
// either a bare JSON array or a {"data": [...]} envelope; anything that is
// not a well-formed list yields an empty slice and a nil error, so callers
// treat it as "no new information" rather than a failure.
func (c *Catalog) ListSnapshots(ctx context.Context, prNumber int) ([]model.Snapshot, error) {
	url := fmt.Sprintf("%s/json.php?prid=%d", c.baseURL, prNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building snapshot catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot catalog for PR %d: %w", prNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("querying snapshot catalog for PR %d: unexpected status %d", prNumber, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot catalog response: %w", err)
	}

	records := parseRecords(body)
	if records == nil {
		c.logger.Warn("snapshot catalog response is not a list, treating as empty",
			"pr", prNumber,
		)
		return []model.Snapshot{}, nil
	}

	snapshots := make([]model.Snapshot, 0, len(records))
	for _, rec := range records {
		created, err := time.Parse(creationTimeLayout, rec.CreationTime)
		if err != nil {
			// Unparseable timestamps sort last rather than dropping the artifact.
			created = time.Time{}
		}
		snapshots = append(snapshots, model.Snapshot{
			Platform:     rec.Platform,
			URL:          rec.URL,
			CreationTime: created,
			CommitID:     rec.CommitID,
		})
	}

	return snapshots, nil
}

// parseRecords accepts either {"data": [...]} or a bare array. Returns nil
// when neither shape matches.
func parseRecords(body []byte) []record {
	var envelope struct {
		Data []record `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data
	}

	var bare []record
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare
	}

	return nil
}
