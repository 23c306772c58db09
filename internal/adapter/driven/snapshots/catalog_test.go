package snapshots_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mudlet/deploylinks/internal/adapter/driven/snapshots"
)

func newTestCatalog(t *testing.T, handler http.Handler) *snapshots.Catalog {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return snapshots.NewCatalog(server.URL, slog.New(slog.DiscardHandler))
}

func TestListSnapshots_EnvelopeResponse(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json.php", r.URL.Path)
		assert.Equal(t, "4712", r.URL.Query().Get("prid"))
		fmt.Fprint(w, `{"data": [
			{"platform": "linux", "url": "https://x/l.tar", "creation_time": "2026-08-01 10:30:00", "commitid": "abc"}
		]}`)
	}))

	snaps, err := catalog.ListSnapshots(context.Background(), 4712)

	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "linux", snaps[0].Platform)
	assert.Equal(t, "https://x/l.tar", snaps[0].URL)
	assert.Equal(t, "abc", snaps[0].CommitID)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), snaps[0].CreationTime)
}

func TestListSnapshots_BareArrayResponse(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"platform": "windows", "url": "https://x/w.zip", "creation_time": "2026-08-01 10:30:00", "commitid": "def"}]`)
	}))

	snaps, err := catalog.ListSnapshots(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "windows", snaps[0].Platform)
}

func TestListSnapshots_MalformedResponseIsEmptyNotError(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   "snapshot service is down",
		"object":     `{"error": "nope"}`,
		"number":     "42",
		"empty body": "",
	} {
		t.Run(name, func(t *testing.T) {
			catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))

			snaps, err := catalog.ListSnapshots(context.Background(), 1)

			require.NoError(t, err)
			assert.Empty(t, snaps)
		})
	}
}

func TestListSnapshots_UnparseableTimestampKept(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"platform": "linux", "url": "https://x/l.tar", "creation_time": "yesterday", "commitid": ""}]`)
	}))

	snaps, err := catalog.ListSnapshots(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].CreationTime.IsZero())
}

func TestListSnapshots_HTTPError(t *testing.T) {
	catalog := newTestCatalog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := catalog.ListSnapshots(context.Background(), 1)

	assert.Error(t, err)
}
