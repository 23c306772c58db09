package model

import "time"

// Snapshot is one build-artifact candidate from the snapshot catalog.
// Fetched fresh per resolution and never stored.
type Snapshot struct {
	Platform     string // raw provider platform key, e.g. "macos"
	URL          string
	CreationTime time.Time
	CommitID     string
}

// PlatformLink is a resolved download link under its canonical display label.
type PlatformLink struct {
	Label    string
	URL      string
	CommitID string
}

// Content renders the text written after the colon on the comment's
// platform line.
func (l PlatformLink) Content() string {
	if l.CommitID == "" {
		return l.URL
	}
	return l.URL + " (commit " + l.CommitID + ")"
}
