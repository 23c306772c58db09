// Package application contains the comment-state synchronization logic:
// correlating CI events to PRs, resolving snapshot links, scraping
// translation stats, and merging both into the bot comment.
package application

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrNoMatch is the pattern-mismatch failure: a required grammar failed to
// match. It is a hard stop for the event being processed; the handler logs
// it and returns without side effects.
var ErrNoMatch = errors.New("pattern did not match")

var (
	buildIDPattern   = regexp.MustCompile(`/builds/(\d+)`)
	permalinkPattern = regexp.MustCompile(`/pull/(\d+)`)
)

// BuildIDFromURL extracts the numeric CI build identifier from a status
// event's target URL ("…/builds/4821" yields "4821").
func BuildIDFromURL(targetURL string) (string, error) {
	matches := buildIDPattern.FindStringSubmatch(targetURL)
	if matches == nil {
		return "", ErrNoMatch
	}
	return matches[1], nil
}

// PRNumberFromPermalink extracts the trailing PR number from free text
// containing a pull request permalink.
func PRNumberFromPermalink(text string) (int, error) {
	matches := permalinkPattern.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return 0, ErrNoMatch
	}
	// The trailing numeric segment of the last permalink in the text.
	number, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, ErrNoMatch
	}
	return number, nil
}
