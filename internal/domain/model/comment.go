// Package model holds the domain types for the deploy-links bot. The only
// persistent artifact is the bot comment; everything else is fetched fresh
// per event and discarded.
package model

import "strings"

// BotComment is the single comment the bot owns on a pull request thread.
type BotComment struct {
	ID     int64
	Author string
	Body   string
}

// Platform labels used in the comment's link section. The set is closed:
// patching a label outside it is a no-op because no such line exists.
const (
	PlatformLinux     = "linux"
	PlatformOSX       = "osx"
	PlatformOSXIntel  = "osx intel"
	PlatformOSXArm    = "osx arm"
	PlatformWindows   = "windows"
	PlatformWindows64 = "windows 64 bit"
	PlatformWindows32 = "windows 32 bit"
)

// TranslationPRTitle is the exact PR title Crowdin uses for translation
// update PRs. Only comments on such PRs carry a stats section.
const TranslationPRTitle = "Improve: New Crowdin updates"

// StatsHeading delimits the translation-stats section. The section runs from
// this line to the next heading or the end of the body.
const StatsHeading = "## Translation stats"

const linkPlaceholder = "(link pending, check back soon!)"

// templateLabels is the order platform lines appear in a fresh comment.
var templateLabels = []string{
	PlatformLinux,
	PlatformOSXIntel,
	PlatformOSXArm,
	PlatformWindows64,
	PlatformWindows32,
}

// NewCommentTemplate builds the initial comment body for a PR. The
// translation-stats section is included only when the PR title is exactly
// the Crowdin update title.
func NewCommentTemplate(title string) string {
	var b strings.Builder
	b.WriteString("Hey there! Thanks for helping Mudlet improve. :star2:\n")
	b.WriteString("\n")
	b.WriteString("You can directly test the changes here:\n")
	for _, label := range templateLabels {
		b.WriteString("- " + label + ": " + linkPlaceholder + "\n")
	}
	b.WriteString("\n")
	b.WriteString("No need to install anything - just unzip and run.\n")
	b.WriteString("Let us know if it works well, and if it doesn't, please give details.\n")
	if title == TranslationPRTitle {
		b.WriteString("\n")
		b.WriteString(StatsHeading + "\n")
		b.WriteString("\n")
		b.WriteString("_crunching the latest numbers, check back soon!_\n")
	}
	return b.String()
}

// CommentBody is a parsed comment body. It keeps the original lines verbatim
// so an unmodified body serializes back byte-for-byte; mutations replace
// whole lines or whole sections, never partial text.
type CommentBody struct {
	lines   []string
	changed bool
}

// ParseCommentBody splits a raw comment body into its line structure.
func ParseCommentBody(body string) *CommentBody {
	return &CommentBody{lines: strings.Split(body, "\n")}
}

// Changed reports whether any mutation actually altered the body. Callers
// use it to skip the update call when a rewrite was a no-op.
func (c *CommentBody) Changed() bool {
	return c.changed
}

// String serializes the body back to comment markdown.
func (c *CommentBody) String() string {
	return strings.Join(c.lines, "\n")
}

// SetPlatformLink replaces everything after the colon on the single
// "- <label>: ..." line. The match is anchored on the label prefix only, so
// "osx" never touches the "osx intel" line. A label with no matching line is
// a no-op; new lines are never appended.
func (c *CommentBody) SetPlatformLink(label, content string) bool {
	prefix := "- " + label + ":"
	for i, line := range c.lines {
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		updated := prefix + " " + content
		if c.lines[i] != updated {
			c.lines[i] = updated
			c.changed = true
		}
		return true
	}
	return false
}

// ReplaceSection substitutes the whole block between the heading line and
// the next heading (or end of body) with the given markdown. Partial edits
// inside the section are forbidden to avoid format drift. A missing heading
// is a no-op; headings are never appended.
func (c *CommentBody) ReplaceSection(heading, markdown string) bool {
	start := -1
	for i, line := range c.lines {
		if strings.TrimRight(line, " ") == heading {
			start = i
			break
		}
	}
	if start == -1 {
		return false
	}

	end := len(c.lines)
	for i := start + 1; i < len(c.lines); i++ {
		if strings.HasPrefix(c.lines[i], "#") {
			end = i
			break
		}
	}

	section := append([]string{heading, ""}, strings.Split(strings.TrimRight(markdown, "\n"), "\n")...)
	if end < len(c.lines) {
		section = append(section, "")
	}

	rebuilt := make([]string, 0, start+len(section)+(len(c.lines)-end))
	rebuilt = append(rebuilt, c.lines[:start]...)
	rebuilt = append(rebuilt, section...)
	rebuilt = append(rebuilt, c.lines[end:]...)

	if !equalLines(c.lines, rebuilt) {
		c.lines = rebuilt
		c.changed = true
	}
	return true
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
