package application

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mudlet/deploylinks/internal/domain/model"
	"github.com/mudlet/deploylinks/internal/domain/port/driven"
)

// platformAliases maps provider-specific platform keys to canonical bucket
// names. Unknown keys pass through lowercased.
var platformAliases = map[string]string{
	"macos":  "osx",
	"mac":    "osx",
	"darwin": "osx",
	"win":    "windows",
	"win64":  "windows",
	"win32":  "windows",
}

// URL markers deciding which architecture a candidate belongs to.
var (
	windows64Marker = regexp.MustCompile(`(?i)(?:windows[-_]?64|win64|x64)`)
	windows32Marker = regexp.MustCompile(`(?i)(?:windows[-_]?32|win32)`)
	osxIntelMarker  = regexp.MustCompile(`(?i)x86_64`)
	osxArmMarker    = regexp.MustCompile(`(?i)(?:arm64|aarch64)`)
)

// labelOrder fixes the emission order of resolved links so repeated
// resolutions produce identical output.
var labelOrder = []string{
	model.PlatformLinux,
	model.PlatformOSX,
	model.PlatformOSXIntel,
	model.PlatformOSXArm,
	model.PlatformWindows64,
	model.PlatformWindows32,
}

// LinkResolver turns the snapshot catalog's raw artifact list into canonical
// per-platform download links.
type LinkResolver struct {
	catalog driven.SnapshotCatalog
}

// NewLinkResolver creates a LinkResolver over the given catalog.
func NewLinkResolver(catalog driven.SnapshotCatalog) *LinkResolver {
	return &LinkResolver{catalog: catalog}
}

// Resolve fetches the PR's artifacts and selects one link per display
// label. An empty catalog answer yields an empty link list, which callers
// treat as "nothing to write".
func (r *LinkResolver) Resolve(ctx context.Context, prNumber int) ([]model.PlatformLink, error) {
	snapshots, err := r.catalog.ListSnapshots(ctx, prNumber)
	if err != nil {
		return nil, fmt.Errorf("resolving links for PR %d: %w", prNumber, err)
	}
	return SelectLinks(snapshots), nil
}

// SelectLinks implements the selection algorithm: normalize platform keys,
// group into windows/linux/osx buckets, rank by creation time (newest
// first, stable), pick candidates by URL marker, and relabel to the final
// display labels. Candidates matching no marker are discarded, except for
// the legacy case of a single unmarked osx artifact, which is surfaced
// under both the generic "osx" label and "osx intel". That fallback is a
// transitional rule for pre-arch-split comments, not a permanent one.
func SelectLinks(snapshots []model.Snapshot) []model.PlatformLink {
	buckets := make(map[string][]model.Snapshot)
	for _, snap := range snapshots {
		buckets[canonicalPlatform(snap.Platform)] = append(buckets[canonicalPlatform(snap.Platform)], snap)
	}

	selected := make(map[string]model.PlatformLink)

	for platform, group := range buckets {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreationTime.After(group[j].CreationTime)
		})

		switch platform {
		case "windows":
			pickMarked(selected, group, model.PlatformWindows64, windows64Marker)
			pickMarked(selected, group, model.PlatformWindows32, windows32Marker)
		case "osx":
			pickMarked(selected, group, model.PlatformOSXIntel, osxIntelMarker)
			pickMarked(selected, group, model.PlatformOSXArm, osxArmMarker)
			if len(group) == 1 && !osxIntelMarker.MatchString(group[0].URL) && !osxArmMarker.MatchString(group[0].URL) {
				link := toLink(model.PlatformOSX, group[0])
				selected[model.PlatformOSX] = link
				selected[model.PlatformOSXIntel] = toLink(model.PlatformOSXIntel, group[0])
			}
		default:
			selected[platform] = toLink(platform, group[0])
		}
	}

	links := make([]model.PlatformLink, 0, len(selected))
	for _, label := range labelOrder {
		if link, ok := selected[label]; ok {
			links = append(links, link)
			delete(selected, label)
		}
	}
	// Unknown platform buckets trail in deterministic order.
	extras := make([]model.PlatformLink, 0, len(selected))
	for _, link := range selected {
		extras = append(extras, link)
	}
	sort.SliceStable(extras, func(i, j int) bool { return extras[i].Label < extras[j].Label })
	return append(links, extras...)
}

// pickMarked selects the most recent candidate whose URL matches the marker
// and records it under the given display label.
func pickMarked(selected map[string]model.PlatformLink, group []model.Snapshot, label string, marker *regexp.Regexp) {
	for _, snap := range group {
		if marker.MatchString(snap.URL) {
			selected[label] = toLink(label, snap)
			return
		}
	}
}

func toLink(label string, snap model.Snapshot) model.PlatformLink {
	return model.PlatformLink{Label: label, URL: snap.URL, CommitID: snap.CommitID}
}

func canonicalPlatform(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := platformAliases[key]; ok {
		return canonical
	}
	return key
}
