package application

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mudlet/deploylinks/internal/domain/model"
)

// statLinePattern matches one per-language row of Crowdin's stats output as
// it appears in a CI log: an optional timestamp prefix, an optional "* "
// notable marker, the language code, translated / untranslated / approved
// counts, two further counts the bot ignores, and the completion
// percentage.
var statLinePattern = regexp.MustCompile(
	`(?m)^(?:\s*\[\d{2,}:\d{2}:\d{2}\] )?(\* )?([a-z]{2}_[A-Z]{2})\s+(\d+)\s+(\d+)\s+\d+\s+\d+\s+\d+\s+(\d+)%\s*$`,
)

// deployedLinePattern matches the build job's deployment confirmation echo.
var deployedLinePattern = regexp.MustCompile(
	`(?m)^(?:\s*\[\d{2,}:\d{2}:\d{2}\] )?Deployed the output to (.+)$`,
)

// notableGlyph marks languages Crowdin flagged in the log (the "* " prefix)
// in the rendered table.
const notableGlyph = "★ "

// ExtractStats scans a CI log for per-language completion rows and returns
// them ranked by completion percentage, highest first. A language appearing
// more than once resolves last-match-wins: later lines reflect a re-run of
// the same upload, so the newest figures replace older ones before ranking.
// An empty result means "no data yet"; callers must skip the write rather
// than publish an empty table.
func ExtractStats(logText string) []model.TranslationStat {
	matches := statLinePattern.FindAllStringSubmatch(logText, -1)
	if matches == nil {
		return nil
	}

	byLanguage := make(map[string]int, len(matches))
	rows := make([]model.TranslationStat, 0, len(matches))
	for _, m := range matches {
		row := model.TranslationStat{
			Notable:      m[1] != "",
			Language:     m[2],
			Translated:   m[3],
			Untranslated: m[4],
			Percentage:   m[5],
		}
		if i, seen := byLanguage[row.Language]; seen {
			rows[i] = row
			continue
		}
		byLanguage[row.Language] = len(rows)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return percentValue(rows[i]) > percentValue(rows[j])
	})

	return rows
}

// RenderStatsTable renders the rows as a GFM table. Notable rows get a glyph
// prefix on the language cell.
func RenderStatsTable(rows []model.TranslationStat) string {
	var b strings.Builder
	b.WriteString("| language | translated | untranslated | percentage done |\n")
	b.WriteString("| -------- | ---------- | ------------ | --------------- |\n")
	for _, row := range rows {
		language := row.Language
		if row.Notable {
			language = notableGlyph + language
		}
		b.WriteString("| " + language +
			" | " + row.Translated +
			" | " + row.Untranslated +
			" | " + row.Percentage + "% |\n")
	}
	return b.String()
}

// DeployedURL extracts the artifact URL from a job log's deployment
// confirmation line, reporting whether the job deployed at all.
func DeployedURL(logText string) (string, bool) {
	matches := deployedLinePattern.FindStringSubmatch(logText)
	if matches == nil {
		return "", false
	}
	return strings.TrimSpace(matches[1]), true
}

func percentValue(row model.TranslationStat) int {
	v, err := strconv.Atoi(row.Percentage)
	if err != nil {
		return -1
	}
	return v
}
