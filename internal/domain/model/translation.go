package model

// TranslationStat is one per-language completion row scraped from a CI log.
// Counts stay as strings: they are copied verbatim into the markdown table
// and only the percentage is ever compared numerically.
type TranslationStat struct {
	Language     string
	Translated   string
	Untranslated string
	Percentage   string
	Notable      bool
}
