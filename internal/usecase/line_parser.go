package usecase

import (
	"log"
	"regexp"
	"strings"
)

// Package-level compiled regex patterns for performance
var (
	// pricePattern matches one receipt line: optional "*" marker, lazily
	// captured item name, then a pound amount like £1.50 or £1,50.
	// Must stay bit-exact for compatibility with existing receipts.
	pricePattern = regexp.MustCompile(`(?i)^\*?(.*?)\s*£(\d+)[.,](\d{2})$`)

	// ocrOneFix repairs a lone "i" the OCR engine misread for "1" in
	// front of a digit+unit token (e.g. "i40G" -> "140G").
	ocrOneFix = regexp.MustCompile(`\bi(\d+G)\b`)

	// nonWordPattern strips punctuation from a token before the
	// abbreviation lookup.
	nonWordPattern = regexp.MustCompile(`[^\w]`)

	// measurementPattern matches measurement tokens like "250 g" or "500ml".
	measurementPattern = regexp.MustCompile(`\b\d+\s*[a-zA-Z]+\b`)
)

// defaultAbbreviations maps receipt abbreviations to full product names.
// Lookup keys are uppercase.
var defaultAbbreviations = map[string]string{
	"CDBY":  "Cadbury",
	"SLT":   "Salted",
	"CRML":  "Caramel",
	"FNGER": "Finger",
}

// defaultFilterKeywords mark non-item receipt lines (totals, payment,
// loyalty points). Matched case-insensitively as substrings.
var defaultFilterKeywords = []string{
	"balance due", "visa debit", "total", "point", "change",
}

// ParserConfig holds configuration for the line-item parser
type ParserConfig struct {
	FilterKeywords     []string
	Abbreviations      map[string]string
	EnableDebugLogging bool
}

// LineParser turns raw OCR text into a cleaned sequence of candidate
// food-item names. Lines that do not look like priced items are
// silently dropped; that is expected receipt noise, not an error.
type LineParser struct {
	filterKeywords     []string
	abbreviations      map[string]string
	enableDebugLogging bool
}

// NewLineParser creates a new line parser with the given configuration.
// Zero-value fields fall back to the built-in keyword and abbreviation tables.
func NewLineParser(config ParserConfig) *LineParser {
	keywords := config.FilterKeywords
	if keywords == nil {
		keywords = defaultFilterKeywords
	}

	abbrevs := config.Abbreviations
	if abbrevs == nil {
		abbrevs = defaultAbbreviations
	}

	return &LineParser{
		filterKeywords:     keywords,
		abbreviations:      abbrevs,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Parse extracts candidate item names from raw multi-line OCR text,
// preserving the receipt's top-to-bottom order.
func (p *LineParser) Parse(text string) []string {
	var candidates []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}

		if p.isFiltered(line) {
			if p.enableDebugLogging {
				log.Printf("[PARSE] Filtered line: %q", line)
			}
			continue
		}

		match := pricePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		name := strings.TrimSpace(match[1])
		name = ocrOneFix.ReplaceAllString(name, "1${1}")
		name = p.expandAbbreviations(name)
		name = strings.ToLower(name)
		name = stripMeasurements(name)

		if p.enableDebugLogging {
			log.Printf("[PARSE] Line %q -> candidate %q", line, name)
		}
		candidates = append(candidates, name)
	}

	return candidates
}

// isFiltered reports whether the line contains a non-item keyword.
func (p *LineParser) isFiltered(line string) bool {
	lower := strings.ToLower(line)
	for _, keyword := range p.filterKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// expandAbbreviations replaces tokens that exactly match a known
// abbreviation (after stripping punctuation and uppercasing) with the
// full product name. All other tokens are kept verbatim.
func (p *LineParser) expandAbbreviations(name string) string {
	words := strings.Fields(name)
	expanded := make([]string, 0, len(words))

	for _, word := range words {
		key := strings.ToUpper(nonWordPattern.ReplaceAllString(word, ""))
		if full, ok := p.abbreviations[key]; ok {
			expanded = append(expanded, full)
		} else {
			expanded = append(expanded, word)
		}
	}

	return strings.Join(expanded, " ")
}

// stripMeasurements removes measurement tokens such as "250 g" or
// "500ml" and trims surrounding whitespace.
func stripMeasurements(name string) string {
	return strings.TrimSpace(measurementPattern.ReplaceAllString(name, ""))
}
