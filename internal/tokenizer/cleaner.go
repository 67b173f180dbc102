package tokenizer

import (
	"context"
	"regexp"
	"strings"
)

// noisePatterns strip the banking noise that wraps the actual merchant
// name in export rows: SEPA tags, card terminal prefixes, account
// numbers, timestamps, and long opaque identifiers.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(sepa|ideal|incasso|acceptgiro|betaalautomaat|betaalpas|geldautomaat|bea|ccv|apple pay|google pay)\b`),
	regexp.MustCompile(`(?i)\b(trtp|trct|iban|bic|csid|eref|remi|name|marf|kref|mandaat)\b[:/]?`),
	regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,}\b`), // IBANs
	regexp.MustCompile(`\b[A-Za-z0-9]{16,}\b`),           // long opaque ids
	regexp.MustCompile(`\b\d{2}[-/.]\d{2}[-/.]\d{2,4}\b`),
	regexp.MustCompile(`\b\d{2}:\d{2}(:\d{2})?\b`),
	regexp.MustCompile(`\bpas\s*\d+\b|\bPAS\d+\b`),
	regexp.MustCompile(`[*#]+\w*`),
}

// bannedTags are structural SEPA/export field markers that survive the
// regex pass when they appear as standalone segments.
var bannedTags = map[string]struct{}{
	"trtp": {}, "trct": {}, "iban": {}, "bic": {}, "csid": {}, "eref": {},
	"remi": {}, "name": {}, "marf": {}, "nr": {}, "bea": {}, "sepa": {},
	"pas": {}, "val": {}, "kref": {}, "omschrijving": {}, "mededelingen": {},
	"kenmerk": {}, "betalingskenmerk": {}, "incasso": {}, "algemeen": {},
	"doorlopend": {}, "euro": {}, "munt": {}, "code": {}, "betaling": {},
	"acceptgiro": {}, "spoed": {}, "credit": {}, "debit": {}, "boekdatum": {},
}

var segmentSplit = regexp.MustCompile(`[/:*;|]+|\s{2,}|,`)

// HeuristicCleaner is the deterministic fallback tokenizer. It is used
// standalone when no model endpoint is configured, and as the degraded
// path when the gateway fails.
type HeuristicCleaner struct{}

// NewHeuristicCleaner creates the deterministic fallback tokenizer.
func NewHeuristicCleaner() *HeuristicCleaner {
	return &HeuristicCleaner{}
}

// TokenizeBatch cleans each description independently; it never fails.
func (h *HeuristicCleaner) TokenizeBatch(_ context.Context, descriptions []string) ([]string, error) {
	tokens := make([]string, len(descriptions))
	for i, d := range descriptions {
		tokens[i] = Clean(d)
	}
	return tokens, nil
}

// Clean strips banking noise from one description and returns the core
// merchant text. If stripping removes everything, the trimmed original
// is returned instead: a noisy token still beats an empty one.
func Clean(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}

	segments := segmentSplit.Split(description, -1)
	var kept []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if _, banned := bannedTags[strings.ToLower(seg)]; banned {
			continue
		}
		kept = append(kept, seg)
	}

	cleaned := strings.Join(kept, " ")
	for _, pattern := range noisePatterns {
		cleaned = pattern.ReplaceAllString(cleaned, " ")
	}

	// Drop leftover purely numeric fragments and single characters.
	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) < 2 || isNumeric(w) {
			continue
		}
		words = append(words, w)
	}

	result := strings.Join(words, " ")
	if result == "" {
		return strings.TrimSpace(description)
	}
	return result
}

func isNumeric(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' && r != '-' {
			return false
		}
	}
	return true
}
