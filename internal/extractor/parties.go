// =============================================================================
// Invoice QC - Party Extraction
// =============================================================================
//
// Buyer and seller attributes are recovered through ordered fallback chains.
// Each tier is an explicit matcher; the chain stops at the first tier that
// produces a value.
//
// CHAINS:
//   buyer_name     : "Kundenanschrift" label + next line
//                    -> company-suffix pattern (GmbH, AG, Unternehmen, Corporation)
//   buyer_address  : street, number, city and postcode block
//                    -> street line ending in "Deutschland" (case-insensitive)
//   seller_name    : uppercase legal-entity pattern ("ABC Corporation")
//                    -> line after "Ihre Faxnummer:" (must look like a name)
//   seller_address : first "letters + number + 10..80 chars" run within the
//                    200 characters that follow the seller name
//
// =============================================================================

package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// matcher is one tier of a fallback chain.
type matcher func(text string) (string, bool)

// firstOf returns a matcher that tries each tier in order.
func firstOf(tiers ...matcher) matcher {
	return func(text string) (string, bool) {
		for _, tier := range tiers {
			if v, ok := tier(text); ok {
				return v, true
			}
		}
		return "", false
	}
}

// capture builds a tier from a pattern; group 1 is trimmed and returned.
func capture(re *regexp.Regexp) matcher {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	}
}

// accept wraps a tier with a predicate on the produced value.
func accept(tier matcher, ok func(string) bool) matcher {
	return func(text string) (string, bool) {
		v, found := tier(text)
		if !found || !ok(v) {
			return "", false
		}
		return v, true
	}
}

// =============================================================================
// PATTERNS
// =============================================================================

var (
	reBuyerLabel   = regexp.MustCompile(`Kundenanschrift[\s\n]+([^\n]+)`)
	reBuyerCompany = regexp.MustCompile(`([\p{L}\p{N}_\s]+(?:GmbH|AG|Unternehmen|Corporation))`)

	reBuyerAddress    = regexp.MustCompile(`([A-ZÄÖÜa-zäöüß\-.]+str\.?\s+\d+[^,]*,\s*[^,]+,\s*[\p{L}\p{N}_]+\s+\d{5}[^\n]*)`)
	reBuyerAddressAlt = regexp.MustCompile(`(?i)([\p{L}\p{N}_\-.]+str\.?\s+\d+[^\n]+Deutschland)`)

	reSellerEntity = regexp.MustCompile(`([A-Z]{3,}\s+Corporation)`)
	reSellerFax    = regexp.MustCompile(`Ihre Faxnummer:[^\n]+\n([^\n]+)`)

	reSellerAddress = regexp.MustCompile(`([A-ZÄÖÜa-zäöüß\s]+\d+[^\n]{10,80})`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// sellerAddressWindow is the number of characters searched after the
// seller name.
const sellerAddressWindow = 200

// =============================================================================
// CHAINS
// =============================================================================

var (
	buyerName = firstOf(
		capture(reBuyerLabel),
		capture(reBuyerCompany),
	)

	buyerAddress = firstOf(
		capture(reBuyerAddress),
		capture(reBuyerAddressAlt),
	)

	sellerName = firstOf(
		capture(reSellerEntity),
		accept(capture(reSellerFax), looksLikeName),
	)
)

// looksLikeName rejects short values and bare numbers such as a second
// fax line.
func looksLikeName(v string) bool {
	return utf8.RuneCountInString(v) > 5 && !isDigits(v)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// sellerAddress searches the text that follows the first occurrence of name.
func sellerAddress(text, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	idx := strings.Index(text, name)
	if idx < 0 {
		return "", false
	}
	window := firstRunes(text[idx+len(name):], sellerAddressWindow)
	m := reSellerAddress.FindStringSubmatch(window)
	if m == nil {
		return "", false
	}
	addr := strings.TrimSpace(m[1])
	return reWhitespace.ReplaceAllString(addr, " "), true
}

func firstRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
