// Package collector turns raw Telegram channel history into the cleaned,
// filtered content batch the preprocessor consumes: promotional-message
// filtering, URL stripping, and minimum-length gating, ported from the
// original system's message_processor.py.
package collector

import (
	"net/url"
	"regexp"
	"strings"
)

// defaultBlockedDomains mirrors MessageProcessor's hardcoded blocklist —
// URL shorteners and shopping sites whose links never carry editorial
// content worth narrating.
var defaultBlockedDomains = []string{
	"bit.ly",
	"goo.gl",
	"tinyurl.com",
	"aliexpress.com",
	"amazon.com",
	"ebay.com",
	"shop.com",
	"buy.com",
}

// promoMarkers are literal substrings (Hebrew and English) that flag a
// message as an advertisement regardless of where they appear.
var promoMarkers = []string{
	"תוכן פרסומי",
	"תוכן שיווקי",
	"פרסומת",
	"מודעה",
	"sponsored",
	"ad",
	"advertisement",
	"קישור לרכישה",
	"לרכישה:",
	"לרכישה כאן",
	"קנו עכשיו",
	"buy now",
	"shop now",
	"affiliate",
	"°",
}

// promoPatterns catch priced listings and discount codes that promo
// markers alone would miss.
var promoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`₪\s*\d+`),
	regexp.MustCompile(`\$\s*\d+`),
	regexp.MustCompile(`\d+\s*₪`),
	regexp.MustCompile(`\d+\s*\$`),
	regexp.MustCompile(`(?:קופון|קוד הנחה|הנחה|מבצע):?\s*[A-Za-z0-9]+`),
}

var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z0-9$\-_@.&+!*(),]|%[0-9a-fA-F]{2})+`)

var multiNewlinePattern = regexp.MustCompile(`\n\s*\n`)

// Filter applies the blocked-domain list (default plus any per-podcast
// additions) to incoming messages.
type Filter struct {
	blockedDomains map[string]bool
}

// NewFilter builds a Filter seeded with defaultBlockedDomains plus any
// podcast-specific additions.
func NewFilter(additionalDomains []string) *Filter {
	blocked := make(map[string]bool, len(defaultBlockedDomains)+len(additionalDomains))
	for _, d := range defaultBlockedDomains {
		blocked[d] = true
	}
	for _, d := range additionalDomains {
		blocked[d] = true
	}
	return &Filter{blockedDomains: blocked}
}

// CleanText strips URLs (blocked-domain ones entirely, others in place)
// and collapses runs of blank lines, matching MessageProcessor.clean_text.
func (f *Filter) CleanText(text string) string {
	if text == "" {
		return ""
	}

	for domain := range f.blockedDomains {
		blockedPattern := regexp.MustCompile(`https?://[^\s<>"]*?` + regexp.QuoteMeta(domain) + `[^\s<>"]*`)
		text = blockedPattern.ReplaceAllString(text, "")
	}

	text = urlPattern.ReplaceAllString(text, "")
	text = multiNewlinePattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractURLs returns every URL in text whose domain is not on the
// blocklist.
func (f *Filter) ExtractURLs(text string) []string {
	if text == "" {
		return nil
	}

	var out []string
	for _, raw := range urlPattern.FindAllString(text, -1) {
		if !f.isBlockedURL(raw) {
			out = append(out, raw)
		}
	}
	return out
}

func (f *Filter) isBlockedURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		// Matches should_include_url's fallback: an unparsable URL is
		// never filtered, only ones confirmed to match a blocked domain.
		return false
	}
	domain := parsed.Host
	for blocked := range f.blockedDomains {
		if matchesDomain(domain, blocked) {
			return true
		}
	}
	return false
}

// matchesDomain reproduces _should_filter_domain's prefix-driven pattern
// language: "exact:", "starts:", "ends:", and a default "contains" match.
func matchesDomain(domain, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "exact:"):
		return domain == pattern[len("exact:"):]
	case strings.HasPrefix(pattern, "starts:"):
		return strings.HasPrefix(domain, pattern[len("starts:"):])
	case strings.HasPrefix(pattern, "ends:"):
		return strings.HasSuffix(domain, pattern[len("ends:"):])
	case strings.HasPrefix(pattern, "contains:"):
		return strings.Contains(domain, pattern[len("contains:"):])
	default:
		return strings.Contains(domain, pattern)
	}
}

// IsPromotional reports whether text carries an advertising marker or
// priced-listing pattern, matching MessageProcessor.is_promotional.
func IsPromotional(text string) bool {
	if text == "" {
		return false
	}
	for _, marker := range promoMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	for _, p := range promoPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// ShouldInclude rejects messages too short to carry editorial content,
// matching MessageProcessor.should_include's length gates.
func ShouldInclude(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 5 {
		return false
	}
	if len(strings.Fields(trimmed)) < 3 {
		return false
	}
	return true
}
