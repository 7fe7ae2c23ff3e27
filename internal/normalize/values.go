// Package normalize converts raw cell text into typed canonical values and
// applies a field mapping to whole rows. Every conversion function is total:
// it returns a typed value plus an ok flag rather than panicking or guessing.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/vendata/vendata/internal/domain"
)

// dateLayouts are tried in priority order. ISO first, then UK day-first,
// then US month-first, dotted and slash variants, then datetime forms.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006 15:04",
	"2 January 2006",
	"January 2, 2006",
}

// trueTokens are the boolean spellings accepted as true. Everything else,
// including empty text, is false.
var trueTokens = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "on": true, "enabled": true,
}

// currencyStripper removes currency symbols, thousands separators, and
// whitespace before numeric parsing.
var currencyStripper = strings.NewReplacer(
	"£", "", "$", "", "€", "", ",", "", " ", "", " ", "",
)

// ParseBool interprets boolean-like text. Only the known true tokens map to
// true; the ok flag reports whether the text was non-empty.
func ParseBool(raw string) (bool, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return false, false
	}
	return trueTokens[s], true
}

// ParseNumber parses a numeric cell after stripping currency decoration.
func ParseNumber(raw string) (float64, bool) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInteger parses an integer cell, tolerating float representations that
// convert losslessly.
func ParseInteger(raw string) (int, bool) {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return int(f), true
	}
	return 0, false
}

// ParseDate tries each known layout in priority order.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// statusVocabulary maps normalized decision text to status buckets. Anything
// outside the vocabulary is StatusOther, never an error.
var statusVocabulary = map[string]domain.FinanceDecisionStatus{
	"approved": domain.StatusApproved,
	"approve":  domain.StatusApproved,
	"accepted": domain.StatusApproved,
	"accept":   domain.StatusApproved,
	"yes":      domain.StatusApproved,

	"declined": domain.StatusDeclined,
	"decline":  domain.StatusDeclined,
	"rejected": domain.StatusDeclined,
	"reject":   domain.StatusDeclined,
	"refused":  domain.StatusDeclined,

	"pending":      domain.StatusPending,
	"in_progress":  domain.StatusPending,
	"referred":     domain.StatusPending,
	"under_review": domain.StatusPending,
	"awaiting":     domain.StatusPending,

	"cancelled": domain.StatusCancelled,
	"canceled":  domain.StatusCancelled,
	"withdrawn": domain.StatusCancelled,
	"abandoned": domain.StatusCancelled,
}

// ParseDecisionStatus matches decision text case and separator insensitively.
func ParseDecisionStatus(raw string) domain.FinanceDecisionStatus {
	s := collapseToken(raw)
	if s == "" {
		return domain.StatusOther
	}
	if status, ok := statusVocabulary[s]; ok {
		return status
	}
	return domain.StatusOther
}

var channelVocabulary = map[string]domain.SalesChannel{
	"online":    domain.ChannelOnline,
	"web":       domain.ChannelOnline,
	"ecommerce": domain.ChannelOnline,
	"internet":  domain.ChannelOnline,

	"in_store": domain.ChannelInStore,
	"store":    domain.ChannelInStore,
	"showroom": domain.ChannelInStore,
	"retail":   domain.ChannelInStore,
	"branch":   domain.ChannelInStore,

	"telephone": domain.ChannelTelephone,
	"phone":     domain.ChannelTelephone,
	"call":      domain.ChannelTelephone,

	"partner":     domain.ChannelPartner,
	"reseller":    domain.ChannelPartner,
	"marketplace": domain.ChannelPartner,
}

// ParseSalesChannel normalizes channel text; unknown text yields ok=false and
// the caller leaves the dimension unset.
func ParseSalesChannel(raw string) (domain.SalesChannel, bool) {
	ch, ok := channelVocabulary[collapseToken(raw)]
	return ch, ok
}

var segmentVocabulary = map[string]domain.CustomerSegment{
	"consumer":   domain.SegmentConsumer,
	"retail":     domain.SegmentConsumer,
	"individual": domain.SegmentConsumer,
	"b2c":        domain.SegmentConsumer,

	"business":   domain.SegmentBusiness,
	"commercial": domain.SegmentBusiness,
	"corporate":  domain.SegmentBusiness,
	"b2b":        domain.SegmentBusiness,
	"sme":        domain.SegmentBusiness,

	"public_sector": domain.SegmentPublic,
	"public":        domain.SegmentPublic,
	"government":    domain.SegmentPublic,

	"charity":    domain.SegmentCharity,
	"non_profit": domain.SegmentCharity,
	"nonprofit":  domain.SegmentCharity,
}

// ParseCustomerSegment normalizes segment text.
func ParseCustomerSegment(raw string) (domain.CustomerSegment, bool) {
	seg, ok := segmentVocabulary[collapseToken(raw)]
	return seg, ok
}

// ParseCurrency uppercases a three-letter currency code.
func ParseCurrency(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) != 3 {
		return "", false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return s, true
}

var countryAliases = map[string]string{
	"uk":             "GB",
	"united_kingdom": "GB",
	"great_britain":  "GB",
	"england":        "GB",
	"usa":            "US",
	"united_states":  "US",
	"america":        "US",
	"ireland":        "IE",
	"france":         "FR",
	"germany":        "DE",
	"spain":          "ES",
	"netherlands":    "NL",
}

// ParseCountry resolves country text to a two-letter code. Two-letter input
// is uppercased as-is; common full names go through the alias table.
func ParseCountry(raw string) (string, bool) {
	s := collapseToken(raw)
	if s == "" {
		return "", false
	}
	if code, ok := countryAliases[s]; ok {
		return code, true
	}
	if len(s) == 2 {
		return strings.ToUpper(s), true
	}
	return "", false
}

// ParseVendorID normalizes a vendor identifier: lowercased, separators
// collapsed to hyphens.
func ParseVendorID(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if s == "" {
		return "", false
	}
	return s, true
}

// CleanString trims surrounding whitespace and quote characters.
func CleanString(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), "\"'")
}

// collapseToken lowercases text and collapses separators to underscores so
// "In Store", "in-store" and "IN_STORE" compare equal.
func collapseToken(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, "\"'")
	for _, sep := range []string{" ", "-", ".", "/"} {
		s = strings.ReplaceAll(s, sep, "_")
	}
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}
