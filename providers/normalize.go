package providers

import (
	"strconv"
	"strings"
)

// formatTokens is the fixed detection priority: first match wins.
// VHS > DVD > Blu-ray > 4K UHD > LaserDisc.
var formatTokens = []struct {
	tokens []string
	format MediaFormat
}{
	{[]string{"VHS"}, FormatVHS},
	{[]string{"DVD"}, FormatDVD},
	{[]string{"BLU-RAY", "BLURAY"}, FormatBluRay},
	{[]string{"4K", "UHD"}, Format4K},
	{[]string{"LASERDISC"}, FormatLaserDisc},
}

// DetectFormat scans a free-text title for format tokens, case-insensitively.
// This is a heuristic over listing titles, not authoritative metadata.
func DetectFormat(title string) MediaFormat {
	upper := strings.ToUpper(title)
	for _, entry := range formatTokens {
		for _, token := range entry.tokens {
			if strings.Contains(upper, token) {
				return entry.format
			}
		}
	}
	return FormatUnknown
}

const (
	BucketBudget  = "Budget"
	BucketLow     = "Low"
	BucketMedium  = "Medium"
	BucketHigh    = "High"
	BucketPremium = "Premium"
)

// PriceBucket categorizes a price into ordered display bands.
func PriceBucket(amount float64) string {
	switch {
	case amount < 5:
		return BucketBudget
	case amount < 15:
		return BucketLow
	case amount < 50:
		return BucketMedium
	case amount < 100:
		return BucketHigh
	default:
		return BucketPremium
	}
}

// SellerReputation tiers marketplace feedback into a coarse label.
func SellerReputation(score int, percent float64) string {
	switch {
	case score >= 1000 && percent >= 99:
		return "Excellent"
	case score >= 500 && percent >= 98:
		return "Very Good"
	case score >= 100 && percent >= 95:
		return "Good"
	case score >= 10 && percent >= 90:
		return "Fair"
	default:
		return "New/Limited"
	}
}

// completeness reports the percentage of important fields that are filled,
// rounded to one decimal place.
func completeness(present ...bool) float64 {
	if len(present) == 0 {
		return 0
	}
	filled := 0
	for _, ok := range present {
		if ok {
			filled++
		}
	}
	pct := float64(filled) / float64(len(present)) * 100
	return float64(int(pct*10+0.5)) / 10
}

// clampLimit bounds a caller-supplied page size to [1, max], substituting the
// provider default when unset.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// safeInt parses ints from provider payloads that use "N/A" placeholders and
// year ranges like "2019–2020".
func safeInt(value string) int {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0
	}
	for _, sep := range []string{"–", "-"} {
		if idx := strings.Index(value, sep); idx > 0 {
			value = value[:idx]
			break
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}

func safeFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" || value == "N/A" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// yearOf extracts the year from an ISO release date such as "1993-06-11".
func yearOf(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}
