package providers

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		title string
		want  MediaFormat
	}{
		{"Jurassic Park VHS (1993)", FormatVHS},
		{"The Matrix DVD Widescreen", FormatDVD},
		{"Blade Runner Blu-Ray Director's Cut", FormatBluRay},
		{"Inception BLURAY steelbook", FormatBluRay},
		{"Dune 4K UHD", Format4K},
		{"Akira LaserDisc Japan import", FormatLaserDisc},
		{"Movie poster original 1977", FormatUnknown},
		// VHS wins over any later token.
		{"Star Wars VHS to DVD transfer", FormatVHS},
		// DVD outranks Blu-ray and 4K in a combo listing.
		{"Top Gun DVD + Blu-ray + 4K combo", FormatDVD},
		{"", FormatUnknown},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.title); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestPriceBucket(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, BucketBudget},
		{4.99, BucketBudget},
		{5, BucketLow},
		{14.99, BucketLow},
		{15, BucketMedium},
		{49.99, BucketMedium},
		{50, BucketHigh},
		{99.99, BucketHigh},
		{100, BucketPremium},
		{2500, BucketPremium},
	}
	for _, tt := range tests {
		if got := PriceBucket(tt.amount); got != tt.want {
			t.Errorf("PriceBucket(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestSellerReputation(t *testing.T) {
	tests := []struct {
		score   int
		percent float64
		want    string
	}{
		{5000, 99.8, "Excellent"},
		{1000, 99, "Excellent"},
		{999, 99.9, "Very Good"},
		{500, 98, "Very Good"},
		{100, 95, "Good"},
		{10, 90, "Fair"},
		{5, 100, "New/Limited"},
		{2000, 80, "New/Limited"},
		{0, 0, "New/Limited"},
	}
	for _, tt := range tests {
		if got := SellerReputation(tt.score, tt.percent); got != tt.want {
			t.Errorf("SellerReputation(%d, %v) = %q, want %q", tt.score, tt.percent, got, tt.want)
		}
	}
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		present []bool
		want    float64
	}{
		{"all", []bool{true, true, true, true}, 100},
		{"none", []bool{false, false, false, false}, 0},
		{"half", []bool{true, false, true, false}, 50},
		{"third", []bool{true, false, false}, 33.3},
		{"two thirds", []bool{true, true, false}, 66.7},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := completeness(tt.present...); got != tt.want {
				t.Errorf("completeness = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		limit, def, max, want int
	}{
		{0, 50, 200, 50},
		{-3, 50, 200, 50},
		{1, 50, 200, 1},
		{200, 50, 200, 200},
		{201, 50, 200, 200},
		{999, 20, 100, 100},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.limit, tt.def, tt.max); got != tt.want {
			t.Errorf("clampLimit(%d, %d, %d) = %d, want %d", tt.limit, tt.def, tt.max, got, tt.want)
		}
	}
}

func TestSafeInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1999", 1999},
		{" 2005 ", 2005},
		{"N/A", 0},
		{"", 0},
		{"2019–2020", 2019},
		{"2019-2020", 2019},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := safeInt(tt.in); got != tt.want {
			t.Errorf("safeInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1993-06-11", 1993},
		{"2021", 2021},
		{"", 0},
		{"19", 0},
		{"abcd-01-01", 0},
	}
	for _, tt := range tests {
		if got := yearOf(tt.in); got != tt.want {
			t.Errorf("yearOf(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseRuntime(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"136 min", 136},
		{"90", 90},
		{"N/A", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseRuntime(tt.in); got != tt.want {
			t.Errorf("parseRuntime(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMapEbayCondition(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"1000", "New"},
		{"2750", "Like New"},
		{"3000", "Used"},
		{"7000", "For Parts or Not Working"},
		{"9999", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := mapEbayCondition(tt.id); got != tt.want {
			t.Errorf("mapEbayCondition(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
