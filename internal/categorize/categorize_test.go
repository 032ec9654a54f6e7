package categorize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  McDonald's #1234  ", "mcdonalds 1234"},
		{"UBER   *TRIP\tHELSINKI", "uber trip helsinki"},
		{"___", ""},
		{"", ""},
		{"Already clean", "already clean"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategorizeRulesFirstMatchWins(t *testing.T) {
	engine := NewEngine()
	rules := []MerchantRule{
		{ID: 1, Pattern: "starbucks", MatchType: MatchPartial, CategoryID: 10, IsActive: true},
		{ID: 2, Pattern: "STARBUCKS COFFEE 441", MatchType: MatchExact, CategoryID: 20, IsActive: true},
	}
	got := engine.Categorize("Starbucks Coffee #441", rules, nil)
	if got == nil || *got != 10 {
		t.Fatalf("got %v, want 10 (earlier rule must win)", got)
	}

	// Reversed order flips the outcome: order is semantic.
	reversed := []MerchantRule{rules[1], rules[0]}
	got = engine.Categorize("Starbucks Coffee #441", reversed, nil)
	if got == nil || *got != 20 {
		t.Fatalf("got %v, want 20 after reordering", got)
	}
}

func TestCategorizeRuleMatching(t *testing.T) {
	engine := NewEngine()
	tests := []struct {
		name     string
		merchant string
		rule     MerchantRule
		want     *int64
	}{
		{
			"exact match",
			"NETFLIX.COM",
			MerchantRule{Pattern: "netflix.com", MatchType: MatchExact, CategoryID: 5, IsActive: true},
			ptr(5),
		},
		{
			"exact rejects superstring",
			"NETFLIX.COM MONTHLY",
			MerchantRule{Pattern: "netflix.com", MatchType: MatchExact, CategoryID: 5, IsActive: true},
			nil,
		},
		{
			// Stripped punctuation does not become a space: "NETFLIX.COM"
			// normalizes to "netflixcom", never "netflix com".
			"exact rejects spaced variant of punctuated merchant",
			"NETFLIX.COM",
			MerchantRule{Pattern: "netflix com", MatchType: MatchExact, CategoryID: 5, IsActive: true},
			nil,
		},
		{
			"partial matches substring",
			"POS UBER TRIP 99213",
			MerchantRule{Pattern: "uber", MatchType: MatchPartial, CategoryID: 7, IsActive: true},
			ptr(7),
		},
		{
			"inactive rule skipped",
			"POS UBER TRIP 99213",
			MerchantRule{Pattern: "uber", MatchType: MatchPartial, CategoryID: 7, IsActive: false},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Categorize(tt.merchant, []MerchantRule{tt.rule}, nil)
			if !sameID(got, tt.want) {
				t.Errorf("Categorize(%q) = %v, want %v", tt.merchant, got, tt.want)
			}
		})
	}
}

func TestCategorizeTaxonomy(t *testing.T) {
	engine := NewEngine()
	categories := []Category{
		{ID: 1, Name: "Food & Dining"},
		{ID: 2, Name: "Transportation"},
		{ID: 3, Name: "Shopping"},
	}
	tests := []struct {
		merchant string
		want     *int64
	}{
		{"STARBUCKS COFFEE #441", ptr(1)},
		{"GRAB RIDE SG", ptr(2)},
		{"AMAZON MARKETPLACE", ptr(3)},
		{"ACME PLUMBING", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := engine.Categorize(tt.merchant, nil, categories)
		if !sameID(got, tt.want) {
			t.Errorf("Categorize(%q) = %v, want %v", tt.merchant, got, tt.want)
		}
	}

	// A taxonomy hit with no matching user category stays nil.
	if got := engine.Categorize("STARBUCKS", nil, []Category{{ID: 9, Name: "Rent"}}); got != nil {
		t.Errorf("got %v, want nil without a food category", got)
	}
}

func TestCategorizeRulesBeatTaxonomy(t *testing.T) {
	engine := NewEngine()
	categories := []Category{{ID: 1, Name: "Food & Dining"}}
	rules := []MerchantRule{{Pattern: "starbucks", MatchType: MatchPartial, CategoryID: 99, IsActive: true}}
	got := engine.Categorize("STARBUCKS COFFEE", rules, categories)
	if got == nil || *got != 99 {
		t.Errorf("got %v, want 99 (user rule over taxonomy)", got)
	}
}

func ptr(v int64) *int64 { return &v }

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
