// Package phone normalizes raw phone strings into internationally formatted
// records. Normalization is total: invalid input yields a record with
// IsValid=false, never an error.
package phone

import "strings"

// Record is the normalized form of a phone number. It is a pure derived
// value, recomputed on demand and never mutated.
type Record struct {
	Formatted      string `json:"formatted"`
	CountryCode    string `json:"countryCode"`
	NationalNumber string `json:"nationalNumber"`
	IsValid        bool   `json:"isValid"`
	Country        string `json:"country"`
}

// countryRule matches a dialing code against an accepted total digit length
// range. Rules are tried in declaration order; the first match wins, so the
// order below is part of the contract.
type countryRule struct {
	code      string
	minLength int
	maxLength int
	country   string
}

var countryRules = []countryRule{
	{code: "1", minLength: 11, maxLength: 11, country: "USA/Canada"},
	{code: "51", minLength: 11, maxLength: 11, country: "Peru"},
	{code: "52", minLength: 12, maxLength: 13, country: "Mexico"},
	{code: "57", minLength: 12, maxLength: 12, country: "Colombia"},
	{code: "34", minLength: 11, maxLength: 11, country: "Spain"},
}

// lengthRule infers a default country from the total digit count when no
// dialing code matched.
type lengthRule struct {
	length  int
	country string
	format  func(digits string) string
}

var lengthRules = []lengthRule{
	{length: 10, country: "USA", format: func(d string) string { return "+1" + d }},
	{length: 9, country: "Peru", format: func(d string) string { return "+51" + d }},
	{length: 11, country: "USA", format: func(d string) string {
		if strings.HasPrefix(d, "1") {
			return "+" + d
		}
		return "+1" + d
	}},
}

// Normalize converts a raw phone string into a Record. It strips everything
// except digits and a leading +, then tries the country dialing rules in
// order, then the length rules, then falls back to an assumed USA number for
// anything with at least ten digits.
func Normalize(raw string) Record {
	if raw == "" {
		return Record{Country: "unknown"}
	}

	digits := clean(raw)

	for _, rule := range countryRules {
		if !strings.HasPrefix(digits, rule.code) {
			continue
		}
		if len(digits) < rule.minLength || len(digits) > rule.maxLength {
			continue
		}
		return Record{
			Formatted:      "+" + rule.code + digits[len(rule.code):],
			CountryCode:    "+" + rule.code,
			NationalNumber: digits[len(rule.code):],
			IsValid:        true,
			Country:        rule.country,
		}
	}

	for _, rule := range lengthRules {
		if len(digits) != rule.length {
			continue
		}
		formatted := rule.format(digits)
		return Record{
			Formatted:      formatted,
			CountryCode:    formatted[:len(formatted)-len(digits)],
			NationalNumber: digits,
			IsValid:        true,
			Country:        rule.country,
		}
	}

	if len(digits) >= 10 {
		return Record{
			Formatted:      "+1" + digits,
			CountryCode:    "+1",
			NationalNumber: digits,
			IsValid:        false,
			Country:        "USA (assumed)",
		}
	}

	return Record{
		Formatted:      digits,
		NationalNumber: digits,
		Country:        "unknown",
	}
}

// clean strips all characters except digits, then drops a leading + so the
// remaining string is pure digits.
func clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			continue
		}
	}
	return b.String()
}
