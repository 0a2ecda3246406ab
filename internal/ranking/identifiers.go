package ranking

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxBallotSize bounds the number of DJs a single ballot may name.
	MaxBallotSize = 5

	maxNameLength      = 190
	maxCountryLength   = 64
	maxInstagramLength = 190
	maxURLLength       = 512
	minYear            = 2000
	maxYear            = 2100
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	countryPattern    = regexp.MustCompile(`^\p{L}[\p{L} .'-]*$`)
)

var instagramPrefixes = []string{
	"https://www.instagram.com/",
	"http://www.instagram.com/",
	"https://instagram.com/",
	"http://instagram.com/",
	"www.instagram.com/",
	"instagram.com/",
}

// NormalizeName trims the value and collapses inner whitespace.
func NormalizeName(raw string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(raw, " "))
}

// NameKey returns the case folded lookup key used for de-duplication.
func NameKey(raw string) string {
	return strings.ToLower(NormalizeName(raw))
}

// NormalizeCountry validates a country and returns its stored, upper-cased form.
func NormalizeCountry(raw string) (string, error) {
	country := strings.ToUpper(NormalizeName(raw))
	if country == "" {
		return "", invalidInput("country is required")
	}
	if len(country) > maxCountryLength {
		return "", invalidInput("country exceeds %d characters", maxCountryLength)
	}
	if !countryPattern.MatchString(country) {
		return "", invalidInput("country %q may only contain letters, spaces, dots, apostrophes and hyphens", country)
	}
	return country, nil
}

// ValidateYear ensures the year lies in the supported range.
func ValidateYear(year int) error {
	if year < minYear || year > maxYear {
		return invalidInput("year %d outside %d-%d", year, minYear, maxYear)
	}
	return nil
}

// NormalizeInstagram reduces profile URLs and @handles to the bare handle.
func NormalizeInstagram(raw string) string {
	handle := strings.TrimSpace(raw)
	lowered := strings.ToLower(handle)
	for _, prefix := range instagramPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			handle = handle[len(prefix):]
			break
		}
	}
	if index := strings.IndexAny(handle, "?#"); index >= 0 {
		handle = handle[:index]
	}
	handle = strings.Trim(handle, "/")
	handle = strings.TrimPrefix(handle, "@")
	return strings.ToLower(strings.TrimSpace(handle))
}

func normalizeRequiredName(raw string) (string, error) {
	name := NormalizeName(raw)
	if name == "" {
		return "", invalidInput("name is required")
	}
	if len(name) > maxNameLength {
		return "", invalidInput("name exceeds %d characters", maxNameLength)
	}
	return name, nil
}

func normalizeCountryYear(rawCountry string, year int) (string, error) {
	country, err := NormalizeCountry(rawCountry)
	if err != nil {
		return "", err
	}
	if err := ValidateYear(year); err != nil {
		return "", err
	}
	return country, nil
}

func periodID(country string, year int) string {
	return fmt.Sprintf("%s_%d", country, year)
}

// voteID length-prefixes the user id so no two (user, country, year) triples
// share an id.
func voteID(userID, country string, year int) string {
	return fmt.Sprintf("%d:%s_%s_%d", len(userID), userID, country, year)
}
