package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UtilityService provides the pure field decoders used when parsing scraped
// listing and detail pages: percentages, integers with thousands separators,
// suffixed capital amounts, and the "N/A" sentinel.
type UtilityService struct{}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{}
}

// capitalSuffixes maps market-cap magnitude suffixes to their power of ten
var capitalSuffixes = map[byte]int{
	'K': 3,
	'M': 6,
	'B': 9,
	'T': 12,
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTextContent cleans and standardizes text content for consistent processing
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}

	text = strings.TrimSpace(text)
	text = whitespaceRegex.ReplaceAllString(text, " ")

	return text
}

// IsNotApplicable reports the listing site's "not applicable" sentinel,
// matched case-insensitively anywhere in the value.
func (s *UtilityService) IsNotApplicable(text string) bool {
	return strings.Contains(strings.ToLower(text), "n/a")
}

// ParseFloat parses a float value, stripping thousands separators and whitespace
func (s *UtilityService) ParseFloat(text string) (float64, error) {
	cleaned := strings.ReplaceAll(text, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as float: %w", text, err)
	}
	return value, nil
}

// ParseInt parses an integer value, stripping thousands separators and whitespace
func (s *UtilityService) ParseInt(text string) (int64, error) {
	cleaned := strings.ReplaceAll(text, ",", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as integer: %w", text, err)
	}
	return value, nil
}

// ParseFirstElement parses the first whitespace-delimited token of the value
// as a float. Used for fields like "Dividend (Yield)" where the site renders
// "2.28 (1.56%)".
func (s *UtilityService) ParseFirstElement(text string) (float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("cannot parse first element of empty value")
	}
	return s.ParseFloat(fields[0])
}

// ParseCapital decodes a suffixed capital amount such as "1.5B" or "250K".
// The final character selects the magnitude (K, M, B, T); the leading numeric
// portion is scaled by it and truncated to an integer.
func (s *UtilityService) ParseCapital(text string) (int64, error) {
	cleaned := strings.TrimSpace(text)
	if len(cleaned) < 2 {
		return 0, fmt.Errorf("cannot parse %q as capital amount", text)
	}

	suffix := cleaned[len(cleaned)-1]
	power, ok := capitalSuffixes[suffix]
	if !ok {
		return 0, fmt.Errorf("unknown capital suffix %q in %q", string(suffix), text)
	}

	number, err := s.ParseFloat(cleaned[:len(cleaned)-1])
	if err != nil {
		return 0, err
	}

	multiplier := int64(1)
	for i := 0; i < power; i++ {
		multiplier *= 10
	}

	return int64(number * float64(multiplier)), nil
}
