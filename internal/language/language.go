package language

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// modelCodePattern matches codes already shaped like recognition model
// names: a 3-letter base with an optional script suffix (chi_sim, eng,
// aze_cyrl). Those pass through untouched.
var modelCodePattern = regexp.MustCompile(`^[a-z]{3}(_[a-z]+)?$`)

// ToModelCode normalizes a language given as a BCP 47 tag or ISO 639 code
// to the 3-letter code used to name recognition models ("en" -> "eng",
// "zh-Hant" -> "chi_tra", "chi_sim" -> "chi_sim").
func ToModelCode(code string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return "", fmt.Errorf("language is required")
	}
	if modelCodePattern.MatchString(trimmed) {
		return trimmed, nil
	}

	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("language %q: %w", code, err)
	}
	base, _ := tag.Base()
	iso3 := base.ISO3()
	if iso3 == "" {
		return "", fmt.Errorf("language %q has no ISO 639-3 code", code)
	}

	// Chinese models are split by script rather than language subtag.
	if iso3 == "zho" {
		script, _ := tag.Script()
		if script.String() == "Hant" {
			return "chi_tra", nil
		}
		return "chi_sim", nil
	}
	return iso3, nil
}

// DisplayName returns a human-readable English name for a language code,
// or the uppercased code when it is not recognizable.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	// Model codes carry script suffixes the tag parser rejects.
	baseCode, _, _ := strings.Cut(trimmed, "_")
	tag, err := language.Parse(baseCode)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}
