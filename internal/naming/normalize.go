// Package naming turns raw executable identifiers into display labels.
package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const executableSuffix = ".exe"

// Checked in order; the first one present in the name is used for splitting.
var separators = []string{"-", "_", "."}

var capitalizedWord = regexp.MustCompile(`([A-Z][a-z]+)`)

// Normalize converts a raw executable name into a human readable label.
//
// The transform is meant to be applied once, to the raw identifier only.
// Re-normalizing a label may change its spacing.
func Normalize(raw string) string {
	name := trimExecutableSuffix(raw)

	for _, sep := range separators {
		if strings.Contains(name, sep) {
			return titleSegments(strings.Split(name, sep))
		}
	}

	if isLowerOrDigit(name) {
		return upperFirst(name)
	}

	spaced := capitalizedWord.ReplaceAllString(name, " $1")
	return strings.Join(strings.Fields(spaced), " ")
}

func trimExecutableSuffix(name string) string {
	if len(name) >= len(executableSuffix) &&
		strings.EqualFold(name[len(name)-len(executableSuffix):], executableSuffix) {
		return name[:len(name)-len(executableSuffix)]
	}
	return name
}

func titleSegments(segments []string) string {
	titled := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		titled = append(titled, upperFirst(segment))
	}
	return strings.Join(titled, " ")
}

func isLowerOrDigit(name string) bool {
	for _, r := range name {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
