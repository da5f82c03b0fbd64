package internal

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

var (
	// For currency detection the most specific variable wins
	monetaryLocaleVars = []string{"LC_MONETARY", "LC_ALL", "LANG"}
	// Collation follows POSIX precedence
	collateLocaleVars = []string{"LC_ALL", "LC_COLLATE", "LANG"}
)

// skipSystemLocale can be set in tests to skip OS-level locale detection
var skipSystemLocale = false

// detectSystemLocale returns the first usable locale among the given environment
// variables, then the OS preference, or empty string
func detectSystemLocale(vars []string) string {
	if locale := envLocale(vars); locale != "" {
		return locale
	}
	if skipSystemLocale {
		return ""
	}
	return osLocale()
}

func envLocale(vars []string) string {
	for _, envVar := range vars {
		locale := os.Getenv(envVar)
		if locale != "" && locale != "C" && locale != "POSIX" {
			return locale
		}
	}
	return ""
}

// localeToTag converts a POSIX locale such as "sv_SE.UTF-8@euro" to a language tag
func localeToTag(locale string) language.Tag {
	base := locale
	if idx := strings.Index(base, "."); idx != -1 {
		base = base[:idx]
	}
	if idx := strings.Index(base, "@"); idx != -1 {
		base = base[:idx]
	}
	if base == "" {
		return language.Und
	}
	tag, err := language.Parse(strings.Replace(base, "_", "-", 1))
	if err != nil {
		return language.Und
	}
	return tag
}

// CollationTag picks the ordering language: the configured locale if any, then
// the environment, then English
func CollationTag(configured string) language.Tag {
	if configured != "" {
		if tag := localeToTag(configured); tag != language.Und {
			return tag
		}
	}
	if tag := localeToTag(detectSystemLocale(collateLocaleVars)); tag != language.Und {
		return tag
	}
	return language.English
}
