package catalog

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify lowercases name, turns each whitespace run into a hyphen and drops
// everything outside [a-z0-9-]. Accented letters are dropped, not transliterated.
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

var Categories = []string{
	"processador",
	"placa-mae",
	"placa-de-video",
	"memoria-ram",
	"ssd",
	"fonte",
	"gabinete",
}

func knownCategory(c string) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}
