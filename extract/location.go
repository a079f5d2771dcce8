package extract

import (
	"regexp"
	"strings"
)

// Location names arrive in a "主地名 (别名)" convention: the bracketed part is
// an alias or region qualifier, e.g. "鸿门 (戏)". Both fullwidth and ASCII
// brackets appear in model output.

var (
	bracketedRe      = regexp.MustCompile(`[（(][^）)]+[）)]`)
	bracketedGroupRe = regexp.MustCompile(`[（(]([^）)]+)[）)]`)
)

// CleanLocationName strips bracketed qualifiers and returns the primary
// place name. A name without brackets comes back trimmed unchanged.
func CleanLocationName(location string) string {
	cleaned := strings.TrimSpace(bracketedRe.ReplaceAllString(location, ""))
	if cleaned == "" {
		return strings.TrimSpace(location)
	}
	return cleaned
}

// LocationAlias returns the first bracketed qualifier, or "" when the name
// carries none.
func LocationAlias(location string) string {
	match := bracketedGroupRe.FindStringSubmatch(location)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
