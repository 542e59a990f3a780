// Package gitrepo validates git repository URLs discovered in project
// metadata. Projects without a discoverable repository are still migrated;
// the summary flags them for manual follow-up.
package gitrepo

import "regexp"

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https://.+\.git$`),
	regexp.MustCompile(`^git@.+:.+\.git$`),
	regexp.MustCompile(`^https://.+$`),
	regexp.MustCompile(`^git@.+:.+$`),
}

// ValidateURL reports whether s looks like a usable git remote URL.
func ValidateURL(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range urlPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
