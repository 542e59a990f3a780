package migrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dagshift/dagshift/internal/model"
)

// =============================================================================
// PROJECT LAYOUT PLANNER
// Assigns each project a unique output slug. Source project names are not
// unique, and distinct names can collide after slugging, so the planner must
// be a total, collision-free function from project id to slug.
// =============================================================================

// PlanLayout maps every project id to a unique slug. Projects are processed
// in ascending id order: the first project claiming a slug keeps it bare,
// later collisions get the project id appended.
func PlanLayout(projects []model.Project) map[int64]string {
	ordered := append([]model.Project(nil), projects...)
	sort.Slice(ordered, func(i, k int) bool { return ordered[i].ID < ordered[k].ID })

	layout := make(map[int64]string, len(ordered))
	claimed := make(map[string]bool, len(ordered))

	for _, p := range ordered {
		slug := Slugify(p.Name)
		if slug == "" {
			slug = fmt.Sprintf("project-%d", p.ID)
		}
		// The id-suffixed slug can itself collide with a natural slug
		// (project named "a-3" vs. project 3 named "a"), so keep extending
		// until the slug is unclaimed.
		for claimed[slug] {
			slug = fmt.Sprintf("%s-%d", slug, p.ID)
		}
		claimed[slug] = true
		layout[p.ID] = slug
	}

	return layout
}

// Slugify lower-cases s and collapses every run of non-alphanumeric
// characters into a single separator.
func Slugify(s string) string {
	var b strings.Builder
	lastSep := true // suppress a leading separator
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				b.WriteByte('-')
				lastSep = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SlugifyUnderscore is the profile/job identifier variant of Slugify:
// underscores instead of hyphens, valid as a Python or dbt name.
func SlugifyUnderscore(s string) string {
	return strings.ReplaceAll(Slugify(s), "-", "_")
}
