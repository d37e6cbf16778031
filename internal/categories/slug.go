package categories

import "strings"

// ToSlug converts a category name into its URL form: lowercased, spaces
// become hyphens, ampersands become "and" ("Home & Garden" -> "home-and-garden").
func ToSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	fields := strings.Fields(s)
	return strings.Join(fields, "-")
}

// FromSlug resolves a slug back to a category name using the known set,
// falling back to title-casing the de-hyphenated slug for names that never
// passed through ToSlug.
func FromSlug(slug string, names []string) string {
	want := strings.ToLower(strings.TrimSpace(slug))
	for _, name := range names {
		if ToSlug(name) == want {
			return name
		}
	}

	words := strings.Split(want, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
