// Package pipeline builds the read-side aggregation pipelines and holds the
// pure evaluators that encode the same business rules in Go.
package pipeline

// Difference compares two collections by their string key. Both inputs are
// de-duplicated on the key first. deleted holds items of old missing from
// new, added holds items of new missing from old, each in input order and
// keeping the caller's element type.
func Difference[T any](old, new []T, key func(T) string) (deleted, added []T) {
	oldSet := make(map[string]struct{}, len(old))
	for _, v := range old {
		oldSet[key(v)] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new))
	for _, v := range new {
		newSet[key(v)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(old))
	for _, v := range old {
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := newSet[k]; !ok {
			deleted = append(deleted, v)
		}
	}

	seen = make(map[string]struct{}, len(new))
	for _, v := range new {
		k := key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := oldSet[k]; !ok {
			added = append(added, v)
		}
	}
	return deleted, added
}

// StringDifference is Difference over plain ids.
func StringDifference(old, new []string) (deleted, added []string) {
	return Difference(old, new, func(s string) string { return s })
}

// Unique drops repeated strings keeping first occurrences.
func Unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
