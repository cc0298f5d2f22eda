// Package versions selects one canonical version per logical file or
// dataset. Versions compare as plain byte strings, which orders the
// zero-padded YYYYMMDD tokens ESGF publishes; other schemes must be
// normalised by the caller first.
package versions

import (
	"regexp"
	"sort"
)

var dateToken = regexp.MustCompile(`\d{8}`)

// FromPath extracts the first 8-digit token in path, e.g. "20130405"
// from ".../v20130405/tas_Amon.nc". It returns "" when there is none.
func FromPath(path string) string {
	return dateToken.FindString(path)
}

// Effective returns the explicit version when set, else the one
// parsed from path.
func Effective(explicit *string, path string) string {
	if explicit != nil && *explicit != "" {
		return *explicit
	}
	return FromPath(path)
}

// Compare orders two versions. It is the only ordering used by clef.
func Compare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Candidate is one record competing for the version of a logical group.
type Candidate struct {
	Version *string
	Path    string
}

// Resolve picks the maximum explicit version among candidates. Only
// when no candidate carries one is the path of each consulted. The
// second result reports whether the version came from a path.
func Resolve(candidates []Candidate) (version string, fromPath bool) {
	for _, c := range candidates {
		if c.Version != nil && *c.Version != "" && Compare(*c.Version, version) > 0 {
			version = *c.Version
		}
	}
	if version != "" {
		return version, false
	}
	for _, c := range candidates {
		if v := FromPath(c.Path); Compare(v, version) > 0 {
			version = v
		}
	}
	return version, version != ""
}

// Latest keeps, for each identity key, the item with the highest version.
// Order of first appearance of each key is preserved.
func Latest[T any](items []T, key func(T) string, version func(T) string) []T {
	best := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for i, item := range items {
		k := key(item)
		j, seen := best[k]
		if !seen {
			best[k] = i
			order = append(order, k)
			continue
		}
		if Compare(version(item), version(items[j])) > 0 {
			best[k] = i
		}
	}
	out := make([]T, 0, len(order))
	for _, k := range order {
		out = append(out, items[best[k]])
	}
	return out
}

// Sorted returns the distinct versions in ascending order.
func Sorted(vs []string) []string {
	seen := make(map[string]struct{}, len(vs))
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
