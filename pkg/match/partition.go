package match

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Granularity selects file or dataset level output.
type Granularity int

// Granularities.
const (
	File Granularity = iota
	Dataset
)

// String implements fmt.Stringer.
func (g Granularity) String() string {
	if g == Dataset {
		return "dataset"
	}
	return "file"
}

// ExclusionRule hides copies under Root that are not below a Current
// sub-directory. Such trees hold several revisions side by side and
// only Current is authoritative.
type ExclusionRule struct {
	Root    string
	Current string
}

// Excludes reports whether p falls under the rule.
func (r ExclusionRule) Excludes(p string) bool {
	rest, ok := strings.CutPrefix(p, r.Root)
	return ok && !strings.Contains(rest, r.Current)
}

// DefaultExclusions are the NCI publication trees.
var DefaultExclusions = []ExclusionRule{
	{Root: "/g/data/rr3/publications/CMIP5/", Current: "/files/"},
	{Root: "/g/data/fs38/publications/CMIP6/", Current: "/files/"},
}

// Options tune Partition.
type Options struct {
	Granularity Granularity
	Exclusions  []ExclusionRule
	// Latest is passed to Canonical when rewriting output paths.
	Latest bool
}

// Result lists local paths and missing catalog ids, all sorted and
// free of duplicates. MissingDatasets holds the dataset ids of the
// missing records at either granularity.
type Result struct {
	LocalPaths      []string
	MissingIDs      []string
	MissingDatasets []string
}

// Partition splits matched rows. A row whose every local copy is
// excluded counts as missing rather than vanishing from both lists, so
// every candidate lands in exactly one of LocalPaths or MissingIDs.
// At dataset granularity paths are parent directories and ids are
// dataset ids.
func Partition(rows []Row, opts Options) Result {
	paths := make(map[string]struct{})
	missing := make(map[string]struct{})
	datasets := make(map[string]struct{})

	for _, row := range rows {
		present := false
		for _, c := range row.Copies() {
			if excluded(c.Path, opts.Exclusions) {
				continue
			}
			present = true
			p := Canonical(c.Path, opts.Latest)
			if opts.Granularity == Dataset {
				p = path.Dir(p)
			}
			paths[p] = struct{}{}
		}
		if present {
			continue
		}
		id := row.Candidate.ID
		if opts.Granularity == Dataset {
			id = row.Candidate.DatasetID
		}
		missing[id] = struct{}{}
		if row.Candidate.DatasetID != "" {
			datasets[row.Candidate.DatasetID] = struct{}{}
		}
	}
	return Result{
		LocalPaths:      sortedSet(paths),
		MissingIDs:      sortedSet(missing),
		MissingDatasets: sortedSet(datasets),
	}
}

func excluded(p string, rules []ExclusionRule) bool {
	for _, r := range rules {
		if r.Excludes(p) {
			return true
		}
	}
	return false
}

var al33Output = regexp.MustCompile(`replicas/CMIP5/output[12]?/`)

// Canonical rewrites known replica layouts to the path users should
// read from: al33 output1/output2/unsolicited trees are served from
// "combined", and CSIRO-BOM publications of the latest version from
// "latest/<variable>" instead of "files/<variable>_<date>".
func Canonical(p string, latest bool) string {
	switch {
	case strings.Contains(p, "/al33/replicas/CMIP5/output"):
		return al33Output.ReplaceAllString(p, "replicas/CMIP5/combined/")
	case strings.Contains(p, "/al33/replicas/CMIP5/unsolicited"):
		return strings.ReplaceAll(p, "unsolicited", "combined")
	case latest && strings.Contains(p, "/rr3/publications/CMIP5/output1/CSIRO-BOM"):
		dirs := strings.Split(p, "/")
		if len(dirs) < 4 {
			return p
		}
		variable, _, _ := strings.Cut(dirs[len(dirs)-2], "_")
		out := append(dirs[:len(dirs)-3:len(dirs)-3], "latest", variable, dirs[len(dirs)-1])
		return strings.Join(out, "/")
	default:
		return p
	}
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
