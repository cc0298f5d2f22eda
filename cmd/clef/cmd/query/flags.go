package query

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
)

// Flags holds the options shared by every project command.
type Flags struct {
	Latest      bool
	AllVersions bool
	Replica     bool
	Distrib     bool
	CSV         bool
	Stats       bool
	Files       bool
	Limit       int
	And         []string

	// facet name -> values, filled by cobra
	facets map[string]*[]string
}

// VersionMode maps --latest and --all-versions to a catalog filter.
func (f *Flags) VersionMode() esgf.VersionMode {
	if f.AllVersions || !f.Latest {
		return esgf.VersionAll
	}
	return esgf.VersionLatest
}

// Constraints returns the non-empty facet flags.
func (f *Flags) Constraints() map[string][]string {
	out := make(map[string][]string)
	for name, values := range f.facets {
		if len(*values) > 0 {
			out[name] = append([]string(nil), *values...)
		}
	}
	return out
}

// addFlags registers the common options and one repeatable flag per
// facet of project. Single letter aliases become shorthands; longer
// aliases are accepted through the flag normalizer.
func addFlags(cmd *cobra.Command, project *facets.Project) *Flags {
	f := &Flags{facets: make(map[string]*[]string)}
	fs := cmd.Flags()

	fs.BoolVar(&f.Latest, "latest", true, "only the latest published version")
	fs.BoolVar(&f.AllVersions, "all-versions", false, "every published version, matched by file name")
	fs.BoolVar(&f.Replica, "replica", false, "include replica datasets")
	fs.BoolVar(&f.Distrib, "distrib", true, "search every federated node")
	fs.BoolVar(&f.CSV, "csv", false, "write the results to <PROJECT>_query.csv")
	fs.BoolVar(&f.Stats, "stats", false, "print a summary of models and members")
	fs.BoolVar(&f.Files, "files", false, "list files instead of dataset directories (--local)")
	fs.IntVar(&f.Limit, "limit", constants.DefaultLimit, "maximum number of catalog records")
	fs.StringSliceVar(&f.And, "and", nil, "attributes whose values must all be present per simulation")

	used := map[string]bool{"h": true}
	for _, facet := range project.Facets {
		values := new([]string)
		f.facets[facet.Name] = values
		short := ""
		for _, a := range facet.Aliases {
			if len(a) == 1 && !used[a] {
				short = a
				used[a] = true
				break
			}
		}
		fs.StringSliceVarP(values, facet.Name, short, nil, facetUsage(facet))
	}

	fs.SetNormalizeFunc(normalizer(project))
	return f
}

func facetUsage(f facets.Facet) string {
	var long []string
	for _, a := range f.Aliases {
		if len(a) > 1 {
			long = append(long, "--"+a)
		}
	}
	usage := facets.Label(f.Name) + " constraint, repeat for OR"
	if len(long) > 0 {
		usage += " (also " + strings.Join(long, ", ") + ")"
	}
	return usage
}

// normalizer maps facet aliases and dashed spellings to canonical
// facet names. Names that are not facets pass through unchanged.
func normalizer(project *facets.Project) func(*pflag.FlagSet, string) pflag.NormalizedName {
	return func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if canonical, ok := project.Canonical(name); ok {
			return pflag.NormalizedName(canonical)
		}
		if underscored := strings.ReplaceAll(name, "-", "_"); underscored != name {
			if canonical, ok := project.Canonical(underscored); ok {
				return pflag.NormalizedName(canonical)
			}
		}
		return pflag.NormalizedName(name)
	}
}
