// Package query implements the per-project search commands: cmip5,
// cmip6 and cordex. Each command searches the ESGF catalog, the local
// inventory or both, depending on the flow selected on the root
// command.
package query

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coecms/clef/internal/appcontext"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/facets"
)

// Flow selects what a query command compares.
type Flow string

// Flows, named after the root flags that select them.
const (
	// FlowCompare searches the catalog and reports local and missing data.
	FlowCompare Flow = "compare"
	FlowRemote  Flow = "remote"
	FlowLocal   Flow = "local"
	FlowMissing Flow = "missing"
	FlowRequest Flow = "request"
)

var flowFlags = []Flow{FlowRemote, FlowLocal, FlowMissing, FlowRequest}

// AddFlowFlags registers the flow selectors. They belong on the root
// command so they precede the project name: clef --local cmip6 ...
func AddFlowFlags(fs *pflag.FlagSet) {
	fs.Bool(string(FlowRemote), false, "search the ESGF catalog only")
	fs.Bool(string(FlowLocal), false, "search the local inventory only")
	fs.Bool(string(FlowMissing), false, "only list data missing locally")
	fs.Bool(string(FlowRequest), false, "write a download request for missing data")
}

// FlowFrom returns the flow selected on cmd or its parents. At most one
// flow flag may be set.
func FlowFrom(cmd *cobra.Command) (Flow, error) {
	flow := FlowCompare
	var set []string
	for _, f := range flowFlags {
		fl := cmd.Flags().Lookup(string(f))
		if fl == nil || fl.Value.String() != "true" {
			continue
		}
		set = append(set, "--"+string(f))
		flow = f
	}
	if len(set) > 1 {
		return "", errors.NewValidationError("flow", set,
			"only one of "+strings.Join(set, ", ")+" can be used")
	}
	return flow, nil
}

var descriptions = map[string]string{
	"CMIP5":  "Search ESGF and the local inventory for CMIP5 files",
	"CMIP6":  "Search ESGF and the local inventory for CMIP6 files",
	"CORDEX": "Search ESGF and the local inventory for CORDEX files",
}

// NewCommand creates the search command for project.
func NewCommand(app appcontext.Interface, project string) *cobra.Command {
	p, err := facets.Lookup(project)
	if err != nil {
		panic("programming error: " + err.Error())
	}
	name := strings.ToLower(p.Name)

	var flags *Flags
	cmd := &cobra.Command{
		Use:     name + " [query text...]",
		Short:   descriptions[p.Name],
		Long: descriptions[p.Name] + `.

Constraints can be repeated, in which case they are combined using OR:
-v tas -v tasmin matches variable tas or tasmin. Different constraints
are combined using AND.

By default the catalog is asked for the latest published versions and
local files are matched by checksum. With --all-versions every version
is listed and local files are matched by name.`,
		Example: "  clef " + name + " " + exampleArgs(p) + "\n" +
			"  clef --local " + name + " " + exampleArgs(p) + "\n" +
			"  clef --missing " + name + " " + exampleArgs(p),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := FlowFrom(cmd)
			if err != nil {
				return err
			}
			r := &runner{
				app:     app,
				project: p,
				flags:   flags,
				flow:    flow,
				text:    strings.Join(args, " "),
				out:     cmd.OutOrStdout(),
			}
			return r.run(cmd.Context())
		},
	}
	flags = addFlags(cmd, p)
	return cmd
}

func exampleArgs(p *facets.Project) string {
	switch p.Name {
	case "CMIP5":
		return "-m ACCESS1.0 -e historical -v tas -t Amon"
	case "CMIP6":
		return "-m ACCESS-CM2 -e historical -v tas -t Amon"
	default:
		return "--domain AUS-44 -v tas"
	}
}
