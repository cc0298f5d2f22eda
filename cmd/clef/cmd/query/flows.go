package query

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coecms/clef/internal/appcontext"
	"github.com/coecms/clef/internal/cmd/output"
	"github.com/coecms/clef/pkg/andfilter"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/export"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/logging"
	"github.com/coecms/clef/pkg/match"
	"github.com/coecms/clef/pkg/reconcile"
	"github.com/coecms/clef/pkg/request"
)

// runner executes one query command.
type runner struct {
	app     appcontext.Interface
	project *facets.Project
	flags   *Flags
	flow    Flow
	text    string
	out     io.Writer
	format  output.Format
}

// Summary is the structured form of a compare run.
type Summary struct {
	Local    []string        `json:"local" yaml:"local"`
	Queued   []request.Entry `json:"queued,omitempty" yaml:"queued,omitempty"`
	Missing  []string        `json:"missing" yaml:"missing"`
	Request  string          `json:"request,omitempty" yaml:"request,omitempty"`
	Datasets bool            `json:"datasets" yaml:"datasets"`
}

func (r *runner) run(ctx context.Context) error {
	format, err := output.ParseFormat(r.app.OutputFormat())
	if err != nil {
		return err
	}
	r.format = format

	constraints := r.flags.Constraints()
	vars := r.variables(constraints)
	if r.flow == FlowRequest && r.project.Name == "CMIP5" && len(vars) == 0 {
		return errors.NewValidationError("variable", nil, "please specify at least one variable to request")
	}

	r.app.LogQuery(r.project.Name, string(r.flow), r.text, constraints)

	ctx = logging.WithLogger(ctx, r.app.Logger())
	ctx = logging.WithProject(ctx, r.project.Name)
	ctx = logging.WithFlow(ctx, string(r.flow))

	rec, err := r.app.Reconciler()
	if err != nil {
		return err
	}
	req := reconcile.Request{
		Project:     r.project.Name,
		Text:        r.text,
		Constraints: constraints,
		Version:     r.flags.VersionMode(),
		Distrib:     r.flags.Distrib,
		Replica:     r.flags.Replica,
		Limit:       r.flags.Limit,
		Granularity: match.File,
	}

	switch r.flow {
	case FlowRemote:
		err = r.remote(ctx, rec, req)
	case FlowLocal:
		err = r.local(ctx, rec, req)
	default:
		err = r.compare(ctx, rec, req, vars)
	}
	if errors.IsNoMatch(err) {
		// an empty catalog answer is a result, not a failure
		_, werr := fmt.Fprintln(r.out, err.Error())
		return werr
	}
	return err
}

// variables returns the requested variables; only CMIP5 requests and
// queue entries are per variable.
func (r *runner) variables(constraints map[string][]string) []string {
	if r.project.Name != "CMIP5" {
		return nil
	}
	return constraints[r.project.VariableFacet]
}

func (r *runner) remote(ctx context.Context, rec *reconcile.Reconciler, req reconcile.Request) error {
	var rows []map[string]string
	if len(r.flags.And) > 0 {
		res, err := rec.Matching(ctx, req, reconcile.MatchingOptions{
			Remote:  true,
			Varying: r.flags.And,
			Info:    []string{"version", "dataset_id"},
		})
		if errors.IsNoInput(err) {
			_, err = fmt.Fprintln(r.out, "There are no simulations currently available on the ESGF nodes")
			return err
		}
		if err != nil {
			return err
		}
		if err := r.printGroups(res, nil); err != nil {
			return err
		}
		rows = rowMaps(res.Rows)
	} else {
		res, err := rec.Remote(ctx, req)
		if err != nil {
			return err
		}
		if err := r.print(res.DatasetIDs, "Dataset ID"); err != nil {
			return err
		}
		rows = res.Rows()
	}
	return r.extras(rows)
}

func (r *runner) local(ctx context.Context, rec *reconcile.Reconciler, req reconcile.Request) error {
	var rows []map[string]string
	if len(r.flags.And) > 0 {
		info := []string{"version"}
		if r.project.Name == "CORDEX" {
			info = append(info, "rcm_version")
		}
		res, err := rec.Matching(ctx, req, reconcile.MatchingOptions{Varying: r.flags.And, Info: info})
		if errors.IsNoInput(err) {
			_, err = fmt.Fprintln(r.out, "There are no simulations stored locally")
			return err
		}
		if err != nil {
			return err
		}
		if err := r.printGroups(res, info); err != nil {
			return err
		}
		rows = rowMaps(res.Rows)
	} else {
		if !r.flags.Files {
			req.Granularity = match.Dataset
		}
		res, err := rec.Local(ctx, req)
		if err != nil {
			return err
		}
		if !r.flags.Stats {
			var data any = res.Paths
			if r.format == output.FormatTable || r.format == output.FormatWide {
				data = output.DatasetsToData(res.Datasets, r.format == output.FormatWide)
			} else if r.format != output.FormatPlain {
				data = res.Datasets
			}
			if err := output.NewFormatter(r.format).Format(r.out, data); err != nil {
				return err
			}
		}
		for _, d := range res.Datasets {
			rows = append(rows, d.Fields())
		}
	}
	return r.extras(rows)
}

func (r *runner) compare(ctx context.Context, rec *reconcile.Reconciler, req reconcile.Request, vars []string) error {
	cmp, err := rec.Compare(ctx, req)
	if err != nil {
		return err
	}
	if cmp.Downgraded(req) {
		logging.FromContext(ctx).Info().Msg("searched at dataset level, paths are directories")
	}

	sum := Summary{Local: cmp.LocalPaths, Datasets: cmp.Granularity == match.Dataset}
	if r.flow == FlowMissing {
		sum.Local = nil
	}

	var outstanding []request.Key
	if len(cmp.MissingIDs) > 0 {
		queue, err := request.LoadQueue(r.app.Settings().QueueDir, r.project.Name)
		if err != nil {
			return err
		}
		sum.Queued = queue.Queued(cmp.MissingDatasets, vars)
		outstanding = queue.Outstanding(cmp.MissingDatasets, vars)
		for _, k := range outstanding {
			sum.Missing = append(sum.Missing, k.String())
		}
	}

	if r.flow == FlowRequest && len(outstanding) > 0 {
		s := r.app.Settings()
		sum.Request, err = request.Save(s.RequestDir, r.project.Name, s.User, outstanding, r.app.Now())
		if err != nil {
			return err
		}
	}

	if r.format != output.FormatPlain && r.format != output.FormatTable && r.format != output.FormatWide {
		return output.NewFormatter(r.format).Format(r.out, sum)
	}
	return r.printSummary(sum, len(cmp.MissingIDs) > 0)
}

func (r *runner) printSummary(sum Summary, missing bool) error {
	var b strings.Builder
	for _, p := range sum.Local {
		b.WriteString(p + "\n")
	}
	if !missing {
		b.WriteString("\nEverything available on ESGF is also available locally\n")
		_, err := io.WriteString(r.out, b.String())
		return err
	}
	if len(sum.Queued) > 0 {
		b.WriteString("\nThe following datasets are not yet available in the database, but they have been requested or recently downloaded\n")
		for _, e := range sum.Queued {
			b.WriteString(e.String() + " status: " + e.Status + "\n")
		}
	}
	b.WriteString("\nAvailable on ESGF but not locally:\n")
	for _, m := range sum.Missing {
		b.WriteString(m + "\n")
	}
	if r.flow == FlowRequest {
		if sum.Request != "" {
			b.WriteString("\nFinished writing file: " + sum.Request + "\n")
			b.WriteString("You can use this file to request the data via the NCI helpdesk\n")
		} else {
			b.WriteString("\nAll the published data is already available locally, or has been requested, nothing to request\n")
		}
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// printGroups writes one line per complete simulation:
// fixed values, then the versions seen, then any other info fields.
func (r *runner) printGroups(res *andfilter.Result, extra []string) error {
	groups := res.Selected()
	if r.format != output.FormatPlain {
		info := []string{"version"}
		for _, f := range extra {
			if f != "version" {
				info = append(info, f)
			}
		}
		var data any = groups
		if r.format == output.FormatTable || r.format == output.FormatWide {
			data = output.GroupsToData(r.project.MatchingFixed, groups, info)
		}
		return output.NewFormatter(r.format).Format(r.out, data)
	}
	var b strings.Builder
	for _, g := range groups {
		b.WriteString(strings.Join(g.Fixed, " / "))
		b.WriteString(" versions: " + strings.Join(g.Info["version"], ", "))
		for _, f := range extra {
			if f == "version" {
				continue
			}
			b.WriteString(" " + strings.ReplaceAll(f, "_", " ") + "s: " + strings.Join(g.Info[f], ", "))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// print writes items as lines, or as a one column table.
func (r *runner) print(items []string, header string) error {
	var data any = items
	if r.format == output.FormatTable || r.format == output.FormatWide {
		lines := output.Lines(items)
		lines.Headers = []string{header}
		data = lines
	}
	return output.NewFormatter(r.format).Format(r.out, data)
}

// extras writes --stats and --csv output for rows.
func (r *runner) extras(rows []map[string]string) error {
	if r.flags.Stats {
		stats, err := export.Compute(r.project.Name, rows)
		if err != nil {
			return err
		}
		if err := export.WriteStats(r.out, stats); err != nil {
			return err
		}
	}
	if r.flags.CSV {
		if len(rows) == 0 {
			_, err := fmt.Fprintln(r.out, "Nothing to write to csv file")
			return err
		}
		name := export.Filename(r.project.Name)
		if err := writeCSV(name, rows); err != nil {
			return err
		}
		r.app.Logger().Info().Str("file", name).Int("rows", len(rows)).Msg("results written")
	}
	return nil
}

func writeCSV(name string, rows []map[string]string) error {
	f, err := os.Create(name) //nolint:gosec // fixed name in the working directory
	if err != nil {
		return errors.WrapIO("create", name, err)
	}
	if err := export.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return err
	}
	return errors.WrapIO("close", name, f.Close())
}

func rowMaps(rows []andfilter.Row) []map[string]string {
	out := make([]map[string]string, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}
