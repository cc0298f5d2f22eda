package reconcile

import (
	"context"

	"github.com/coecms/clef/pkg/andfilter"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/match"
)

// MatchingOptions select the attributes of a completeness check.
type MatchingOptions struct {
	// Remote searches the catalog instead of the inventory.
	Remote bool
	// Varying defaults to the variable facet of the project.
	Varying []string
	// Fixed defaults to the project's simulation identity.
	Fixed []string
	Info  []string
}

// Matching keeps the simulations that hold every requested combination
// of the varying attributes. With no data at all the error is
// errors.ErrNoInput.
func (r *Reconciler) Matching(ctx context.Context, req Request, opts MatchingOptions) (*andfilter.Result, error) {
	p, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	varying, err := canonicalNames(p.project, opts.Varying, []string{p.project.VariableFacet}, false)
	if err != nil {
		return nil, err
	}
	fixed, err := canonicalNames(p.project, opts.Fixed, p.project.MatchingFixed, true)
	if err != nil {
		return nil, err
	}
	filter := andfilter.Request{
		Varying:   varying,
		Requested: p.constraints,
		Fixed:     fixed,
		Info:      opts.Info,
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var rows []andfilter.Row
	if opts.Remote {
		rows, err = r.remoteRows(ctx, p)
	} else {
		rows, err = r.localRows(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return andfilter.Filter(rows, filter)
}

func (r *Reconciler) localRows(ctx context.Context, req Request) ([]andfilter.Row, error) {
	req.Granularity = match.Dataset
	res, err := r.Local(ctx, req)
	if err != nil {
		return nil, err
	}
	rows := make([]andfilter.Row, len(res.Datasets))
	for i, d := range res.Datasets {
		rows[i] = d.Fields()
	}
	return rows, nil
}

// remoteRows runs a dataset search. The version is the last segment of
// each dataset id.
func (r *Reconciler) remoteRows(ctx context.Context, p *prepared) ([]andfilter.Row, error) {
	q := p.query().AsDatasets()
	q.Fields = p.project.RemoteFields
	_, table, err := r.search(ctx, q)
	if errors.IsNoMatch(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows := make([]andfilter.Row, 0, len(table.Records))
	for _, rec := range table.Records {
		rows = append(rows, remoteRow(rec))
	}
	return rows, nil
}

func remoteRow(rec esgf.Record) andfilter.Row {
	row := make(andfilter.Row, len(rec.Facets)+2)
	for k, v := range rec.Facets {
		row[k] = v
	}
	row["dataset_id"] = rec.DatasetID
	if v := facets.VersionOf(rec.DatasetID); v != "" {
		row["version"] = v
	} else if rec.Version != "" {
		row["version"] = rec.Version
	}
	return row
}

// canonicalNames resolves facet aliases. version and path are not facets
// and cannot be constrained, so they are accepted only when derived is
// set (fixed attributes), never as varying ones.
func canonicalNames(p *facets.Project, names, fallback []string, derived bool) ([]string, error) {
	if len(names) == 0 {
		return fallback, nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		c, ok := p.Canonical(n)
		if !ok {
			if derived && (n == "version" || n == "path") {
				out[i] = n
				continue
			}
			return nil, errors.NewAmbiguousFacetError(n, p.Name, p.ValidNames())
		}
		out[i] = c
	}
	return out, nil
}
