package reconcile

import (
	"context"

	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/inventory"
	"github.com/coecms/clef/pkg/logging"
	"github.com/coecms/clef/pkg/match"
)

// Comparison is the outcome of Compare.
type Comparison struct {
	Query       esgf.Query
	Table       *esgf.CandidateTable
	Rows        []match.Row
	Granularity match.Granularity
	match.Result
	// Datasets summarises the local copies that matched.
	Datasets []Dataset
}

// Downgraded reports whether the search fell back to datasets.
func (c *Comparison) Downgraded(req Request) bool {
	return req.Granularity == match.File && c.Granularity == match.Dataset
}

// Compare finds which catalog records are held locally and which are
// missing.
func (r *Reconciler) Compare(ctx context.Context, req Request) (*Comparison, error) {
	p, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := r.requireInventory(); err != nil {
		return nil, err
	}

	q, table, err := r.search(ctx, p.query())
	if err != nil {
		return nil, err
	}

	local, err := r.localFor(ctx, p, table)
	if err != nil {
		return nil, err
	}

	gran := match.File
	if table.Type == esgf.TypeDataset {
		gran = match.Dataset
	}
	rows := match.Match(table, local, q.Version)
	latest := q.Version == esgf.VersionLatest
	res := match.Partition(rows, match.Options{
		Granularity: gran,
		Exclusions:  r.exclusions,
		Latest:      latest,
	})

	var matched []inventory.Record
	for _, row := range rows {
		for _, c := range row.Copies() {
			if !r.excluded(c.Path) {
				matched = append(matched, c)
			}
		}
	}

	logging.Ctx(ctx, r.logger).Debug().
		Str("granularity", gran.String()).
		Int("candidates", len(table.Records)).
		Int("local", len(res.LocalPaths)).
		Int("missing", len(res.MissingIDs)).
		Msg("compared catalog with inventory")

	return &Comparison{
		Query:       q,
		Table:       table,
		Rows:        rows,
		Granularity: gran,
		Result:      res,
		Datasets:    Summarize(matched, latest),
	}, nil
}

// localFor loads the inventory records that could match table.
func (r *Reconciler) localFor(ctx context.Context, p *prepared, table *esgf.CandidateTable) ([]inventory.Record, error) {
	if table.Type == esgf.TypeDataset {
		return r.inventory.Search(ctx, p.project, p.constraints)
	}

	var sums, names []string
	for _, rec := range table.Records {
		switch match.KeyFor(table.Type, rec, p.Version) {
		case match.KeyChecksum:
			sums = append(sums, rec.Checksum)
		default:
			names = append(names, rec.Title)
		}
	}

	var out []inventory.Record
	if len(sums) > 0 {
		found, err := r.inventory.ByChecksums(ctx, sums)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if len(names) > 0 {
		found, err := r.inventory.ByFilenames(ctx, names)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func (r *Reconciler) excluded(p string) bool {
	for _, rule := range r.exclusions {
		if rule.Excludes(p) {
			return true
		}
	}
	return false
}
