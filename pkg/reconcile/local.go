package reconcile

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/inventory"
	"github.com/coecms/clef/pkg/match"
	"github.com/coecms/clef/pkg/timeline"
	"github.com/coecms/clef/pkg/versions"
)

// Dataset is one local directory of files.
type Dataset struct {
	Path      string
	Project   string
	DatasetID string
	Facets    map[string]string
	Filenames []string
	Periods   []timeline.Period
	Version   string
	// VersionFromPath is set when no file carried an explicit version.
	VersionFromPath bool
	timeline.Extent
}

// Files returns the full path of every file.
func (d Dataset) Files() []string {
	out := make([]string, len(d.Filenames))
	for i, f := range d.Filenames {
		out[i] = d.Path + "/" + f
	}
	return out
}

// Fields flattens d into attribute name to value, for filtering and
// export. Facets come first and the derived fields override them.
func (d Dataset) Fields() map[string]string {
	out := make(map[string]string, len(d.Facets)+6)
	for k, v := range d.Facets {
		out[k] = v
	}
	out["path"] = d.Path
	out["project"] = d.Project
	if d.DatasetID != "" {
		out["dataset_id"] = d.DatasetID
	}
	if d.Version != "" {
		out["version"] = d.Version
	}
	out["fdate"] = d.From
	out["tdate"] = d.To
	if d.Complete != nil {
		if *d.Complete {
			out["time_complete"] = "true"
		} else {
			out["time_complete"] = "false"
		}
	}
	return out
}

// identity is every attribute except the ones that differ between
// versions of the same data.
func (d Dataset) identity() string {
	keys := make([]string, 0, len(d.Facets))
	for k := range d.Facets {
		if k != "version" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(d.Project)
	b.WriteString("|")
	b.WriteString(facets.DatasetKey(d.DatasetID, false))
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(d.Facets[k])
	}
	return b.String()
}

// Summarize groups records by canonical directory. Each group gets one
// resolved version and one time extent. With latest set, only the
// newest version of otherwise identical datasets is kept.
func Summarize(records []inventory.Record, latest bool) []Dataset {
	type group struct {
		ds         Dataset
		candidates []versions.Candidate
		ranges     []*timeline.Range
		names      map[string]struct{}
	}
	groups := make(map[string]*group)
	var order []string

	for _, rec := range records {
		dir := path.Dir(match.Canonical(rec.Path, latest))
		g, ok := groups[dir]
		if !ok {
			g = &group{
				ds: Dataset{
					Path:      dir,
					Project:   rec.Project,
					DatasetID: rec.DatasetID,
					Facets:    make(map[string]string, len(rec.Facets)),
				},
				names: make(map[string]struct{}),
			}
			groups[dir] = g
			order = append(order, dir)
		}
		if _, dup := g.names[rec.Filename()]; dup {
			continue
		}
		g.names[rec.Filename()] = struct{}{}
		for k, v := range rec.Facets {
			if _, set := g.ds.Facets[k]; !set {
				g.ds.Facets[k] = v
			}
		}
		g.ds.Filenames = append(g.ds.Filenames, rec.Filename())
		g.candidates = append(g.candidates, versions.Candidate{Version: rec.Version, Path: rec.Path})
		g.ranges = append(g.ranges, rec.Period)
	}

	sort.Strings(order)
	out := make([]Dataset, 0, len(order))
	for _, dir := range order {
		g := groups[dir]
		sort.Strings(g.ds.Filenames)
		g.ds.Version, g.ds.VersionFromPath = versions.Resolve(g.candidates)
		g.ds.Periods = timeline.Periods(g.ranges)
		g.ds.Extent = timeline.Assemble(g.ds.Periods)
		out = append(out, g.ds)
	}
	if latest {
		out = versions.Latest(out, Dataset.identity, func(d Dataset) string { return d.Version })
	}
	return out
}

// LocalResult is the outcome of Local.
type LocalResult struct {
	Datasets []Dataset
	Paths    []string
}

// Local searches the inventory only.
func (r *Reconciler) Local(ctx context.Context, req Request) (*LocalResult, error) {
	p, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	if err := r.requireInventory(); err != nil {
		return nil, err
	}
	recs, err := r.inventory.Search(ctx, p.project, p.constraints)
	if err != nil {
		return nil, err
	}
	kept := recs[:0:0]
	for _, rec := range recs {
		if !r.excluded(rec.Path) {
			kept = append(kept, rec)
		}
	}

	datasets := Summarize(kept, req.Version == esgf.VersionLatest)
	var paths []string
	for _, d := range datasets {
		if req.Granularity == match.Dataset {
			paths = append(paths, d.Path)
		} else {
			paths = append(paths, d.Files()...)
		}
	}
	sort.Strings(paths)
	return &LocalResult{Datasets: datasets, Paths: paths}, nil
}
