// Package reconcile runs one batch comparison of the ESGF catalog with
// the local inventory. Each call is staged: validate, search the
// catalog, query the inventory, then join in memory. Nothing is cached
// between calls.
package reconcile

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/inventory"
	"github.com/coecms/clef/pkg/logging"
	"github.com/coecms/clef/pkg/match"
)

// Inventory is the read side of the local file inventory.
type Inventory interface {
	ByChecksums(ctx context.Context, sums []string) ([]inventory.Record, error)
	ByFilenames(ctx context.Context, names []string) ([]inventory.Record, error)
	Search(ctx context.Context, project *facets.Project, constraints map[string][]string) ([]inventory.Record, error)
}

// Reconciler compares catalog searches with the inventory.
type Reconciler struct {
	catalog    esgf.Searcher
	inventory  Inventory
	logger     *zerolog.Logger
	exclusions []match.ExclusionRule
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithExclusions replaces the default exclusion rules.
func WithExclusions(rules []match.ExclusionRule) Option {
	return func(r *Reconciler) {
		r.exclusions = rules
	}
}

// New creates a Reconciler. Either collaborator may be nil when the
// flows that need it are not used.
func New(catalog esgf.Searcher, inv Inventory, opts ...Option) *Reconciler {
	r := &Reconciler{
		catalog:    catalog,
		inventory:  inv,
		logger:     logging.Default(),
		exclusions: match.DefaultExclusions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request is one user query.
type Request struct {
	Project     string
	Text        string
	Constraints map[string][]string
	Version     esgf.VersionMode
	Distrib     bool
	Replica     bool
	Limit       int
	// Granularity is the starting granularity. File searches may be
	// downgraded to Dataset when the catalog overflows.
	Granularity match.Granularity
}

// prepared is a Request after validation.
type prepared struct {
	Request
	project     *facets.Project
	constraints map[string][]string
}

func (r *Reconciler) prepare(req Request) (*prepared, error) {
	p, err := facets.Lookup(req.Project)
	if err != nil {
		return nil, err
	}
	constraints, err := p.Validate(req.Constraints)
	if err != nil {
		return nil, err
	}
	return &prepared{Request: req, project: p, constraints: constraints}, nil
}

func (p *prepared) query() esgf.Query {
	q := esgf.NewQuery(p.project.ESGFProject, p.constraints)
	q.Text = p.Text
	q.Version = p.Version
	q.Distrib = p.Distrib
	q.Replica = p.Replica
	if p.Limit > 0 {
		q.Limit = p.Limit
	}
	if p.Granularity == match.Dataset {
		q = q.AsDatasets()
	}
	return q
}

// search runs q and normalises the answer. A file search that overflows
// is retried once at dataset granularity.
func (r *Reconciler) search(ctx context.Context, q esgf.Query) (esgf.Query, *esgf.CandidateTable, error) {
	if r.catalog == nil {
		return q, nil, errors.NewConfigError("reconcile", "no catalog configured", nil)
	}
	table, err := r.searchOnce(ctx, q)
	if errors.IsOverflow(err) && q.Type != esgf.TypeDataset {
		logging.Ctx(ctx, r.logger).Info().Err(err).Msg("too many files, retrying at dataset level")
		q = q.AsDatasets()
		table, err = r.searchOnce(ctx, q)
	}
	return q, table, err
}

func (r *Reconciler) searchOnce(ctx context.Context, q esgf.Query) (*esgf.CandidateTable, error) {
	resp, err := r.catalog.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return esgf.Normalize(resp, q, r.catalog.BrowseURL(q))
}

func (r *Reconciler) requireInventory() error {
	if r.inventory == nil {
		return errors.NewConfigError("reconcile", "no inventory configured", nil)
	}
	return nil
}
