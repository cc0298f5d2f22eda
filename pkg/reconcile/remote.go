package reconcile

import (
	"context"

	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
)

// RemoteResult is the outcome of Remote.
type RemoteResult struct {
	Query      esgf.Query
	Table      *esgf.CandidateTable
	DatasetIDs []string
}

// Rows returns one attribute map per dataset id, parsed from the id.
func (r *RemoteResult) Rows() []map[string]string {
	out := make([]map[string]string, 0, len(r.DatasetIDs))
	for _, id := range r.DatasetIDs {
		row, ok := facets.ParseDatasetID(id)
		if !ok {
			row = map[string]string{}
		}
		row["dataset_id"] = id
		out = append(out, row)
	}
	return out
}

// Remote searches the catalog only.
func (r *Reconciler) Remote(ctx context.Context, req Request) (*RemoteResult, error) {
	p, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	q, table, err := r.search(ctx, p.query())
	if err != nil {
		return nil, err
	}
	return &RemoteResult{Query: q, Table: table, DatasetIDs: table.DatasetIDs()}, nil
}
