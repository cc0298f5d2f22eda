package testhelper

import (
	"context"

	"github.com/coecms/clef/pkg/esgf"
)

// Catalog is an esgf.Searcher that replays canned responses per record
// type. An exhausted queue answers with zero documents.
type Catalog struct {
	Responses map[esgf.RecordType][]*esgf.Response
	Queries   []esgf.Query
	Err       error
}

// NewCatalog returns a Catalog answering file searches with files and
// dataset searches with datasets.
func NewCatalog(files, datasets []*esgf.Response) *Catalog {
	return &Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile:    files,
		esgf.TypeDataset: datasets,
	}}
}

// Search implements esgf.Searcher.
func (c *Catalog) Search(_ context.Context, q esgf.Query) (*esgf.Response, error) {
	c.Queries = append(c.Queries, q)
	if c.Err != nil {
		return nil, c.Err
	}
	queue := c.Responses[q.Type]
	if len(queue) == 0 {
		return Response(0, 10000), nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		c.Responses[q.Type] = queue[1:]
	}
	return resp, nil
}

// BrowseURL implements esgf.Searcher.
func (c *Catalog) BrowseURL(q esgf.Query) string {
	return q.BrowseURL("https://esgf.example.org")
}

// Response builds a search answer.
func Response(found, rows int, docs ...esgf.Document) *esgf.Response {
	r := &esgf.Response{}
	r.Header.Params.Rows = rows
	r.Body.NumFound = found
	r.Body.Docs = docs
	return r
}
