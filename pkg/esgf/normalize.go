package esgf

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/errors"
)

// MissingChecksum tags records returned without a checksum, so they
// can fall back to a filename match downstream.
const MissingChecksum = constants.MissingChecksum

// reserved fields are lifted into Record and kept out of Facets.
var reserved = map[string]bool{
	"checksum": true, "checksum_type": true, "id": true, "dataset_id": true,
	"title": true, "version": true, "score": true,
}

// Record is one normalised catalog hit.
type Record struct {
	Checksum     string
	ChecksumType string
	ID           string
	DatasetID    string
	Title        string
	Version      string
	Score        float64
	Facets       map[string]string
}

// HasChecksum reports whether the record carries a real checksum.
func (r Record) HasChecksum() bool {
	return r.Checksum != "" && r.Checksum != MissingChecksum
}

// CandidateTable is the normalised result of one catalog search.
type CandidateTable struct {
	Type    RecordType
	Found   int
	Records []Record
}

// DatasetIDs returns the distinct dataset ids in ascending order.
func (t *CandidateTable) DatasetIDs() []string {
	seen := make(map[string]struct{}, len(t.Records))
	out := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		if _, ok := seen[r.DatasetID]; ok || r.DatasetID == "" {
			continue
		}
		seen[r.DatasetID] = struct{}{}
		out = append(out, r.DatasetID)
	}
	sort.Strings(out)
	return out
}

// Checksums returns every real checksum in the table.
func (t *CandidateTable) Checksums() []string {
	out := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		if r.HasChecksum() {
			out = append(out, r.Checksum)
		}
	}
	return out
}

// Titles returns every file name in the table.
func (t *CandidateTable) Titles() []string {
	out := make([]string, 0, len(t.Records))
	for _, r := range t.Records {
		if r.Title != "" {
			out = append(out, r.Title)
		}
	}
	return out
}

// StripNode removes the "|index-node" suffix ESGF appends to ids.
func StripNode(id string) string {
	id, _, _ = strings.Cut(id, "|")
	return id
}

// Normalize turns a raw response into a CandidateTable. An empty
// result yields *errors.NoMatchError and a result larger than the
// node's row limit yields *errors.OverflowError; both carry link.
func Normalize(resp *Response, q Query, link string) (*CandidateTable, error) {
	if resp == nil || resp.Found() == 0 || len(resp.Body.Docs) == 0 {
		return nil, errors.NewNoMatchError(q.Text, link)
	}
	limit := resp.Rows()
	if limit <= 0 {
		limit = q.Limit
	}
	if limit > 0 && resp.Found() > limit {
		return nil, errors.NewOverflowError(resp.Found(), limit, link)
	}

	keep := variableFilter(q)
	typ := q.Type
	if typ == "" {
		typ = TypeFile
	}

	table := &CandidateTable{Type: typ, Found: resp.Found(), Records: make([]Record, 0, len(resp.Body.Docs))}
	seen := make(map[string]struct{}, len(resp.Body.Docs))
	for _, doc := range resp.Body.Docs {
		rec := normalizeDocument(doc, typ)
		if rec.ID == "" {
			continue
		}
		if keep != nil && !keep(rec.ID) {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		table.Records = append(table.Records, rec)
	}
	if len(table.Records) == 0 {
		return nil, errors.NewNoMatchError(q.Text, link)
	}
	return table, nil
}

func normalizeDocument(doc Document, typ RecordType) Record {
	rec := Record{
		Checksum:     doc.String("checksum"),
		ChecksumType: doc.String("checksum_type"),
		ID:           StripNode(doc.String("id")),
		DatasetID:    StripNode(doc.String("dataset_id")),
		Title:        doc.String("title"),
		Version:      doc.String("version"),
		Score:        cast.ToFloat64(doc["score"]),
		Facets:       make(map[string]string, len(doc)),
	}
	if rec.Checksum == "" {
		rec.Checksum = MissingChecksum
	}
	if typ == TypeDataset || rec.DatasetID == "" {
		rec.DatasetID = rec.ID
	}
	for k := range doc {
		if reserved[k] {
			continue
		}
		if v := doc.String(k); v != "" {
			rec.Facets[k] = v
		}
	}
	return rec
}

// variableFilter drops whole-dataset noise: CMIP5 searches for
// superseded versions return every variable of the dataset, so file
// ids must mention a requested variable.
func variableFilter(q Query) func(id string) bool {
	if !strings.EqualFold(q.Project, "CMIP5") || q.Version != VersionPrevious || q.Type == TypeDataset {
		return nil
	}
	vars := q.Facets["variable"]
	if len(vars) == 0 {
		return nil
	}
	needles := make([]string, len(vars))
	for i, v := range vars {
		needles[i] = "." + v + "_"
	}
	return func(id string) bool {
		for _, n := range needles {
			if strings.Contains(id, n) {
				return true
			}
		}
		return false
	}
}
