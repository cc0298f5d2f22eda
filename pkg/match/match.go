// Package match joins catalog candidates against local inventory files
// and splits the result into paths present on disk and ids still
// missing.
package match

import (
	"sort"
	"strings"

	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/inventory"
)

// Row is one candidate with its local counterpart, if any. Local is the
// copy with the smallest path; further byte-identical or same-named
// copies are kept in Replicas.
type Row struct {
	Candidate esgf.Record
	Local     Option[inventory.Record]
	Replicas  []inventory.Record
}

// Matched reports whether a local copy exists.
func (r Row) Matched() bool {
	return r.Local.IsSome()
}

// Copies returns every local copy, primary first.
func (r Row) Copies() []inventory.Record {
	local, ok := r.Local.Get()
	if !ok {
		return nil
	}
	return append([]inventory.Record{local}, r.Replicas...)
}

// Key selects how a candidate is looked up locally.
type Key int

// Join keys.
const (
	KeyChecksum Key = iota
	KeyFilename
	KeyDataset
)

// KeyFor returns the join key used for rec under mode. Checksums are
// only trusted in exact mode and only when the catalog supplied one.
// The filename key can pair files from unrelated datasets that happen
// to share a name; that is accepted.
func KeyFor(typ esgf.RecordType, rec esgf.Record, mode esgf.VersionMode) Key {
	switch {
	case typ == esgf.TypeDataset:
		return KeyDataset
	case mode.Exact() && rec.HasChecksum():
		return KeyChecksum
	default:
		return KeyFilename
	}
}

// Match left outer joins the candidate table with local records. Every
// candidate yields exactly one Row, in table order.
func Match(table *esgf.CandidateTable, local []inventory.Record, mode esgf.VersionMode) []Row {
	idx := newIndex(local)
	rows := make([]Row, 0, len(table.Records))
	for _, c := range table.Records {
		var found []inventory.Record
		switch KeyFor(table.Type, c, mode) {
		case KeyChecksum:
			found = idx.byChecksum(c.Checksum)
		case KeyFilename:
			found = idx.byName[c.Title]
		case KeyDataset:
			found = idx.byDataset[facets.DatasetKey(c.DatasetID, false)]
			if mode.Exact() {
				found = sameVersion(found, datasetVersion(c))
			}
		}
		rows = append(rows, newRow(c, found))
	}
	return rows
}

func newRow(c esgf.Record, found []inventory.Record) Row {
	if len(found) == 0 {
		return Row{Candidate: c, Local: None[inventory.Record]()}
	}
	copies := append([]inventory.Record(nil), found...)
	sort.SliceStable(copies, func(i, j int) bool {
		if copies[i].Path != copies[j].Path {
			return copies[i].Path < copies[j].Path
		}
		return copies[i].FileID.String() < copies[j].FileID.String()
	})
	return Row{Candidate: c, Local: Some(copies[0]), Replicas: copies[1:]}
}

type index struct {
	byMD5     map[string][]inventory.Record
	bySHA256  map[string][]inventory.Record
	byName    map[string][]inventory.Record
	byDataset map[string][]inventory.Record
}

func newIndex(local []inventory.Record) *index {
	idx := &index{
		byMD5:     make(map[string][]inventory.Record),
		bySHA256:  make(map[string][]inventory.Record),
		byName:    make(map[string][]inventory.Record),
		byDataset: make(map[string][]inventory.Record),
	}
	seen := make(map[string]struct{}, len(local))
	for _, r := range local {
		id := r.FileID.String() + r.Path
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if r.MD5 != "" {
			idx.byMD5[r.MD5] = append(idx.byMD5[r.MD5], r)
		}
		if r.SHA256 != "" {
			idx.bySHA256[r.SHA256] = append(idx.bySHA256[r.SHA256], r)
		}
		idx.byName[r.Filename()] = append(idx.byName[r.Filename()], r)
		if r.DatasetID != "" {
			k := facets.DatasetKey(r.DatasetID, false)
			idx.byDataset[k] = append(idx.byDataset[k], r)
		}
	}
	return idx
}

func (idx *index) byChecksum(sum string) []inventory.Record {
	found := append([]inventory.Record(nil), idx.byMD5[sum]...)
	for _, r := range idx.bySHA256[sum] {
		if r.MD5 != sum {
			found = append(found, r)
		}
	}
	return found
}

func datasetVersion(c esgf.Record) string {
	if v := facets.VersionOf(c.ID); v != "" {
		return v
	}
	return c.Version
}

func sameVersion(recs []inventory.Record, version string) []inventory.Record {
	want := strings.TrimPrefix(version, "v")
	if want == "" {
		return recs
	}
	var out []inventory.Record
	for _, r := range recs {
		if strings.TrimPrefix(r.EffectiveVersion(), "v") == want {
			out = append(out, r)
		}
	}
	return out
}
