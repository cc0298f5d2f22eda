// Package esgf queries ESGF index nodes and normalises their loosely
// typed search documents into a uniform candidate table.
package esgf

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/coecms/clef/pkg/constants"
)

// RecordType selects file or dataset level search results.
type RecordType string

// Record types understood by esg-search.
const (
	TypeFile    RecordType = "File"
	TypeDataset RecordType = "Dataset"
)

// VersionMode is the tri-state latest filter of a search.
type VersionMode int

// Version modes.
const (
	// VersionLatest keeps only the latest published version and matches
	// local files by checksum.
	VersionLatest VersionMode = iota
	// VersionPrevious keeps only superseded versions.
	VersionPrevious
	// VersionAll applies no version filter.
	VersionAll
)

// String implements fmt.Stringer.
func (m VersionMode) String() string {
	switch m {
	case VersionLatest:
		return "latest"
	case VersionPrevious:
		return "previous"
	default:
		return "all"
	}
}

// Exact reports whether matches must be content identical.
func (m VersionMode) Exact() bool {
	return m == VersionLatest
}

// DefaultFileFields are requested for file searches.
var DefaultFileFields = []string{"checksum", "checksum_type", "id", "dataset_id", "title", "version", "score"}

// Query is one esg-search request.
type Query struct {
	Text    string
	Project string
	Facets  map[string][]string
	Fields  []string
	Type    RecordType
	Limit   int
	Offset  int
	Distrib bool
	Replica bool
	Version VersionMode
}

// NewQuery returns a file query with the defaults used by the command line.
func NewQuery(project string, facets map[string][]string) Query {
	return Query{
		Project: project,
		Facets:  facets,
		Type:    TypeFile,
		Limit:   constants.DefaultLimit,
		Distrib: true,
		Version: VersionLatest,
	}
}

// AsDatasets returns a copy of q that searches at dataset granularity.
func (q Query) AsDatasets() Query {
	c := q
	c.Type = TypeDataset
	c.Fields = nil
	return c
}

func (q Query) fields() []string {
	if len(q.Fields) > 0 {
		return q.Fields
	}
	if q.Type == TypeDataset {
		return nil
	}
	return DefaultFileFields
}

// Params encodes q as esg-search parameters. The latest parameter is
// omitted for VersionAll, and type is omitted for dataset searches
// since Dataset is the server default.
func (q Query) Params() url.Values {
	v := url.Values{}
	if text := strings.TrimSpace(q.Text); text != "" {
		v.Set("query", text)
	}
	if f := q.fields(); len(f) > 0 {
		v.Set("fields", strings.Join(f, ","))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = constants.DefaultLimit
	}
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("limit", strconv.Itoa(limit))
	v.Set("distrib", strconv.FormatBool(q.Distrib))
	v.Set("replica", strconv.FormatBool(q.Replica))
	switch q.Version {
	case VersionLatest:
		v.Set("latest", "true")
	case VersionPrevious:
		v.Set("latest", "false")
	}
	if q.Type != "" && q.Type != TypeDataset {
		v.Set("type", string(q.Type))
	}
	v.Set("format", constants.SearchFormat)
	addProject(v, q.Project)
	for _, k := range sortedKeys(q.Facets) {
		for _, val := range q.Facets[k] {
			v.Add(k, val)
		}
	}
	return v
}

// BrowseURL builds a link to the user-facing search page showing the
// same matches, for use in error messages.
func (q Query) BrowseURL(node string) string {
	if node == "" {
		node = constants.DefaultNode
	}
	v := url.Values{}
	if text := strings.TrimSpace(q.Text); text != "" {
		v.Set("query", text)
	}
	typ := q.Type
	if typ == "" {
		typ = TypeFile
	}
	v.Set("type", string(typ))
	if q.Distrib {
		v.Set("distrib", "on")
	}
	if q.Replica {
		v.Set("replica", "on")
	}
	if q.Version == VersionLatest {
		v.Set("latest", "on")
	}
	addProject(v, q.Project)
	for _, k := range sortedKeys(q.Facets) {
		for _, val := range q.Facets[k] {
			v.Add(k, val)
		}
	}
	return strings.TrimRight(node, "/") + constants.BrowsePath + "?" + v.Encode()
}

func addProject(v url.Values, project string) {
	for _, p := range strings.Split(project, ",") {
		if p = strings.TrimSpace(p); p != "" {
			v.Add("project", p)
		}
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
