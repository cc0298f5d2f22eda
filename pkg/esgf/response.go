package esgf

import "github.com/spf13/cast"

// Document is one raw search hit. Values are scalars or lists
// depending on the field and the index node.
type Document map[string]any

// Response is the decoded solr+json body of an esg-search request.
type Response struct {
	Header struct {
		Params struct {
			Rows any `json:"rows"`
		} `json:"params"`
	} `json:"responseHeader"`
	Body struct {
		NumFound int        `json:"numFound"`
		Docs     []Document `json:"docs"`
	} `json:"response"`
}

// Rows is the row limit the node applied. Nodes report it as a string.
func (r *Response) Rows() int {
	return cast.ToInt(r.Header.Params.Rows)
}

// Found is the total number of matches reported by the node.
func (r *Response) Found() int {
	return r.Body.NumFound
}

// String returns field as a scalar string. Lists yield their first
// element; absent fields yield "".
func (d Document) String(field string) string {
	v, ok := d[field]
	if !ok || v == nil {
		return ""
	}
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	return cast.ToString(v)
}

// Has reports whether field is present with a non-empty value.
func (d Document) Has(field string) bool {
	return d.String(field) != ""
}
