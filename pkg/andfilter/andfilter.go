// Package andfilter selects the simulations that hold every requested
// combination of a set of varying attributes.
//
// A simulation is identified by its fixed attributes, e.g. model and
// member. Asking for variable=[tas, pr] with experiment=[historical,
// ssp585] keeps only the simulations that have all four joint
// combinations, not merely each value somewhere.
package andfilter

import (
	"sort"
	"strings"

	"github.com/coecms/clef/pkg/errors"
)

// Row is one flattened result row keyed by attribute name.
type Row map[string]string

// DefaultInfo are the attributes summarised per group when Request.Info
// is empty.
var DefaultInfo = []string{
	"version", "source_id", "model", "path", "dataset_id",
	"cmor_table", "table_id", "ensemble", "member_id",
}

// Request describes one completeness check.
type Request struct {
	// Varying are the attributes whose joint values must all be present.
	Varying []string
	// Requested holds the wanted values for each varying attribute.
	Requested map[string][]string
	// Fixed are the attributes that identify one simulation.
	Fixed []string
	// Info are extra attributes collected per group.
	Info []string
}

// Group summarises one simulation.
type Group struct {
	Fixed     []string
	Observed  [][]string
	Info      map[string][]string
	Qualified bool

	rows []int
}

// Result holds the outcome of Filter. Groups lists every simulation,
// qualified or not, ordered by fixed values.
type Result struct {
	Rows     []Row
	Groups   []Group
	Expected int
}

// Selected returns only the qualifying groups.
func (r *Result) Selected() []Group {
	var out []Group
	for _, g := range r.Groups {
		if g.Qualified {
			out = append(out, g)
		}
	}
	return out
}

// Empty reports whether groups were computed but none qualified.
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// Filter groups rows by the fixed attributes and keeps those groups
// whose observed varying tuples cover the whole requested product.
// An empty rows slice returns ErrNoInput so callers can tell "no data"
// from "no complete simulation".
func Filter(rows []Row, req Request) (*Result, error) {
	expected, err := req.expected()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.ErrNoInput
	}

	info := req.info()
	groups := make(map[string]*Group)
	observed := make(map[string]map[string][]string)

	for i, row := range rows {
		fixed := values(row, req.Fixed)
		gk := key(fixed)
		g, ok := groups[gk]
		if !ok {
			g = &Group{Fixed: fixed, Info: make(map[string][]string)}
			groups[gk] = g
			observed[gk] = make(map[string][]string)
		}
		g.rows = append(g.rows, i)

		tuple := values(row, req.Varying)
		if tk := key(tuple); expected[tk] {
			observed[gk][tk] = tuple
		}
		for _, f := range info {
			if v, ok := row[f]; ok && v != "" {
				g.Info[f] = appendUnique(g.Info[f], v)
			}
		}
	}

	res := &Result{Expected: len(expected)}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		g := groups[k]
		g.Observed = sortedTuples(observed[k])
		g.Qualified = len(g.Observed) == len(expected)
		for f := range g.Info {
			sort.Strings(g.Info[f])
		}
		if g.Qualified {
			for _, i := range g.rows {
				res.Rows = append(res.Rows, rows[i])
			}
		}
		res.Groups = append(res.Groups, *g)
	}
	return res, nil
}

// Validate checks that there is something to complete and that every
// varying attribute has requested values. Filter runs it too; callers
// that fetch rows first use it to fail before any I/O.
func (req Request) Validate() error {
	_, err := req.expected()
	return err
}

// expected returns the set of requested tuples.
func (req Request) expected() (map[string]bool, error) {
	if len(req.Varying) == 0 {
		return nil, errors.NewValidationError("varying", nil, "nothing to complete")
	}
	product := [][]string{{}}
	for _, name := range req.Varying {
		vals := req.Requested[name]
		if len(vals) == 0 {
			return nil, errors.NewValidationError(name, nil, "no values requested for "+name)
		}
		next := make([][]string, 0, len(product)*len(vals))
		for _, prefix := range product {
			for _, v := range vals {
				t := append(append([]string(nil), prefix...), v)
				next = append(next, t)
			}
		}
		product = next
	}
	out := make(map[string]bool, len(product))
	for _, t := range product {
		out[key(t)] = true
	}
	return out, nil
}

func (req Request) info() []string {
	src := req.Info
	if len(src) == 0 {
		src = DefaultInfo
	}
	skip := make(map[string]bool, len(req.Fixed))
	for _, f := range req.Fixed {
		skip[f] = true
	}
	var out []string
	for _, f := range src {
		if !skip[f] {
			out = append(out, f)
		}
	}
	return out
}

func values(row Row, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = row[n]
	}
	return out
}

// key joins a tuple with a separator that cannot occur in facet values.
func key(tuple []string) string {
	return strings.Join(tuple, "\x1f")
}

func sortedTuples(m map[string][]string) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
