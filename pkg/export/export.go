// Package export writes query results as CSV and prints query
// statistics.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/facets"
)

// Ignored columns are never written to CSV.
var Ignored = []string{"periods", "filename", "institute", "project", "institution_id", "realm", "product"}

// leading columns are written first, in this order, when present.
var leading = []string{"dataset_id", "path", "version", "fdate", "tdate", "time_complete"}

// Filename returns the CSV file name for project.
func Filename(project string) string {
	if project == "" {
		project = "result"
	}
	return strings.ToUpper(project) + "_query.csv"
}

// Columns returns the CSV header for rows.
func Columns(rows []map[string]string) []string {
	skip := make(map[string]bool, len(Ignored))
	for _, c := range Ignored {
		skip[c] = true
	}
	present := make(map[string]bool)
	for _, r := range rows {
		for k := range r {
			if !skip[k] {
				present[k] = true
			}
		}
	}
	var cols []string
	for _, c := range leading {
		if present[c] {
			cols = append(cols, c)
			delete(present, c)
		}
	}
	rest := make([]string, 0, len(present))
	for c := range present {
		rest = append(rest, c)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// WriteCSV writes rows with a header line. Missing values are empty.
func WriteCSV(w io.Writer, rows []map[string]string) error {
	if len(rows) == 0 {
		return errors.ErrNoInput
	}
	cw := csv.NewWriter(w)
	cols := Columns(rows)
	if err := cw.Write(cols); err != nil {
		return errors.WrapIO("write", "csv", err)
	}
	record := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			record[i] = r[c]
		}
		if err := cw.Write(record); err != nil {
			return errors.WrapIO("write", "csv", err)
		}
	}
	cw.Flush()
	return errors.WrapIO("write", "csv", cw.Error())
}

// Stats counts models and members in a result set.
type Stats struct {
	Models       []string
	ModelMembers int
	// Members lists the distinct members of each model.
	Members map[string][]string
}

// ByMemberCount groups models by how many members they have.
func (s *Stats) ByMemberCount() map[int][]string {
	out := make(map[int][]string)
	for _, m := range s.Models {
		n := len(s.Members[m])
		out[n] = append(out[n], m)
	}
	return out
}

// Compute builds Stats using the model and member facets of project.
func Compute(project string, rows []map[string]string) (*Stats, error) {
	p, err := facets.Lookup(project)
	if err != nil {
		return nil, err
	}
	members := make(map[string]map[string]struct{})
	pairs := 0
	for _, r := range rows {
		model, member := r[p.Stats.Model], r[p.Stats.Member]
		if model == "" {
			continue
		}
		set, ok := members[model]
		if !ok {
			set = make(map[string]struct{})
			members[model] = set
		}
		if _, seen := set[member]; !seen {
			set[member] = struct{}{}
			pairs++
		}
	}

	s := &Stats{ModelMembers: pairs, Members: make(map[string][]string, len(members))}
	for model, set := range members {
		s.Models = append(s.Models, model)
		list := make([]string, 0, len(set))
		for m := range set {
			list = append(list, m)
		}
		sort.Strings(list)
		s.Members[model] = list
	}
	sort.Strings(s.Models)
	return s, nil
}

// WriteStats prints a query summary.
func WriteStats(w io.Writer, s *Stats) error {
	if s == nil || len(s.Models) == 0 {
		_, err := fmt.Fprintln(w, "No results are available for this query")
		return err
	}
	var b strings.Builder
	b.WriteString("\nQuery summary\n")
	fmt.Fprintf(&b, "\n%d model/s are available:\n", len(s.Models))
	b.WriteString(strings.Join(s.Models, " "))
	b.WriteString("\n")
	fmt.Fprintf(&b, "\nA total of %d unique model-member combinations are available.\n", s.ModelMembers)

	groups := s.ByMemberCount()
	counts := make([]int, 0, len(groups))
	for n := range groups {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	for _, n := range counts {
		fmt.Fprintf(&b, "\n%d model/s have %d member/s:\n", len(groups[n]), n)
		b.WriteString(strings.Join(groups[n], " "))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
