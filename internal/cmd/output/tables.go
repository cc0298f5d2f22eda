package output

import (
	"sort"
	"strconv"
	"strings"

	"github.com/coecms/clef/pkg/andfilter"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/reconcile"
)

// DatasetsToData renders local dataset summaries. The wide form adds
// every facet column.
func DatasetsToData(datasets []reconcile.Dataset, wide bool) Data {
	headers := []string{"Path", "Version", "From", "To", "Complete", "Files"}
	var extra []string
	if wide {
		seen := map[string]bool{}
		for _, d := range datasets {
			for k := range d.Facets {
				if !seen[k] {
					seen[k] = true
					extra = append(extra, k)
				}
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			headers = append(headers, facets.Label(k))
		}
	}

	rows := make([][]string, 0, len(datasets))
	for _, d := range datasets {
		complete := ""
		if d.Complete != nil {
			complete = strconv.FormatBool(*d.Complete)
		}
		row := []string{d.Path, d.Version, d.From, d.To, complete, strconv.Itoa(len(d.Filenames))}
		for _, k := range extra {
			row = append(row, d.Facets[k])
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, Right: []int{5}}
}

// GroupsToData renders the selected simulations of a completeness
// check, one row per simulation.
func GroupsToData(fixed []string, groups []andfilter.Group, info []string) Data {
	headers := make([]string, 0, len(fixed)+len(info)+1)
	for _, f := range fixed {
		headers = append(headers, facets.Label(f))
	}
	headers = append(headers, "Combinations")
	for _, f := range info {
		headers = append(headers, facets.Label(f))
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := append([]string(nil), g.Fixed...)
		combos := make([]string, len(g.Observed))
		for i, t := range g.Observed {
			combos[i] = strings.Join(t, "/")
		}
		row = append(row, strings.Join(combos, " "))
		for _, f := range info {
			row = append(row, strings.Join(g.Info[f], " "))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}
