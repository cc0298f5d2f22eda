// Package request checks missing datasets against the download queue
// and writes download request files for the ones nobody has asked for.
package request

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coecms/clef/pkg/errors"
)

// QueueFile returns the queue table name for project.
func QueueFile(project string) string {
	return strings.ToUpper(project) + "_clef_table.csv"
}

// Key identifies a queue entry. Variable is only set for CMIP5, where
// requests are per dataset and variable.
type Key struct {
	DatasetID string
	Variable  string
}

// String formats k the way request lines name it.
func (k Key) String() string {
	if k.Variable == "" {
		return k.DatasetID
	}
	return k.DatasetID + " " + k.Variable
}

// Entry is a queued request with its status.
type Entry struct {
	Key
	Status string
}

// Queue is the download queue of one project.
type Queue struct {
	Project string
	status  map[Key]string
	dids    map[string]struct{}
}

// ReadQueue parses a queue table. CMIP5 rows are variable, dataset
// id, status; other projects are dataset id, status.
func ReadQueue(r io.Reader, project string) (*Queue, error) {
	q := &Queue{
		Project: strings.ToUpper(project),
		status:  make(map[Key]string),
		dids:    make(map[string]struct{}),
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.WrapParse("csv", QueueFile(project), err)
	}
	perVariable := q.Project == "CMIP5"
	for _, rec := range records {
		switch {
		case perVariable && len(rec) >= 3:
			q.add(Key{DatasetID: rec[1], Variable: rec[0]}, rec[2])
		case !perVariable && len(rec) >= 2:
			q.add(Key{DatasetID: rec[0]}, rec[1])
		}
	}
	return q, nil
}

func (q *Queue) add(k Key, status string) {
	k.DatasetID = normalize(k.DatasetID)
	q.status[k] = status
	q.dids[k.DatasetID] = struct{}{}
}

// LoadQueue reads the queue table of project from dir. A missing table
// yields an empty queue.
func LoadQueue(dir, project string) (*Queue, error) {
	p := filepath.Join(dir, QueueFile(project))
	f, err := os.Open(p) //nolint:gosec // queue directory comes from configuration
	if os.IsNotExist(err) {
		return ReadQueue(strings.NewReader(""), project)
	}
	if err != nil {
		return nil, errors.WrapIO("open", p, err)
	}
	defer func() { _ = f.Close() }()
	return ReadQueue(f, project)
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.status)
}

// normalize maps catalog ids to the spelling used in the queue table.
func normalize(did string) string {
	return strings.Replace(did, "output.", "output1.", 1)
}

func (q *Queue) perVariable() bool {
	return q.Project == "CMIP5"
}

// Queued returns the entries already requested for the missing dataset
// ids. For CMIP5 with vars set, only those variables count.
func (q *Queue) Queued(missing []string, vars []string) []Entry {
	want := make(map[string]bool, len(vars))
	for _, v := range vars {
		want[v] = true
	}
	var out []Entry
	seen := make(map[Key]bool)
	for _, id := range missing {
		did := normalize(id)
		if _, ok := q.dids[did]; !ok {
			continue
		}
		for k, status := range q.status {
			if k.DatasetID != did || seen[k] {
				continue
			}
			if q.perVariable() && len(want) > 0 && !want[k.Variable] {
				continue
			}
			seen[k] = true
			out = append(out, Entry{Key: k, Status: status})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Outstanding returns the missing entries that are not queued yet. For
// CMIP5 with vars set, every dataset id is paired with every variable
// and each pair is checked; otherwise a dataset id is outstanding when
// nothing at all is queued for it.
func (q *Queue) Outstanding(missing []string, vars []string) []Key {
	queued := make(map[Key]bool)
	queuedIDs := make(map[string]bool)
	for _, e := range q.Queued(missing, vars) {
		queued[e.Key] = true
		queuedIDs[e.DatasetID] = true
	}
	pairs := q.perVariable() && len(vars) > 0

	seen := make(map[Key]bool)
	var out []Key
	for _, id := range missing {
		did := normalize(id)
		if !pairs {
			k := Key{DatasetID: id}
			if !queuedIDs[did] && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
			continue
		}
		for _, v := range vars {
			k := Key{DatasetID: id, Variable: v}
			if !queued[Key{DatasetID: did, Variable: v}] && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
