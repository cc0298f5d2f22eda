// Package facets holds the controlled facet vocabulary of each data
// family clef can reconcile. Facet names differ between generations
// (model in CMIP5 is source_id in CMIP6), so every constraint passes
// through Validate before any catalog or inventory access.
package facets

import (
	_ "embed"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coecms/clef/pkg/errors"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// Facet is one constraint name accepted for a project.
type Facet struct {
	Name    string   `yaml:"name"`
	Column  string   `yaml:"column"`
	Aliases []string `yaml:"aliases"`
}

// Stats names the facets used to count models and members.
type Stats struct {
	Model  string `yaml:"model"`
	Member string `yaml:"member"`
}

// Project is the vocabulary of one data family.
type Project struct {
	Name               string              `yaml:"-"`
	ESGFProject        string              `yaml:"esgf_project"`
	Table              string              `yaml:"table"`
	VariableFacet      string              `yaml:"variable_facet"`
	MatchingFixed      []string            `yaml:"matching_fixed"`
	DatasetID          []string            `yaml:"dataset_id"`
	RemoteFields       []string            `yaml:"remote_fields"`
	Stats              Stats               `yaml:"stats"`
	Facets             []Facet             `yaml:"facets"`
	ExperimentFamilies map[string][]string `yaml:"experiment_families"`
	ModelFix           map[string]string   `yaml:"model_fix"`

	byName map[string]string
}

// Vocabulary is the full set of known projects.
type Vocabulary struct {
	Projects map[string]*Project `yaml:"projects"`
}

var (
	defaultOnce  sync.Once
	defaultVocab *Vocabulary
	defaultErr   error
)

// Parse reads a vocabulary document.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.WrapParse("yaml", "vocabulary.yaml", err)
	}
	for name, p := range v.Projects {
		p.Name = name
		p.byName = make(map[string]string)
		for _, f := range p.Facets {
			p.byName[f.Name] = f.Name
			for _, a := range f.Aliases {
				if prev, ok := p.byName[a]; ok && prev != f.Name {
					return nil, errors.NewConfigError("facets",
						"alias "+a+" maps to both "+prev+" and "+f.Name+" in "+name, nil)
				}
				p.byName[a] = f.Name
			}
		}
	}
	return &v, nil
}

// Default returns the embedded vocabulary.
func Default() *Vocabulary {
	defaultOnce.Do(func() {
		defaultVocab, defaultErr = Parse(vocabularyYAML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultVocab
}

// Lookup returns the vocabulary for project, matched case-insensitively.
func (v *Vocabulary) Lookup(project string) (*Project, error) {
	name := strings.ToUpper(project)
	if p, ok := v.Projects[name]; ok {
		return p, nil
	}
	known := make([]string, 0, len(v.Projects))
	for k := range v.Projects {
		known = append(known, k)
	}
	sort.Strings(known)
	return nil, errors.NewValidationError("project", project,
		"search not implemented for "+project+", use one of "+strings.Join(known, ", "))
}

// Lookup returns the embedded vocabulary for project.
func Lookup(project string) (*Project, error) {
	return Default().Lookup(project)
}

// ValidNames lists the canonical facet names in declaration order.
func (p *Project) ValidNames() []string {
	names := make([]string, len(p.Facets))
	for i, f := range p.Facets {
		names[i] = f.Name
	}
	return names
}

// Canonical maps a constraint name or alias to its facet name.
func (p *Project) Canonical(key string) (string, bool) {
	name, ok := p.byName[key]
	return name, ok
}

// Facet returns the facet definition for a canonical name.
func (p *Project) Facet(name string) (Facet, bool) {
	for _, f := range p.Facets {
		if f.Name == name {
			return f, true
		}
	}
	return Facet{}, false
}

// Validate rewrites constraint keys to canonical facet names. Empty
// value lists are dropped. An unknown key fails with
// *errors.AmbiguousFacetError listing the valid names. Model names are
// normalised to their catalog spelling.
func (p *Project) Validate(constraints map[string][]string) (map[string][]string, error) {
	out := make(map[string][]string, len(constraints))
	keys := make([]string, 0, len(constraints))
	for k := range constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values := constraints[key]
		name, ok := p.Canonical(key)
		if !ok {
			return nil, errors.NewAmbiguousFacetError(key, p.Name, p.ValidNames())
		}
		if len(values) == 0 {
			continue
		}
		if name == p.Stats.Model && len(p.ModelFix) > 0 {
			values = p.FixModel(values, false)
		}
		out[name] = append(out[name], values...)
	}
	return out, nil
}

// FixModel converts directory-style model names to catalog facet values,
// or the reverse when invert is set. Unknown names pass through.
func (p *Project) FixModel(models []string, invert bool) []string {
	fix := p.ModelFix
	if invert {
		fix = make(map[string]string, len(p.ModelFix))
		for k, v := range p.ModelFix {
			fix[v] = k
		}
	}
	out := make([]string, len(models))
	for i, m := range models {
		if f, ok := fix[m]; ok {
			out[i] = f
		} else {
			out[i] = m
		}
	}
	return out
}

// FamilyPatterns returns the SQL LIKE patterns of an experiment family.
func (p *Project) FamilyPatterns(family string) ([]string, bool) {
	for k, v := range p.ExperimentFamilies {
		if strings.EqualFold(k, family) {
			return v, true
		}
	}
	return nil, false
}

var versionSegment = regexp.MustCompile(`^v?\d{8}$`)

// ParseDatasetID splits a dot separated dataset id into facets using the
// component order of the project named by its first segment.
func ParseDatasetID(id string) (map[string]string, bool) {
	id, _, _ = strings.Cut(id, "|")
	parts := strings.Split(id, ".")
	if len(parts) == 0 {
		return nil, false
	}
	p, err := Lookup(parts[0])
	if err != nil {
		return nil, false
	}
	out := make(map[string]string, len(p.DatasetID))
	for i, name := range p.DatasetID {
		if i >= len(parts) {
			break
		}
		out[name] = parts[i]
	}
	return out, true
}

// DatasetKey normalises a dataset id for comparison between catalog and
// inventory. The node suffix is dropped, the project segment lowered,
// CMIP5 output1/output2 products folded and, unless withVersion is set,
// a trailing version segment removed.
func DatasetKey(id string, withVersion bool) string {
	id, _, _ = strings.Cut(id, "|")
	parts := strings.Split(id, ".")
	if len(parts) == 0 || parts[0] == "" {
		return id
	}
	parts[0] = strings.ToLower(parts[0])
	if parts[0] == "cmip5" && len(parts) > 1 && strings.HasPrefix(parts[1], "output") {
		parts[1] = "output"
	}
	if !withVersion && len(parts) > 1 && versionSegment.MatchString(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

// VersionOf returns the trailing version segment of a dataset id, or "".
func VersionOf(id string) string {
	id, _, _ = strings.Cut(id, "|")
	idx := strings.LastIndex(id, ".")
	if idx < 0 {
		return ""
	}
	if last := id[idx+1:]; versionSegment.MatchString(last) {
		return last
	}
	return ""
}

// Label turns a facet name into a column heading, e.g. "source_id" to
// "Source Id".
func Label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
