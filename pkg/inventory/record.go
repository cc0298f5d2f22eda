package inventory

import (
	"path"

	"github.com/google/uuid"

	"github.com/coecms/clef/pkg/timeline"
	"github.com/coecms/clef/pkg/versions"
)

// Record is one local file with everything clef knows about it.
type Record struct {
	FileID    uuid.UUID
	Path      string
	MD5       string
	SHA256    string
	Project   string
	DatasetID string
	Version   *string
	Variable  string
	Period    *timeline.Range
	Facets    map[string]string
}

// Filename returns the base name of the storage path.
func (r Record) Filename() string {
	return path.Base(r.Path)
}

// Dir returns the parent directory of the storage path.
func (r Record) Dir() string {
	return path.Dir(r.Path)
}

// EffectiveVersion returns the stored version, or the one embedded in
// the path when none is stored.
func (r Record) EffectiveVersion() string {
	return versions.Effective(r.Version, r.Path)
}

// HasChecksum reports whether sum equals either stored hash.
func (r Record) HasChecksum(sum string) bool {
	return sum != "" && (r.MD5 == sum || r.SHA256 == sum)
}
