package inventory

import "github.com/google/uuid"

// Path is one file known to the inventory.
type Path struct {
	FileID uuid.UUID `gorm:"column:file_id;type:uuid;primaryKey"`
	Path   string    `gorm:"column:path;type:text;index"`
}

// TableName implements gorm's tabler.
func (Path) TableName() string { return "esgf_paths" }

// Checksum holds the content hashes of a file.
type Checksum struct {
	Hash   uuid.UUID `gorm:"column:ch_hash;type:uuid;primaryKey"`
	MD5    *string   `gorm:"column:ch_md5;type:text;index"`
	SHA256 *string   `gorm:"column:ch_sha256;type:text;index"`
}

// TableName implements gorm's tabler.
func (Checksum) TableName() string { return "checksums" }

// ExtendedMetadata carries attributes read from the file itself.
// Period is the INT4RANGE text form, e.g. "[200601,204013)".
type ExtendedMetadata struct {
	FileID   uuid.UUID `gorm:"column:file_id;type:uuid;primaryKey"`
	Version  *string   `gorm:"column:version;type:text"`
	Variable *string   `gorm:"column:variable;type:text"`
	Period   *string   `gorm:"column:period;type:int4range"`
}

// TableName implements gorm's tabler.
func (ExtendedMetadata) TableName() string { return "extended_metadata" }

// C5Dataset is a CMIP5 dataset as described by its files.
type C5Dataset struct {
	DatasetID  string `gorm:"column:dataset_id;type:text;primaryKey"`
	Project    string `gorm:"column:project;type:text"`
	Institute  string `gorm:"column:institute;type:text"`
	Model      string `gorm:"column:model;type:text"`
	Experiment string `gorm:"column:experiment;type:text"`
	Frequency  string `gorm:"column:frequency;type:text"`
	Realm      string `gorm:"column:realm;type:text"`
	R          *int   `gorm:"column:r"`
	I          *int   `gorm:"column:i"`
	P          *int   `gorm:"column:p"`
	Ensemble   string `gorm:"column:ensemble;type:text"`
	CMORTable  string `gorm:"column:cmor_table;type:text"`
}

// TableName implements gorm's tabler.
func (C5Dataset) TableName() string { return "cmip5_dataset" }

// Facets returns the dataset attributes keyed by ESGF facet name.
func (d C5Dataset) Facets() map[string]string {
	return compact(map[string]string{
		"project":        d.Project,
		"institute":      d.Institute,
		"model":          d.Model,
		"experiment":     d.Experiment,
		"time_frequency": d.Frequency,
		"realm":          d.Realm,
		"ensemble":       d.Ensemble,
		"cmor_table":     d.CMORTable,
	})
}

// C6Dataset is a CMIP6 dataset as described by its files.
type C6Dataset struct {
	DatasetID         string `gorm:"column:dataset_id;type:text;primaryKey"`
	Project           string `gorm:"column:project;type:text"`
	ActivityID        string `gorm:"column:activity_id;type:text"`
	InstitutionID     string `gorm:"column:institution_id;type:text"`
	SourceID          string `gorm:"column:source_id;type:text"`
	SourceType        string `gorm:"column:source_type;type:text"`
	ExperimentID      string `gorm:"column:experiment_id;type:text"`
	SubExperimentID   string `gorm:"column:sub_experiment_id;type:text"`
	Frequency         string `gorm:"column:frequency;type:text"`
	Realm             string `gorm:"column:realm;type:text"`
	R                 *int   `gorm:"column:r"`
	I                 *int   `gorm:"column:i"`
	P                 *int   `gorm:"column:p"`
	F                 *int   `gorm:"column:f"`
	VariantLabel      string `gorm:"column:variant_label;type:text"`
	MemberID          string `gorm:"column:member_id;type:text"`
	VariableID        string `gorm:"column:variable_id;type:text"`
	GridLabel         string `gorm:"column:grid_label;type:text"`
	NominalResolution string `gorm:"column:nominal_resolution;type:text"`
	TableID           string `gorm:"column:table_id;type:text"`
}

// TableName implements gorm's tabler.
func (C6Dataset) TableName() string { return "cmip6_dataset" }

// Facets returns the dataset attributes keyed by ESGF facet name.
func (d C6Dataset) Facets() map[string]string {
	return compact(map[string]string{
		"project":            d.Project,
		"activity_id":        d.ActivityID,
		"institution_id":     d.InstitutionID,
		"source_id":          d.SourceID,
		"source_type":        d.SourceType,
		"experiment_id":      d.ExperimentID,
		"sub_experiment_id":  d.SubExperimentID,
		"frequency":          d.Frequency,
		"realm":              d.Realm,
		"variant_label":      d.VariantLabel,
		"member_id":          d.MemberID,
		"variable_id":        d.VariableID,
		"grid_label":         d.GridLabel,
		"nominal_resolution": d.NominalResolution,
		"table_id":           d.TableID,
	})
}

// C5Link ties a file to its CMIP5 dataset.
type C5Link struct {
	FileID    uuid.UUID `gorm:"column:file_id;type:uuid;primaryKey"`
	DatasetID string    `gorm:"column:dataset_id;type:text;index"`
}

// TableName implements gorm's tabler.
func (C5Link) TableName() string { return "c5_metadata_dataset_link" }

// C6Link ties a file to its CMIP6 dataset.
type C6Link struct {
	FileID    uuid.UUID `gorm:"column:file_id;type:uuid;primaryKey"`
	DatasetID string    `gorm:"column:dataset_id;type:text;index"`
}

// TableName implements gorm's tabler.
func (C6Link) TableName() string { return "c6_metadata_dataset_link" }

// Models lists every table of the inventory schema.
func Models() []any {
	return []any{&Path{}, &Checksum{}, &ExtendedMetadata{}, &C5Dataset{}, &C6Dataset{}, &C5Link{}, &C6Link{}}
}

func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}
