// Package inventory reads the local file inventory: paths, checksums,
// per-file metadata and the CMIP5/CMIP6 dataset tables. It only reads;
// reconciliation never writes to the inventory.
package inventory

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coecms/clef/internal/utils/ptr"
	"github.com/coecms/clef/pkg/constants"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/logging"
	"github.com/coecms/clef/pkg/timeline"
)

// Config selects and tunes the database connection.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	// DSN is the driver specific connection string.
	DSN string
	// Debug logs every SQL statement.
	Debug bool
}

// Store is an inventory session. It is created once per invocation and
// passed explicitly to everything that queries local files.
type Store struct {
	db     *gorm.DB
	logger *zerolog.Logger
}

// Open connects to the inventory database.
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.Driver) {
	case "", "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, errors.NewConfigError("database", "dsn is required for postgres", nil)
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "sqlite3":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.NewConfigError("database", "unsupported driver "+cfg.Driver, nil)
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, errors.WrapResource("open", "inventory", cfg.Driver, err)
	}
	return New(db), nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db, logger: logging.Default()}
}

// WithLogger returns a copy of s that logs to l.
func (s *Store) WithLogger(l *zerolog.Logger) *Store {
	c := *s
	c.logger = l
	return &c
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates the inventory schema. Used for fixtures and tests;
// the production schema is managed by the indexing pipeline.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return errors.WrapResource("migrate", "inventory", "", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type fileRow struct {
	FileID    uuid.UUID `gorm:"column:file_id"`
	Path      string    `gorm:"column:path"`
	MD5       *string   `gorm:"column:md5"`
	SHA256    *string   `gorm:"column:sha256"`
	Version   *string   `gorm:"column:version"`
	Variable  *string   `gorm:"column:variable"`
	Period    *string   `gorm:"column:period"`
	DatasetID *string   `gorm:"column:dataset_id"`
}

const fileColumns = "esgf_paths.file_id AS file_id, esgf_paths.path AS path, " +
	"checksums.ch_md5 AS md5, checksums.ch_sha256 AS sha256, " +
	"extended_metadata.version AS version, extended_metadata.variable AS variable, " +
	"extended_metadata.period AS period"

func (s *Store) files(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("esgf_paths").
		Joins("LEFT JOIN checksums ON checksums.ch_hash = esgf_paths.file_id").
		Joins("LEFT JOIN extended_metadata ON extended_metadata.file_id = esgf_paths.file_id")
}

// ByChecksums returns files whose md5 or sha256 equals one of sums.
func (s *Store) ByChecksums(ctx context.Context, sums []string) ([]Record, error) {
	var rows []fileRow
	for _, batch := range chunk(distinct(sums), constants.ChecksumBatchSize) {
		var part []fileRow
		err := s.files(ctx).
			Select(fileColumns).
			Where("checksums.ch_md5 IN ? OR checksums.ch_sha256 IN ?", batch, batch).
			Scan(&part).Error
		if err != nil {
			return nil, errors.WrapResource("query", "inventory", "checksums", err)
		}
		rows = append(rows, part...)
	}
	return s.finish(ctx, rows)
}

// ByFilenames returns files whose base name equals one of names.
func (s *Store) ByFilenames(ctx context.Context, names []string) ([]Record, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	var rows []fileRow
	for _, batch := range chunk(distinct(names), constants.FilenameBatchSize) {
		clauses := make([]string, len(batch))
		args := make([]any, len(batch))
		for i, n := range batch {
			clauses[i] = "esgf_paths.path LIKE ?"
			args[i] = "%/" + n
		}
		var part []fileRow
		err := s.files(ctx).
			Select(fileColumns).
			Where(strings.Join(clauses, " OR "), args...).
			Scan(&part).Error
		if err != nil {
			return nil, errors.WrapResource("query", "inventory", "filenames", err)
		}
		// LIKE treats "_" as a wildcard, so confirm the exact name
		for _, r := range part {
			if _, ok := wanted[path.Base(r.Path)]; ok {
				rows = append(rows, r)
			}
		}
	}
	return s.finish(ctx, rows)
}

// Search returns the files of project matching every constraint. Each
// constraint is an OR list of values; keys must be canonical facet
// names (see facets.Project.Validate).
func (s *Store) Search(ctx context.Context, project *facets.Project, constraints map[string][]string) ([]Record, error) {
	if project.Table == "" {
		return nil, errors.NewValidationError("project", project.Name,
			"local search is not available for "+project.Name)
	}
	link := linkTable(project.Table)

	q := s.files(ctx).
		Select(fileColumns+", d.dataset_id AS dataset_id").
		Joins(fmt.Sprintf("JOIN %s l ON l.file_id = esgf_paths.file_id", link)).
		Joins(fmt.Sprintf("JOIN %s d ON d.dataset_id = l.dataset_id", project.Table))

	keys := make([]string, 0, len(constraints))
	for k := range constraints {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		values := constraints[name]
		if len(values) == 0 {
			continue
		}
		f, ok := project.Facet(name)
		if !ok {
			return nil, errors.NewAmbiguousFacetError(name, project.Name, project.ValidNames())
		}
		switch {
		case name == "experiment_family":
			var clauses []string
			var args []any
			for _, fam := range values {
				pats, ok := project.FamilyPatterns(fam)
				if !ok {
					return nil, errors.NewValidationError("experiment_family", fam, "unknown experiment family")
				}
				for _, p := range pats {
					clauses = append(clauses, "d.experiment LIKE ?")
					args = append(args, p)
				}
			}
			q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
		case f.Column != "":
			q = q.Where(fmt.Sprintf("d.%s IN ?", f.Column), values)
		case name == project.VariableFacet:
			q = q.Where("extended_metadata.variable IN ?", values)
		default:
			return nil, errors.NewValidationError(name, values,
				"facet is only known to the catalog and cannot filter local files")
		}
	}

	var rows []fileRow
	if err := q.Order("esgf_paths.path").Scan(&rows).Error; err != nil {
		return nil, errors.WrapResource("query", "inventory", project.Name, err)
	}
	logging.Ctx(ctx, s.logger).Debug().Str("project", project.Name).Int("files", len(rows)).Msg("inventory search")
	return s.finish(ctx, rows)
}

// finish converts rows to records and attaches dataset facets.
func (s *Store) finish(ctx context.Context, rows []fileRow) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.FileID]; dup {
			continue
		}
		seen[r.FileID] = struct{}{}
		rec := Record{
			FileID:  r.FileID,
			Path:    r.Path,
			MD5:     ptr.Deref(r.MD5),
			SHA256:  ptr.Deref(r.SHA256),
			Version: r.Version,
		}
		rec.Variable = ptr.Deref(r.Variable)
		rec.DatasetID = ptr.Deref(r.DatasetID)
		if r.Period != nil && *r.Period != "" {
			p, err := timeline.ParseRange(*r.Period)
			if err != nil {
				logging.Ctx(ctx, s.logger).Warn().Err(err).Str("path", r.Path).Msg("ignoring unreadable period")
			} else {
				rec.Period = &p
			}
		}
		records = append(records, rec)
	}
	if err := s.attachFacets(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// attachFacets fills Project, DatasetID and Facets from the link tables.
func (s *Store) attachFacets(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	index := make(map[uuid.UUID]int, len(records))
	ids := make([]string, len(records))
	for i, r := range records {
		index[r.FileID] = i
		ids[i] = r.FileID.String()
	}

	var c5links []C5Link
	var c6links []C6Link
	for _, batch := range chunk(ids, constants.ChecksumBatchSize) {
		var l5 []C5Link
		if err := s.db.WithContext(ctx).Where("file_id IN ?", batch).Find(&l5).Error; err != nil {
			return errors.WrapResource("query", "inventory", "c5 links", err)
		}
		c5links = append(c5links, l5...)
		var l6 []C6Link
		if err := s.db.WithContext(ctx).Where("file_id IN ?", batch).Find(&l6).Error; err != nil {
			return errors.WrapResource("query", "inventory", "c6 links", err)
		}
		c6links = append(c6links, l6...)
	}

	if len(c5links) > 0 {
		dsIDs := make([]string, len(c5links))
		for i, l := range c5links {
			dsIDs[i] = l.DatasetID
		}
		var datasets []C5Dataset
		for _, batch := range chunk(distinct(dsIDs), constants.ChecksumBatchSize) {
			var part []C5Dataset
			if err := s.db.WithContext(ctx).Where("dataset_id IN ?", batch).Find(&part).Error; err != nil {
				return errors.WrapResource("query", "inventory", "cmip5_dataset", err)
			}
			datasets = append(datasets, part...)
		}
		byID := make(map[string]C5Dataset, len(datasets))
		for _, d := range datasets {
			byID[d.DatasetID] = d
		}
		for _, l := range c5links {
			rec := &records[index[l.FileID]]
			rec.DatasetID = l.DatasetID
			rec.Project = "CMIP5"
			if d, ok := byID[l.DatasetID]; ok {
				rec.Facets = d.Facets()
			}
		}
	}

	if len(c6links) > 0 {
		dsIDs := make([]string, len(c6links))
		for i, l := range c6links {
			dsIDs[i] = l.DatasetID
		}
		var datasets []C6Dataset
		for _, batch := range chunk(distinct(dsIDs), constants.ChecksumBatchSize) {
			var part []C6Dataset
			if err := s.db.WithContext(ctx).Where("dataset_id IN ?", batch).Find(&part).Error; err != nil {
				return errors.WrapResource("query", "inventory", "cmip6_dataset", err)
			}
			datasets = append(datasets, part...)
		}
		byID := make(map[string]C6Dataset, len(datasets))
		for _, d := range datasets {
			byID[d.DatasetID] = d
		}
		for _, l := range c6links {
			rec := &records[index[l.FileID]]
			rec.DatasetID = l.DatasetID
			rec.Project = "CMIP6"
			if d, ok := byID[l.DatasetID]; ok {
				rec.Facets = d.Facets()
			}
		}
	}

	for i := range records {
		if records[i].Facets == nil {
			records[i].Facets = map[string]string{}
		}
		if records[i].Variable != "" {
			if _, ok := records[i].Facets["variable"]; !ok && records[i].Project != "CMIP6" {
				records[i].Facets["variable"] = records[i].Variable
			}
		}
	}
	return nil
}

func linkTable(datasetTable string) string {
	if datasetTable == (C6Dataset{}).TableName() {
		return (C6Link{}).TableName()
	}
	return (C5Link{}).TableName()
}

func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func chunk[T any](in []T, size int) [][]T {
	if len(in) == 0 {
		return nil
	}
	var out [][]T
	for size < len(in) {
		in, out = in[size:], append(out, in[0:size:size])
	}
	return append(out, in)
}
