// Package testhelper provides fixtures shared by package tests: an
// in-memory inventory and testdata loading.
package testhelper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coecms/clef/internal/utils/ptr"
	"github.com/coecms/clef/pkg/inventory"
)

// LoadTestdata loads a file from the caller's testdata directory.
func LoadTestdata(t *testing.T, filename string) []byte {
	t.Helper()

	p := filepath.Join("testdata", filename)
	data, err := os.ReadFile(p) //nolint:gosec // test file paths are controlled
	if err != nil {
		t.Fatalf("failed to load testdata file %s: %v", p, err)
	}
	return data
}

// NewInventory returns a migrated in-memory SQLite inventory.
func NewInventory(t *testing.T) *inventory.Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// one connection so every query sees the same in-memory database
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	store := inventory.New(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate inventory: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// File describes one inventory file fixture.
type File struct {
	Path     string
	MD5      string
	SHA256   string
	Version  string
	Variable string
	Period   string
	// Dataset links the file to a CMIP5 or CMIP6 dataset row.
	CMIP5 *inventory.C5Dataset
	CMIP6 *inventory.C6Dataset
}

// AddFiles inserts fixtures and returns their generated file ids.
func AddFiles(t *testing.T, store *inventory.Store, files ...File) []uuid.UUID {
	t.Helper()

	db := store.DB()
	ids := make([]uuid.UUID, 0, len(files))
	for _, f := range files {
		id := uuid.New()
		ids = append(ids, id)
		must(t, db.Create(&inventory.Path{FileID: id, Path: f.Path}).Error)
		if f.MD5 != "" || f.SHA256 != "" {
			must(t, db.Create(&inventory.Checksum{Hash: id, MD5: ptr.NonEmpty(f.MD5), SHA256: ptr.NonEmpty(f.SHA256)}).Error)
		}
		must(t, db.Create(&inventory.ExtendedMetadata{
			FileID:   id,
			Version:  ptr.NonEmpty(f.Version),
			Variable: ptr.NonEmpty(f.Variable),
			Period:   ptr.NonEmpty(f.Period),
		}).Error)
		if f.CMIP5 != nil {
			must(t, db.Where(inventory.C5Dataset{DatasetID: f.CMIP5.DatasetID}).FirstOrCreate(f.CMIP5).Error)
			must(t, db.Create(&inventory.C5Link{FileID: id, DatasetID: f.CMIP5.DatasetID}).Error)
		}
		if f.CMIP6 != nil {
			must(t, db.Where(inventory.C6Dataset{DatasetID: f.CMIP6.DatasetID}).FirstOrCreate(f.CMIP6).Error)
			must(t, db.Create(&inventory.C6Link{FileID: id, DatasetID: f.CMIP6.DatasetID}).Error)
		}
	}
	return ids
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture insert failed: %v", err)
	}
}
