package inventory_test

import (
	"context"
	"testing"

	"github.com/coecms/clef/internal/testhelper"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/inventory"
	"github.com/coecms/clef/pkg/logging"
	"github.com/coecms/clef/pkg/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root5 = "/g/data/al33/replicas/CMIP5/combined/CSIRO-BOM/ACCESS1-0/historical/mon/atmos/Amon/r1i1p1"

func access10() *inventory.C5Dataset {
	return &inventory.C5Dataset{
		DatasetID:  "cmip5.output.CSIRO-BOM.ACCESS1-0.historical.mon.atmos.Amon.r1i1p1",
		Project:    "CMIP5",
		Institute:  "CSIRO-BOM",
		Model:      "ACCESS1.0",
		Experiment: "historical",
		Frequency:  "mon",
		Realm:      "atmos",
		Ensemble:   "r1i1p1",
		CMORTable:  "Amon",
	}
}

func seed(t *testing.T) *inventory.Store {
	t.Helper()
	store := testhelper.NewInventory(t)
	testhelper.AddFiles(t, store,
		testhelper.File{
			Path:     root5 + "/v20120727/tas/tas_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
			MD5:      "md5-tas",
			Version:  "v20120727",
			Variable: "tas",
			Period:   "[185001,200513)",
			CMIP5:    access10(),
		},
		testhelper.File{
			Path:     root5 + "/v20120727/pr/pr_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
			SHA256:   "sha-pr",
			Variable: "pr",
			CMIP5:    access10(),
		},
		testhelper.File{
			Path: "/g/data/oi10/replicas/CMIP6/CMIP/CSIRO-ARCCSS/ACCESS-CM2/historical/r1i1p1f1/Amon/tas/gn/v20191108/tas_Amon_ACCESS-CM2_historical_r1i1p1f1_gn_185001-201412.nc",
			MD5:  "md5-c6",
			CMIP6: &inventory.C6Dataset{
				DatasetID:    "CMIP6.CMIP.CSIRO-ARCCSS.ACCESS-CM2.historical.r1i1p1f1.Amon.tas.gn",
				Project:      "CMIP6",
				SourceID:     "ACCESS-CM2",
				ExperimentID: "historical",
				MemberID:     "r1i1p1f1",
				TableID:      "Amon",
				VariableID:   "tas",
			},
		},
	)
	return store
}

func TestByChecksums(t *testing.T) {
	store := seed(t)

	recs, err := store.ByChecksums(context.Background(), []string{"md5-tas", "sha-pr", "unknown"})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byVar := map[string]inventory.Record{}
	for _, r := range recs {
		byVar[r.Variable] = r
	}
	tas := byVar["tas"]
	assert.True(t, tas.HasChecksum("md5-tas"))
	assert.Equal(t, "CMIP5", tas.Project)
	assert.Equal(t, "ACCESS1.0", tas.Facets["model"])
	assert.Equal(t, "tas", tas.Facets["variable"])
	require.NotNil(t, tas.Period)
	assert.Equal(t, timeline.Range{Lower: 185001, Upper: 200513}, *tas.Period)
	assert.Equal(t, "v20120727", tas.EffectiveVersion())

	pr := byVar["pr"]
	assert.Nil(t, pr.Version)
	assert.Equal(t, "20120727", pr.EffectiveVersion())
	assert.Nil(t, pr.Period)
}

func TestByFilenames(t *testing.T) {
	store := seed(t)

	recs, err := store.ByFilenames(context.Background(), []string{
		"tas_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
		// "_" is a LIKE wildcard, this must not match the tas file
		"tas_Amon_ACCESS1-0_historical_r1i1p1_185001_200512.nc",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "tas_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc", recs[0].Filename())
	assert.Equal(t, access10().DatasetID, recs[0].DatasetID)
}

func TestSearch(t *testing.T) {
	store := seed(t)
	ctx := context.Background()

	cmip5, err := facets.Lookup("CMIP5")
	require.NoError(t, err)
	cmip6, err := facets.Lookup("CMIP6")
	require.NoError(t, err)

	t.Run("variable filters extended metadata for CMIP5", func(t *testing.T) {
		recs, err := store.Search(ctx, cmip5, map[string][]string{"variable": {"pr"}, "model": {"ACCESS1.0"}})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "pr", recs[0].Variable)
	})

	t.Run("logs through the context logger", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		lctx := logging.WithProject(logging.WithLogger(ctx, tl.Logger), "CMIP5")
		_, err := store.Search(lctx, cmip5, map[string][]string{"variable": {"pr"}})
		require.NoError(t, err)
		assert.True(t, tl.Contains(`"message":"inventory search"`))
		assert.True(t, tl.Contains(`"project":"CMIP5"`))
	})

	t.Run("experiment family patterns", func(t *testing.T) {
		recs, err := store.Search(ctx, cmip5, map[string][]string{"experiment_family": {"historical"}})
		require.NoError(t, err)
		assert.Len(t, recs, 2)

		recs, err = store.Search(ctx, cmip5, map[string][]string{"experiment_family": {"RCP"}})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("CMIP6 dataset columns", func(t *testing.T) {
		recs, err := store.Search(ctx, cmip6, map[string][]string{"variable_id": {"tas"}, "member_id": {"r1i1p1f1", "r2i1p1f1"}})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "ACCESS-CM2", recs[0].Facets["source_id"])
		assert.Equal(t, "CMIP6", recs[0].Project)
	})

	t.Run("catalog only facet is rejected", func(t *testing.T) {
		_, err := store.Search(ctx, cmip5, map[string][]string{"cf_standard_name": {"air_temperature"}})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("project without local tables", func(t *testing.T) {
		cordex, err := facets.Lookup("CORDEX")
		require.NoError(t, err)
		_, err = store.Search(ctx, cordex, nil)
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestOpen(t *testing.T) {
	_, err := inventory.Open(inventory.Config{Driver: "postgres"})
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	_, err = inventory.Open(inventory.Config{Driver: "oracle", DSN: "x"})
	require.ErrorAs(t, err, &cfgErr)

	store, err := inventory.Open(inventory.Config{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
