package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coecms/clef/internal/testhelper"
	"github.com/coecms/clef/pkg/errors"
	"github.com/coecms/clef/pkg/esgf"
	"github.com/coecms/clef/pkg/facets"
	"github.com/coecms/clef/pkg/inventory"
	"github.com/coecms/clef/pkg/logging"
	"github.com/coecms/clef/pkg/match"
	"github.com/coecms/clef/pkg/reconcile"
)

const (
	root5   = "/g/data/al33/replicas/CMIP5/combined/CSIRO-BOM/ACCESS1-0/historical/mon/atmos/Amon/r1i1p1/v20120727"
	dataset = "cmip5.output1.CSIRO-BOM.ACCESS1-0.historical.mon.atmos.Amon.r1i1p1.v20120727"
)

// countingInventory wraps an Inventory and counts calls.
type countingInventory struct {
	reconcile.Inventory
	calls int
	err   error
}

func (c *countingInventory) ByChecksums(ctx context.Context, sums []string) ([]inventory.Record, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Inventory.ByChecksums(ctx, sums)
}

func (c *countingInventory) ByFilenames(ctx context.Context, names []string) ([]inventory.Record, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Inventory.ByFilenames(ctx, names)
}

func (c *countingInventory) Search(ctx context.Context, p *facets.Project, cons map[string][]string) ([]inventory.Record, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.Inventory.Search(ctx, p, cons)
}

var response = testhelper.Response

func fileDoc(variable, checksum string) esgf.Document {
	name := variable + "_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc"
	return esgf.Document{
		"id":         dataset + "." + name + "|esgf.example.org",
		"dataset_id": dataset + "|esgf.example.org",
		"title":      name,
		"checksum":   []any{checksum},
	}
}

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

func seed(t *testing.T) *countingInventory {
	t.Helper()
	store := testhelper.NewInventory(t)
	testhelper.AddFiles(t, store,
		testhelper.File{
			Path:     root5 + "/tas/tas_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
			MD5:      "md5-tas",
			Version:  "v20120727",
			Variable: "tas",
			Period:   "[185001,200513)",
			CMIP5:    access10(),
		},
		testhelper.File{
			Path:     root5 + "/pr/pr_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
			SHA256:   "sha-pr",
			Variable: "pr",
			Period:   "[185001,200513)",
			CMIP5:    access10(),
		},
	)
	return &countingInventory{Inventory: store}
}

func request() reconcile.Request {
	return reconcile.Request{
		Project:     "CMIP5",
		Constraints: map[string][]string{"m": {"ACCESS1-0"}, "variable": {"tas", "pr", "uas"}},
		Version:     esgf.VersionLatest,
		Distrib:     true,
	}
}

func TestCompare(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile: {response(3, 10000, fileDoc("tas", "md5-tas"), fileDoc("pr", "sha-pr"), fileDoc("uas", "md5-uas"))},
	}}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	cmp, err := r.Compare(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, match.File, cmp.Granularity)
	assert.Equal(t, []string{
		root5 + "/pr/pr_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
		root5 + "/tas/tas_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc",
	}, cmp.LocalPaths)
	assert.Equal(t, []string{dataset + ".uas_Amon_ACCESS1-0_historical_r1i1p1_185001-200512.nc"}, cmp.MissingIDs)

	// constraints reach the catalog in canonical form
	require.Len(t, cat.Queries, 1)
	assert.Equal(t, []string{"ACCESS1.0"}, cat.Queries[0].Facets["model"])

	require.Len(t, cmp.Datasets, 2)
	pr, tas := cmp.Datasets[0], cmp.Datasets[1]
	assert.Equal(t, root5+"/tas", tas.Path)
	assert.Equal(t, "v20120727", tas.Version)
	assert.False(t, tas.VersionFromPath)
	assert.Equal(t, "20120727", pr.Version)
	assert.True(t, pr.VersionFromPath)
	assert.Equal(t, "18500101", tas.From)
	assert.Equal(t, "20051231", tas.To)
	require.NotNil(t, tas.Complete)
	assert.True(t, *tas.Complete)
}

func TestCompareOverflowDowngrades(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile:    {response(5000, 1000, fileDoc("tas", "md5-tas"))},
		esgf.TypeDataset: {response(1, 10000, esgf.Document{"id": dataset + "|esgf.example.org"})},
	}}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	cmp, err := r.Compare(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, cmp.Downgraded(request()))
	assert.Equal(t, match.Dataset, cmp.Granularity)
	assert.Equal(t, []string{root5 + "/pr", root5 + "/tas"}, cmp.LocalPaths)
	assert.Empty(t, cmp.MissingIDs)
	require.Len(t, cat.Queries, 2)
	assert.Equal(t, esgf.TypeDataset, cat.Queries[1].Type)
}

func TestCompareOverflowTwice(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile:    {response(5000, 1000, fileDoc("tas", "md5-tas"))},
		esgf.TypeDataset: {response(3000, 1000, esgf.Document{"id": dataset})},
	}}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	_, err := r.Compare(context.Background(), request())
	var ofe *errors.OverflowError
	require.ErrorAs(t, err, &ofe)
	assert.Equal(t, 3000, ofe.Found)
	assert.Contains(t, ofe.URL, "https://esgf.example.org")
	assert.Zero(t, inv.calls)
}

func TestCompareNoMatch(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{}}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	_, err := r.Compare(context.Background(), request())
	assert.True(t, errors.IsNoMatch(err))
	assert.Zero(t, inv.calls)
}

func TestCompareLogsWithContextFields(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile: {response(1, 10000, fileDoc("tas", "md5-tas"))},
	}}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFlow(logging.WithProject(ctx, "CMIP5"), "compare")

	_, err := r.Compare(ctx, request())
	require.NoError(t, err)
	assert.True(t, tl.Contains(`"message":"compared catalog with inventory"`))
	assert.True(t, tl.Contains(`"flow":"compare"`))
}

func TestCompareValidatesBeforeIO(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	req := request()
	req.Constraints = map[string][]string{"source_type": {"AOGCM"}}
	_, err := r.Compare(context.Background(), req)

	var afe *errors.AmbiguousFacetError
	require.ErrorAs(t, err, &afe)
	assert.Equal(t, "source_type", afe.Key)
	assert.Empty(t, cat.Queries)
	assert.Zero(t, inv.calls)
}

func TestCompareInventoryErrorPropagates(t *testing.T) {
	inv := seed(t)
	inv.err = errors.NewResourceError("query", "inventory", "", errors.New("connection refused"))
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile: {response(1, 10000, fileDoc("tas", "md5-tas"))},
	}}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	_, err := r.Compare(context.Background(), request())
	var re *errors.ResourceError
	require.ErrorAs(t, err, &re)
}

func TestRemote(t *testing.T) {
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeFile: {response(2, 10000, fileDoc("tas", "md5-tas"), fileDoc("pr", "sha-pr"))},
	}}
	r := reconcile.New(cat, nil, reconcile.WithLogger(logging.NewNopLogger()))

	res, err := r.Remote(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []string{dataset}, res.DatasetIDs)

	rows := res.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "ACCESS1-0", rows[0]["model"])
	assert.Equal(t, "v20120727", rows[0]["version"])
}

func TestLocal(t *testing.T) {
	inv := seed(t)
	r := reconcile.New(nil, inv, reconcile.WithLogger(logging.NewNopLogger()))

	req := request()
	req.Constraints = map[string][]string{"model": {"ACCESS1-0"}}
	res, err := r.Local(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Datasets, 2)
	assert.Len(t, res.Paths, 2)

	req.Granularity = match.Dataset
	res, err = r.Local(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{root5 + "/pr", root5 + "/tas"}, res.Paths)
}

func TestLocalRequiresInventory(t *testing.T) {
	r := reconcile.New(nil, nil)
	_, err := r.Local(context.Background(), request())
	var ce *errors.ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestMatchingLocal(t *testing.T) {
	inv := seed(t)
	r := reconcile.New(nil, inv, reconcile.WithLogger(logging.NewNopLogger()))

	req := request()
	req.Constraints = map[string][]string{"model": {"ACCESS1-0"}, "variable": {"tas", "pr"}}
	res, err := r.Matching(context.Background(), req, reconcile.MatchingOptions{})
	require.NoError(t, err)
	require.Len(t, res.Selected(), 1)
	assert.Equal(t, []string{"ACCESS1.0", "r1i1p1"}, res.Selected()[0].Fixed)

	req.Constraints["variable"] = []string{"tas", "pr", "uas"}
	res, err = r.Matching(context.Background(), req, reconcile.MatchingOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Selected())
}

func TestMatchingRemote(t *testing.T) {
	doc := func(model, member, variable string) esgf.Document {
		id := "cmip5.output1.INST." + model + ".historical.mon.atmos.Amon." + member + ".v1." + variable
		return esgf.Document{
			"id":         id + ".v20200101|esgf.example.org",
			"dataset_id": id + ".v20200101|esgf.example.org",
			"model":      []any{model},
			"ensemble":   []any{member},
			"variable":   []any{variable},
		}
	}
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{
		esgf.TypeDataset: {response(5, 10000,
			doc("mod1", "r1i1p1", "tas"),
			doc("mod1", "r1i1p1", "pr"),
			doc("mod1", "r2i1p1", "pr"),
			doc("mod2", "r1i1p1", "tas"),
			doc("mod2", "r1i1p1", "pr"),
		)},
	}}
	r := reconcile.New(cat, nil, reconcile.WithLogger(logging.NewNopLogger()))

	req := request()
	req.Constraints = map[string][]string{"variable": {"tas", "pr"}}
	res, err := r.Matching(context.Background(), req, reconcile.MatchingOptions{Remote: true})
	require.NoError(t, err)
	require.Len(t, res.Selected(), 2)
	assert.Equal(t, []string{"v20200101"}, res.Selected()[0].Info["version"])

	require.Len(t, cat.Queries, 1)
	assert.Equal(t, esgf.TypeDataset, cat.Queries[0].Type)
	assert.Contains(t, cat.Queries[0].Fields, "ensemble")
}

func TestMatchingValidatesBeforeIO(t *testing.T) {
	for _, remote := range []bool{true, false} {
		inv := seed(t)
		cat := &testhelper.Catalog{}
		r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

		req := request()
		req.Constraints = map[string][]string{"model": {"ACCESS1-0"}}
		_, err := r.Matching(context.Background(), req, reconcile.MatchingOptions{Remote: remote})
		assert.True(t, errors.IsValidationError(err), "remote=%v", remote)
		assert.Empty(t, cat.Queries, "remote=%v", remote)
		assert.Zero(t, inv.calls, "remote=%v", remote)
	}
}

func TestMatchingRejectsVersionAsVarying(t *testing.T) {
	inv := seed(t)
	cat := &testhelper.Catalog{}
	r := reconcile.New(cat, inv, reconcile.WithLogger(logging.NewNopLogger()))

	req := request()
	req.Constraints = map[string][]string{"model": {"ACCESS1-0"}, "variable": {"tas"}}
	_, err := r.Matching(context.Background(), req, reconcile.MatchingOptions{Varying: []string{"version"}})
	var afe *errors.AmbiguousFacetError
	require.ErrorAs(t, err, &afe)
	assert.Equal(t, "version", afe.Key)
	assert.Zero(t, inv.calls)

	_, err = r.Matching(context.Background(), req, reconcile.MatchingOptions{Fixed: []string{"model", "version"}})
	require.NoError(t, err)
}

func TestMatchingNoInput(t *testing.T) {
	cat := &testhelper.Catalog{Responses: map[esgf.RecordType][]*esgf.Response{}}
	r := reconcile.New(cat, nil, reconcile.WithLogger(logging.NewNopLogger()))

	req := request()
	req.Constraints = map[string][]string{"variable": {"tas"}}
	_, err := r.Matching(context.Background(), req, reconcile.MatchingOptions{Remote: true})
	assert.True(t, errors.IsNoInput(err))
}
