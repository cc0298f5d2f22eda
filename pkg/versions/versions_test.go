package versions_test

import (
	"testing"

	"github.com/coecms/clef/pkg/versions"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestFromPath(t *testing.T) {
	assert.Equal(t, "20130405", versions.FromPath("/g/data/inst/model/var/v20130405"))
	assert.Equal(t, "20110518", versions.FromPath("/g/data/inst/model/output/files/tas_20110518"))
	assert.Equal(t, "", versions.FromPath("noversionhere"))
}

func TestEffective(t *testing.T) {
	assert.Equal(t, "v2", versions.Effective(ptr("v2"), "/data/v20130405/f.nc"))
	assert.Equal(t, "20130405", versions.Effective(nil, "/data/v20130405/f.nc"))
	assert.Equal(t, "20130405", versions.Effective(ptr(""), "/data/v20130405/f.nc"))
}

func TestResolve(t *testing.T) {
	t.Run("explicit versions win over path tokens", func(t *testing.T) {
		v, fromPath := versions.Resolve([]versions.Candidate{
			{Version: ptr("v1"), Path: "/a/f1.nc"},
			{Version: ptr("v2"), Path: "/a/f2.nc"},
			{Version: nil, Path: "/a/v20130405/f3.nc"},
		})
		assert.Equal(t, "v2", v)
		assert.False(t, fromPath)
	})

	t.Run("path fallback when no explicit version", func(t *testing.T) {
		v, fromPath := versions.Resolve([]versions.Candidate{
			{Path: "/a/v20120101/f.nc"},
			{Path: "/a/v20130405/f.nc"},
		})
		assert.Equal(t, "20130405", v)
		assert.True(t, fromPath)
	})

	t.Run("nothing to resolve", func(t *testing.T) {
		v, fromPath := versions.Resolve([]versions.Candidate{{Path: "/a/b/f.nc"}})
		assert.Empty(t, v)
		assert.False(t, fromPath)
	})
}

func TestLatest(t *testing.T) {
	type row struct{ key, version, path string }
	rows := []row{
		{"mod1.tas", "v20120101", "/old"},
		{"mod2.tas", "v20110101", "/only"},
		{"mod1.tas", "v20130101", "/new"},
		{"mod1.tas", "v20110101", "/oldest"},
	}
	got := versions.Latest(rows, func(r row) string { return r.key }, func(r row) string { return r.version })
	assert.Equal(t, []row{
		{"mod1.tas", "v20130101", "/new"},
		{"mod2.tas", "v20110101", "/only"},
	}, got)
}

func TestSorted(t *testing.T) {
	assert.Equal(t, []string{"v1", "v2"}, versions.Sorted([]string{"v2", "", "v1", "v2"}))
}
