package andfilter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coecms/clef/pkg/andfilter"
	"github.com/coecms/clef/pkg/errors"
)

func TestFilterMemberScenario(t *testing.T) {
	rows := []andfilter.Row{
		{"model": "mod1", "member": "r1i1p1", "variable": "tas"},
		{"model": "mod1", "member": "r1i1p1", "variable": "pr"},
		{"model": "mod1", "member": "r2i1p1", "variable": "pr"},
		{"model": "mod2", "member": "r1i1p1", "variable": "tas"},
		{"model": "mod2", "member": "r1i1p1", "variable": "pr"},
	}
	res, err := andfilter.Filter(rows, andfilter.Request{
		Varying:   []string{"variable"},
		Requested: map[string][]string{"variable": {"tas", "pr"}},
		Fixed:     []string{"model", "member"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Expected)
	require.Len(t, res.Groups, 3)
	selected := res.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, []string{"mod1", "r1i1p1"}, selected[0].Fixed)
	assert.Equal(t, []string{"mod2", "r1i1p1"}, selected[1].Fixed)
	assert.Equal(t, [][]string{{"pr"}, {"tas"}}, selected[0].Observed)
	assert.Len(t, res.Rows, 4)

	excluded := res.Groups[1]
	assert.Equal(t, []string{"mod1", "r2i1p1"}, excluded.Fixed)
	assert.False(t, excluded.Qualified)
}

func localResults() []andfilter.Row {
	return []andfilter.Row{
		{"model": "mod1", "experiment": "exp1", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v1", "variable": "tas", "path": "/rootdir/mod1/exp1/r1i1p1/tas"},
		{"model": "mod1", "experiment": "exp1", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v1", "variable": "pr", "path": "/rootdir/mod1/exp1/r1i1p1/pr"},
		{"model": "mod1", "experiment": "exp1", "ensemble": "r2i1p1", "cmor_table": "Amon", "version": "v1", "variable": "pr", "path": "/rootdir/mod1/exp1/r2i1p1/pr"},
		{"model": "mod2", "experiment": "exp1", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v2", "variable": "pr", "path": "/rootdir/mod2/exp1/r1i1p1/v2/pr"},
		{"model": "mod2", "experiment": "exp1", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v1", "variable": "tas", "path": "/rootdir/mod2/exp1/r1i1p1/v1/tas"},
		{"model": "mod2", "experiment": "exp2", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v1", "variable": "tas", "path": "/rootdir/mod2/exp2/r1i1p1/v1/tas"},
		{"model": "mod2", "experiment": "exp2", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v2", "variable": "pr", "path": "/rootdir/mod2/exp2/r1i1p1/v2/pr"},
		{"model": "mod3", "experiment": "exp1", "ensemble": "r1i1p1", "cmor_table": "Amon", "version": "v1", "variable": "tas", "path": "/rootdir/mod3/exp1/r1i1p1/v1/tas"},
		{"model": "mod3", "experiment": "exp1", "ensemble": "r2i1p1", "cmor_table": "Amon", "version": "v1", "variable": "tas", "path": "/rootdir/mod3/exp1/r2i1p1/v1/tas"},
	}
}

func TestFilterLocalResults(t *testing.T) {
	requested := map[string][]string{
		"experiment": {"exp1", "exp2"},
		"variable":   {"tas", "pr"},
		"cmor_table": {"Amon"},
		"ensemble":   {"r1i1p1", "r2i1p1"},
	}

	t.Run("variable per run", func(t *testing.T) {
		res, err := andfilter.Filter(localResults(), andfilter.Request{
			Varying:   []string{"variable"},
			Requested: requested,
			Fixed:     []string{"model", "ensemble", "experiment"},
		})
		require.NoError(t, err)
		assert.Len(t, res.Selected(), 3)
		assert.Len(t, res.Rows, 6)
	})

	t.Run("variable and experiment per member", func(t *testing.T) {
		res, err := andfilter.Filter(localResults(), andfilter.Request{
			Varying:   []string{"variable", "experiment"},
			Requested: requested,
			Fixed:     []string{"model", "ensemble"},
		})
		require.NoError(t, err)
		require.Len(t, res.Selected(), 1)
		assert.Len(t, res.Rows, 4)

		g := res.Selected()[0]
		assert.Equal(t, []string{"mod2", "r1i1p1"}, g.Fixed)
		assert.Equal(t, [][]string{{"pr", "exp1"}, {"pr", "exp2"}, {"tas", "exp1"}, {"tas", "exp2"}}, g.Observed)
		assert.Equal(t, []string{"v1", "v2"}, g.Info["version"])
		assert.NotContains(t, g.Info, "ensemble")
		assert.NotContains(t, g.Info, "model")
	})

	t.Run("version splits runs", func(t *testing.T) {
		res, err := andfilter.Filter(localResults(), andfilter.Request{
			Varying:   []string{"variable"},
			Requested: requested,
			Fixed:     []string{"model", "ensemble", "experiment", "version"},
		})
		require.NoError(t, err)
		require.Len(t, res.Selected(), 1)
		assert.Equal(t, "mod1", res.Selected()[0].Fixed[0])
	})
}

func TestFilterIgnoresUnrequestedValues(t *testing.T) {
	rows := []andfilter.Row{
		{"model": "m", "variable": "tas"},
		{"model": "m", "variable": "uas"},
	}
	res, err := andfilter.Filter(rows, andfilter.Request{
		Varying:   []string{"variable"},
		Requested: map[string][]string{"variable": {"tas", "pr"}},
		Fixed:     []string{"model"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Selected())
	assert.True(t, res.Empty())
}

func TestFilterErrors(t *testing.T) {
	t.Run("no input", func(t *testing.T) {
		_, err := andfilter.Filter(nil, andfilter.Request{
			Varying:   []string{"variable"},
			Requested: map[string][]string{"variable": {"tas"}},
		})
		assert.True(t, errors.IsNoInput(err))
	})

	t.Run("nothing to complete", func(t *testing.T) {
		_, err := andfilter.Filter(localResults(), andfilter.Request{Fixed: []string{"model"}})
		assert.True(t, errors.IsValidationError(err))
		assert.Contains(t, err.Error(), "nothing to complete")
	})

	t.Run("validate without rows", func(t *testing.T) {
		err := andfilter.Request{Varying: []string{"variable", "experiment"}, Requested: map[string][]string{"variable": {"tas"}}}.Validate()
		assert.True(t, errors.IsValidationError(err))
		assert.NoError(t, andfilter.Request{Varying: []string{"variable"}, Requested: map[string][]string{"variable": {"tas"}}}.Validate())
	})

	t.Run("varying without values", func(t *testing.T) {
		_, err := andfilter.Filter(localResults(), andfilter.Request{
			Varying: []string{"variable"},
			Fixed:   []string{"model"},
		})
		assert.True(t, errors.IsValidationError(err))
	})
}
